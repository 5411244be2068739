/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"errors"
	"net/http"

	"github.com/blnkfinance/reachout"
	"github.com/blnkfinance/reachout/api/middleware"
	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/internal/apierror"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Api struct {
	reachout *reachout.Reachout
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	conf, err := config.Fetch()
	if err != nil {
		return router
	}

	router.GET("/api/confirm-interest", middleware.RateLimitMiddleware(conf), a.ConfirmInterest)

	operator := router.Group("/")
	if conf.Server.Secure {
		operator.Use(middleware.SecretKeyAuthMiddleware())
	}

	operator.POST("/outreach", a.RunOutreach)
	operator.POST("/outreach-single", a.RunSingleOutreach)
	operator.GET("/outreach/events", a.OutreachEvents)
	operator.GET("/outreach/status", a.OutreachStatus)
	operator.POST("/outreach/approve", a.ApproveOutreach)
	operator.POST("/outreach/reject", a.RejectOutreach)
	operator.GET("/results", a.GetResults)

	operator.GET("/prospects", a.GetProspects)
	operator.GET("/prospects/:email", a.GetProspect)
	operator.POST("/prospects", a.CreateProspect)
	operator.DELETE("/prospects", a.DeleteProspect)
	operator.PATCH("/prospects", a.UpdateReachedOut)

	operator.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func NewAPI(r *reachout.Reachout) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}

	router := gin.New()
	router.Use(gin.Recovery(), gin.Logger())
	if conf.Tracing.Enabled {
		router.Use(otelgin.Middleware(conf.ProjectName))
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{reachout: r, router: router}
}

// respondError maps engine errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var validationErr *reachout.ValidationError
	switch {
	case errors.Is(err, reachout.ErrRunInProgress), errors.Is(err, reachout.ErrApprovalMismatch),
		errors.Is(err, reachout.ErrRunLockLost):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, reachout.ErrNoPendingApproval):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
	}
}
