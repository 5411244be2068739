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
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/blnkfinance/reachout"
	model2 "github.com/blnkfinance/reachout/api/model"
	"github.com/blnkfinance/reachout/model"
	"github.com/gin-gonic/gin"
)

// RunOutreach starts a bulk run, or a targeted one when the body names an
// email. The response is sent once the run finishes. The run outlives the
// request: a disconnected caller does not cancel it.
func (a Api) RunOutreach(c *gin.Context) {
	var req model2.RunOutreach
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.runOutreach(c, req, false)
}

func (a Api) RunSingleOutreach(c *gin.Context) {
	var req model2.RunOutreach
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.runOutreach(c, req, true)
}

func (a Api) runOutreach(c *gin.Context, req model2.RunOutreach, single bool) {
	if err := req.ValidateRunOutreach(single); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	result, err := a.reachout.RunOutreach(context.WithoutCancel(c.Request.Context()), reachout.RunOptions{Target: req.Email})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a Api) ApproveOutreach(c *gin.Context) {
	a.resolve(c, model.EventApprove)
}

func (a Api) RejectOutreach(c *gin.Context) {
	a.resolve(c, model.EventReject)
}

func (a Api) resolve(c *gin.Context, event model.EventType) {
	var decision model2.OperatorDecision
	if err := c.ShouldBindJSON(&decision); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := decision.ValidateOperatorDecision(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.reachout.Approvals().Resolve(event, decision.ToOperatorResponse()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "decision recorded", "event": event})
}

func (a Api) OutreachStatus(c *gin.Context) {
	c.JSON(http.StatusOK, a.reachout.Status())
}

func (a Api) GetResults(c *gin.Context) {
	records, err := a.reachout.Results(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
