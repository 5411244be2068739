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
	"bytes"
	"html/template"
	"net/http"

	"github.com/blnkfinance/reachout"
	"github.com/blnkfinance/reachout/internal/apierror"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var confirmPage = template.Must(template.New("confirm").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family:sans-serif;text-align:center;padding:48px;">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>`))

type confirmView struct {
	Title   string
	Message string
}

// ConfirmInterest is the public landing page behind the link in every sent
// message.
func (a Api) ConfirmInterest(c *gin.Context) {
	result, err := a.reachout.ConfirmInterest(c.Request.Context(), c.Query("email"), c.Query("token"))
	switch {
	case err == nil && result.Status == reachout.ConfirmationConfirmed:
		renderConfirmPage(c, http.StatusOK, "Thank you!", "Your interest has been confirmed. We will be in touch soon.")
	case err == nil:
		renderConfirmPage(c, http.StatusOK, "Already confirmed", "You have already confirmed your interest. Thank you!")
	case apierror.HasCode(err, apierror.ErrInvalidInput):
		renderConfirmPage(c, http.StatusBadRequest, "Incomplete link", "This confirmation link is missing information.")
	case apierror.HasCode(err, apierror.ErrNotFound):
		renderConfirmPage(c, http.StatusNotFound, "Link not found", "We could not find this confirmation link.")
	case apierror.HasCode(err, apierror.ErrInvalidToken):
		renderConfirmPage(c, http.StatusBadRequest, "Invalid link", "This confirmation link is invalid or has expired.")
	default:
		renderConfirmPage(c, http.StatusInternalServerError, "Something went wrong", "Please try again later.")
	}
}

func renderConfirmPage(c *gin.Context, status int, title, message string) {
	var page bytes.Buffer
	if err := confirmPage.Execute(&page, confirmView{Title: title, Message: message}); err != nil {
		logrus.WithError(err).Error("failed to render confirmation page")
		c.String(http.StatusInternalServerError, message)
		return
	}
	c.Data(status, "text/html; charset=utf-8", page.Bytes())
}
