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
	"encoding/json"

	model2 "github.com/blnkfinance/reachout/api/model"
	"github.com/blnkfinance/reachout/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

type operatorFrame struct {
	Event model.EventType         `json:"event"`
	Data  model2.OperatorDecision `json:"data"`
}

// OutreachEvents upgrades to a websocket carrying the operator channel. The
// server pushes engine events; the client answers previews with approve or
// reject frames.
func (a Api) OutreachEvents(c *gin.Context) {
	server := websocket.Server{Handler: a.serveOperator}
	server.ServeHTTP(c.Writer, c.Request)
}

func (a Api) serveOperator(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	id, events, cancel := a.reachout.Events().Subscribe()
	defer cancel()
	logger := logrus.WithField("subscriber", id)
	logger.Info("operator connected")

	a.replayPending(func(event model.OutreachEvent) error {
		return websocket.JSON.Send(conn, event)
	}, logger)

	go func() {
		for event := range events {
			if err := websocket.JSON.Send(conn, event); err != nil {
				logger.WithError(err).Warn("failed to push event, closing connection")
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		var raw string
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			logger.WithError(err).Info("operator disconnected")
			return
		}

		var frame operatorFrame
		if err := json.Unmarshal([]byte(raw), &frame); err != nil {
			a.sendOperatorError(conn, "", "invalid frame payload")
			continue
		}
		if err := frame.Data.ValidateOperatorDecision(); err != nil {
			a.sendOperatorError(conn, frame.Event, err.Error())
			continue
		}
		if err := a.reachout.Approvals().Resolve(frame.Event, frame.Data.ToOperatorResponse()); err != nil {
			a.sendOperatorError(conn, frame.Event, err.Error())
		}
	}
}

// replayPending sends the preview waiting on the operator, so a reconnecting
// operator can still answer it.
func (a Api) replayPending(send func(model.OutreachEvent) error, logger *logrus.Entry) {
	preview, runID, ok := a.reachout.Approvals().Pending()
	if !ok {
		return
	}
	if err := send(model.OutreachEvent{Event: model.EventPreview, RunID: runID, Data: preview}); err != nil {
		logger.WithError(err).Warn("failed to replay pending preview")
	}
}

func (a Api) sendOperatorError(conn *websocket.Conn, event model.EventType, message string) {
	_ = websocket.JSON.Send(conn, model.OutreachEvent{
		Event: model.EventError,
		Data:  gin.H{"event": event, "error": message},
	})
}
