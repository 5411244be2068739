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

// Package composer turns a prospect into a draft email carrying a
// confirmation link.
package composer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/model"
)

type Composer interface {
	Compose(ctx context.Context, req model.ComposeRequest) (model.Draft, error)
}

// New returns the Gemini composer when an API key is configured and the
// template composer otherwise.
func New(ctx context.Context, cfg config.ComposerConfig) (Composer, error) {
	if strings.TrimSpace(cfg.ApiKey) == "" {
		return NewTemplateComposer(), nil
	}
	return NewGeminiComposer(ctx, cfg)
}

const confirmationText = "\n\n---\nIf you're interested, please confirm by clicking the link below:\n%s\n"

var htmlLayout = template.Must(template.New("email").Parse(
	`<div style='font-family:sans-serif;line-height:1.6;'>` +
		`{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}` +
		`<br><br><hr><p style='font-size:1.1em;'>If you're interested, please confirm by clicking the button below:</p>` +
		`<a href="{{.URL}}" style="display:inline-block;padding:12px 28px;background:#6366f1;color:#fff;text-decoration:none;border-radius:8px;font-weight:bold;font-size:1.1em;">I'm Interested</a>` +
		`</div>`))

// Finalize appends the confirmation call to action to both parts of the draft.
func Finalize(subject, body, confirmationURL string) (model.Draft, error) {
	body = strings.TrimSpace(body)

	var html bytes.Buffer
	err := htmlLayout.Execute(&html, struct {
		Lines []string
		URL   string
	}{Lines: strings.Split(body, "\n"), URL: confirmationURL})
	if err != nil {
		return model.Draft{}, err
	}

	return model.Draft{
		Subject: subject,
		Body:    body + fmt.Sprintf(confirmationText, confirmationURL),
		HTML:    html.String(),
	}, nil
}
