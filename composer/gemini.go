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

package composer

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/internal/request"
	"github.com/blnkfinance/reachout/model"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

const geminiAPIVersion = "v1beta"

// ErrEmptyCompletion is returned when the model answers without any text.
var ErrEmptyCompletion = errors.New("composer returned no text")

// GeminiComposer drafts emails with the Gemini API.
type GeminiComposer struct {
	client *genai.Client
	model  string
}

// NewGeminiComposer builds a client for the configured model. Endpoint
// overrides the public API base URL.
func NewGeminiComposer(ctx context.Context, cfg config.ComposerConfig) (*GeminiComposer, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = config.DEFAULT_COMPOSER_MODEL
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = request.DefaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.ApiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimSpace(cfg.Endpoint),
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &GeminiComposer{client: client, model: modelName}, nil
}

func (g *GeminiComposer) Compose(ctx context.Context, req model.ComposeRequest) (model.Draft, error) {
	prompt, err := BuildPrompt(req.Prospect)
	if err != nil {
		return model.Draft{}, errors.Wrap(err, "building prompt")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return model.Draft{}, errors.Wrapf(err, "calling %s", g.model)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return model.Draft{}, ErrEmptyCompletion
	}

	subject, body := ParseCompletion(text)
	return Finalize(subject, body, req.ConfirmationURL)
}
