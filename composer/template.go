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
	"bytes"
	"context"
	"text/template"

	"github.com/blnkfinance/reachout/model"
	"github.com/pkg/errors"
)

var (
	fallbackSubject = template.Must(template.New("subject").Parse(`Quick idea for {{if .Name}}{{.Name}}{{else}}your team{{end}}`))
	fallbackBody    = template.Must(template.New("body").Parse(
		`Hi {{if .Name}}{{.Name}}{{else}}there{{end}},

I came across {{if .Website}}{{.Website}}{{else}}your work{{end}}{{if .Category}} in the {{.Category}} space{{end}} and was impressed.
We help teams{{if .CompanySize}} of {{.CompanySize}}{{end}} amplify their efforts without disrupting their vision.
Would you be open to a quick 10-minute call?`))
)

// TemplateComposer drafts without a language model. A prospect that already
// carries an email prompt in Subject:/Body: form is sent as written.
type TemplateComposer struct{}

func NewTemplateComposer() *TemplateComposer {
	return &TemplateComposer{}
}

func (TemplateComposer) Compose(ctx context.Context, req model.ComposeRequest) (model.Draft, error) {
	if err := ctx.Err(); err != nil {
		return model.Draft{}, err
	}

	p := req.Prospect
	if subjectPattern.MatchString(p.EmailPrompt) && bodyPattern.MatchString(p.EmailPrompt) {
		subject, body := ParseCompletion(p.EmailPrompt)
		return Finalize(subject, body, req.ConfirmationURL)
	}

	var subject, body bytes.Buffer
	if err := fallbackSubject.Execute(&subject, p); err != nil {
		return model.Draft{}, errors.Wrap(err, "rendering subject")
	}
	if err := fallbackBody.Execute(&body, p); err != nil {
		return model.Draft{}, errors.Wrap(err, "rendering body")
	}
	return Finalize(subject.String(), body.String(), req.ConfirmationURL)
}
