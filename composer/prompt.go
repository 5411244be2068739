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
	"regexp"
	"strings"
	"text/template"

	"github.com/blnkfinance/reachout/model"
)

const defaultSubject = "Follow up"

var (
	subjectPattern = regexp.MustCompile(`Subject: (.*)`)
	bodyPattern    = regexp.MustCompile(`(?s)Body: (.*)`)
)

var promptTemplate = template.Must(template.New("prompt").Parse(
	`Write a highly persuasive and respectful 3-sentence cold email to {{.Name}} (website: {{.Website}}). ` +
		`Mention their role as "{{.Title}}" and highlight how their work in the {{.Category}} space, ` +
		`especially their approach described as "{{.Description}}", is impressive. ` +
		`Show how our AI-powered solutions, designed for companies that are {{.Tags}} with a team size of {{.CompanySize}}, ` +
		`can amplify their efforts without disrupting their vision. ` +
		`End with a humble but confident CTA to schedule a quick 10-minute call if they're open to discussing how we can help {{.InferredIntent}} together.` +
		"\nFormat:\nSubject: [High-performing subject line]\nBody: [3-sentence email body]"))

// BuildPrompt renders the generation prompt for p.
func BuildPrompt(p model.Prospect) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		model.Prospect
		Tags string
	}{Prospect: p, Tags: strings.Join(p.TagList(), " & ")})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseCompletion splits generated text into subject and body. Without a
// Subject line the subject is "Follow up"; without a Body marker the whole
// text is the body.
func ParseCompletion(text string) (subject, body string) {
	subject = defaultSubject
	if m := subjectPattern.FindStringSubmatch(text); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			subject = s
		}
	}

	body = strings.TrimSpace(text)
	if m := bodyPattern.FindStringSubmatch(text); m != nil {
		body = strings.TrimSpace(m[1])
	}
	return subject, body
}
