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

package model

import (
	"github.com/blnkfinance/reachout/model"
)

type RunOutreach struct {
	Email string `json:"email"`
}

// OperatorDecision is the HTTP form of an approve or reject event.
type OperatorDecision struct {
	Email   string  `json:"email"`
	Index   *int    `json:"index"`
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
	HTML    *string `json:"html"`
}

type CreateProspect struct {
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone"`
	Social         string                 `json:"social"`
	Website        string                 `json:"website"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category"`
	Tags           string                 `json:"tags"`
	CompanySize    string                 `json:"company_size"`
	InferredIntent string                 `json:"inferred_intent"`
	EmailPrompt    string                 `json:"email_prompt"`
	MetaData       map[string]interface{} `json:"meta_data"`
}

type ProspectEmail struct {
	Email string `json:"email"`
}

type UpdateReachedOut struct {
	Email      string `json:"email"`
	ReachedOut *bool  `json:"reached_out"`
}

func (d *OperatorDecision) ToOperatorResponse() model.OperatorResponse {
	resp := model.OperatorResponse{
		Email:   d.Email,
		Subject: d.Subject,
		Body:    d.Body,
		HTML:    d.HTML,
	}
	if d.Index != nil {
		resp.Index = *d.Index
	}
	return resp
}

func (p *CreateProspect) ToProspect() model.Prospect {
	return model.Prospect{
		Name:           p.Name,
		Email:          p.Email,
		Phone:          p.Phone,
		Social:         p.Social,
		Website:        p.Website,
		Title:          p.Title,
		Description:    p.Description,
		Category:       p.Category,
		Tags:           p.Tags,
		CompanySize:    p.CompanySize,
		InferredIntent: p.InferredIntent,
		EmailPrompt:    p.EmailPrompt,
		MetaData:       p.MetaData,
	}
}
