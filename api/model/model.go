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
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ValidateRunOutreach checks the optional target address. A single-recipient
// run passes requireEmail.
func (r *RunOutreach) ValidateRunOutreach(requireEmail bool) error {
	r.Email = strings.TrimSpace(r.Email)
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.When(requireEmail, validation.Required.Error("email is required for a single outreach")), is.EmailFormat),
	)
}

func (d *OperatorDecision) ValidateOperatorDecision() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Email, validation.Required),
		validation.Field(&d.Index, validation.NotNil.Error("index is required"), validation.By(func(value interface{}) error {
			if d.Index != nil && *d.Index < 0 {
				return validation.NewError("validation_index_negative", "index must not be negative")
			}
			return nil
		})),
	)
}

func (p *CreateProspect) ValidateCreateProspect() error {
	p.Email = strings.TrimSpace(p.Email)
	return validation.ValidateStruct(p,
		validation.Field(&p.Email, validation.Required, is.EmailFormat),
		validation.Field(&p.Website, validation.When(p.Website != "", is.URL)),
	)
}

func (p *ProspectEmail) ValidateProspectEmail() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Email, validation.Required),
	)
}

func (u *UpdateReachedOut) ValidateUpdateReachedOut() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Email, validation.Required),
		validation.Field(&u.ReachedOut, validation.NotNil.Error("reached_out is required")),
	)
}
