package model

import (
	"strings"
	"time"
)

// Prospect is a contact that can be considered for outreach. The email
// address is the recipient identity; everything else is input for the
// message composer.
type Prospect struct {
	ID             int64                  `json:"-"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone,omitempty"`
	Social         string                 `json:"social,omitempty"`
	Website        string                 `json:"website,omitempty"`
	Title          string                 `json:"title,omitempty"`
	Description    string                 `json:"description,omitempty"`
	Category       string                 `json:"category,omitempty"`
	Tags           string                 `json:"tags,omitempty"`
	CompanySize    string                 `json:"company_size,omitempty"`
	InferredIntent string                 `json:"inferred_intent,omitempty"`
	EmailPrompt    string                 `json:"email_prompt,omitempty"`
	ReachedOut     bool                   `json:"reached_out"`
	MetaData       map[string]interface{} `json:"meta_data,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// TagList splits the comma separated tags into trimmed, non-empty values.
func (p Prospect) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(p.Tags, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Identity returns the normalized recipient identity of the prospect.
func (p Prospect) Identity() string {
	return NormalizeEmail(p.Email)
}
