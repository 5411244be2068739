package model

// ComposeRequest carries what the composer needs to draft a message for one
// prospect. The confirmation URL must end up in the drafted body.
type ComposeRequest struct {
	Prospect        Prospect
	ConfirmationURL string
}

// Draft is a composed message before operator review.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html"`
}

// Message is the final message handed to a dispatcher.
type Message struct {
	To      string `json:"to"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html,omitempty"`
}
