package api

import (
	"github.com/diogo/projectbrain/internal/models"
)

// RequestBody is the outbound envelope shared by every capability
type RequestBody struct {
	Message string `json:"message"`
}

// Request is a capability call ready to be sent
type Request struct {
	EndpointPath string
	Body         RequestBody
}

// Dispatch selects the capability for intent. The text is carried verbatim;
// the capability is chosen by path only.
func Dispatch(intent models.Intent, text string) Request {
	return Request{
		EndpointPath: intent.Endpoint(),
		Body:         RequestBody{Message: text},
	}
}
