// Package models contains data types and constants for the Project Brain client.
package models

// Backend endpoints, relative to the configured base URL
const (
	EndpointChat    = "/chat"
	EndpointExtract = "/extract"
	EndpointIngest  = "/ingest"
	EndpointHealth  = "/"
)

// DefaultBaseURL is used when no base URL is configured
const DefaultBaseURL = "http://localhost:8000"

// Fixed conversation texts
const (
	SeedGreeting    = "Hello! I am Project Brain. Ask me about the construction docs."
	UnreachableText = "Error: Could not reach the backend. Ensure the Project Brain server is running."
	MalformedText   = "Error: The backend answered, but the response could not be understood."
	NoDataText      = "No structured data extracted."
)

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	IntentQA      Intent = "qa"
	IntentExtract Intent = "extract"
)

func (i Intent) String() string {
	return string(i)
}

// Endpoint returns the capability path serving the intent.
func (i Intent) Endpoint() string {
	if i == IntentExtract {
		return EndpointExtract
	}
	return EndpointChat
}
