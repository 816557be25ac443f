// Package intent maps user utterances to backend capabilities.
package intent

import (
	"strings"

	"github.com/diogo/projectbrain/internal/models"
)

// extractKeywords route a message to structured extraction when any of them
// appears anywhere in the text, case-insensitively.
var extractKeywords = []string{"schedule", "list"}

// Classify returns the intent for text. It never fails; blank input must be
// rejected by the caller.
func Classify(text string) models.Intent {
	lower := strings.ToLower(text)
	for _, kw := range extractKeywords {
		if strings.Contains(lower, kw) {
			return models.IntentExtract
		}
	}
	return models.IntentQA
}
