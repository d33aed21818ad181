// Package conversation drives the multi-turn protocol that collects missing
// parameters for a submission and offers to save them afterward.
package conversation

import "strings"

// Intent is the coarse classification of a user utterance.
type Intent string

const (
	IntentRunJob       Intent = "run_job"
	IntentQueryHistory Intent = "query_history"
	IntentUnknown      Intent = "unknown"
)

// Classifier determines the intent of a fresh utterance. Implementations
// may range from keyword matching to a hosted model; the engine only sees
// the Intent.
type Classifier interface {
	Classify(prompt string) Intent
}

// KeywordClassifier is a keyword-based Classifier. Anything that does not
// look like a history question is assumed to be a job request.
type KeywordClassifier struct{}

var historyKeywords = []string{
	"what was", "result", "status", "tell me about", "get the result",
}

// Classify classifies the prompt.
func (KeywordClassifier) Classify(prompt string) Intent {
	lower := strings.ToLower(prompt)
	for _, kw := range historyKeywords {
		if strings.Contains(lower, kw) {
			return IntentQueryHistory
		}
	}
	return IntentRunJob
}
