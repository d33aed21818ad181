package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		prompt string
		want   Intent
	}{
		{"run fastqc on the ecoli dataset", IntentRunJob},
		{"what was the result of job 4821?", IntentQueryHistory},
		{"tell me about my last job", IntentQueryHistory},
		{"get the result of the last run", IntentQueryHistory},
		{"STATUS of 4821", IntentQueryHistory},
		{"align my reads with bwa", IntentRunJob},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordClassifier{}.Classify(tt.prompt))
		})
	}
}
