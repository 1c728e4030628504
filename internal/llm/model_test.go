package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain object",
			input:    `{"title": "Intro to Go"}`,
			expected: `{"title": "Intro to Go"}`,
		},
		{
			name:     "fenced with language tag",
			input:    "```json\n{\"title\": \"Intro to Go\"}\n```",
			expected: `{"title": "Intro to Go"}`,
		},
		{
			name:     "fenced without language tag",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "prose around object",
			input:    "Here is the syllabus:\n{\"modules\": []}\nLet me know if you need changes.",
			expected: `{"modules": []}`,
		},
		{
			name:     "nested braces",
			input:    `{"outer": {"inner": 1}}`,
			expected: `{"outer": {"inner": 1}}`,
		},
		{
			name:     "leading whitespace",
			input:    "\n\n  {\"x\": true}  \n",
			expected: `{"x": true}`,
		},
		{
			name:     "no object at all",
			input:    "sorry, I cannot do that",
			expected: "sorry, I cannot do that",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.input))
		})
	}
}

func TestIsFatalAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"credit balance", errors.New("insufficient credit balance"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"quota exceeded", errors.New("quota exceeded for model"), true},
		{"billing issue", errors.New("billing account inactive"), true},
		{"bad key", errors.New("401: Invalid API Key provided"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatalAPIError(tt.err))
		})
	}
}

func TestTokenCount(t *testing.T) {
	info := map[string]any{
		"PromptTokens":  42,
		"output_tokens": float64(17),
	}

	assert.Equal(t, int64(42), tokenCount(info, "PromptTokens", "input_tokens"))
	assert.Equal(t, int64(17), tokenCount(info, "CompletionTokens", "output_tokens"))
	assert.Equal(t, int64(0), tokenCount(info, "missing"))
	assert.Equal(t, int64(0), tokenCount(nil, "PromptTokens"))
}
