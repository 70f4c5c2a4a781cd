package summary

import "unicode/utf8"

// charsPerToken approximates the OpenAI tokenizer for English prose.
const charsPerToken = 4

// EstimateTokens returns an approximate token count for text.
// It only feeds logs and metrics and never affects chunk boundaries.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}
