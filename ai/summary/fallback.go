package summary

import (
	"strings"
	"unicode/utf8"
)

// Extract is an extractive summary and the level that produced it.
type Extract struct {
	Text   string
	Source string
}

// FallbackSummarize builds a summary without a model, trying in order:
// the first non-blank line, the first sentence of it, then a rune-safe truncation.
func FallbackSummarize(content string, maxLen int) Extract {
	if maxLen <= 0 {
		maxLen = 200
	}

	para := firstParagraph(content)
	if para != "" && utf8.RuneCountInString(para) <= maxLen {
		return Extract{Text: para, Source: SourceFallbackFirstPara}
	}

	if sentence := firstSentence(para); sentence != "" && sentence != para {
		return Extract{Text: truncateRunes(sentence, maxLen), Source: SourceFallbackFirstSentence}
	}

	if para != "" {
		return Extract{Text: truncateRunes(para, maxLen), Source: SourceFallbackTruncate}
	}
	return Extract{Text: truncateRunes(strings.TrimSpace(content), maxLen), Source: SourceFallbackTruncate}
}

// firstParagraph returns the first non-blank line, trimmed.
func firstParagraph(content string) string {
	for line := range strings.SplitSeq(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// firstSentence returns line up to and including its first sentence terminator.
// A terminator with an uppercase ASCII letter glued to it, as in "U.S.A" or
// "config.Load", is read as part of a token. Any other following character, or the
// end of the line, closes the sentence.
func firstSentence(line string) string {
	for i, r := range line {
		switch r {
		case '.', '!', '?', '。', '！', '？':
		default:
			continue
		}
		next := i + utf8.RuneLen(r)
		if next >= len(line) {
			return line
		}
		if c := line[next]; c >= 'A' && c <= 'Z' {
			continue
		}
		return line[:next]
	}
	return line
}

// truncateRunes cuts s to at most maxLen runes.
func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
