package answer

import (
	"regexp"
	"strings"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	blankRunsRe  = regexp.MustCompile(`\n{3,}`)
)

// sanitize cleans raw model output: reasoning blocks some models emit are
// stripped, markdown code fences around the whole answer are unwrapped, and
// blank-line runs are collapsed.
func sanitize(text string) string {
	text = thinkBlockRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		if end := strings.LastIndex(text, "```"); end > 3 {
			inner := text[3:end]
			if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
				inner = inner[nl+1:]
			}
			text = strings.TrimSpace(inner)
		}
	}

	text = blankRunsRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
