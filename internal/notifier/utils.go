package notifier

import (
	"strings"
	"time"
	"unicode/utf8"
)

// truncateString cuts s to at most maxLength characters, marking the cut with an ellipsis.
func truncateString(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string([]rune(s)[:maxLength])
	}
	return string([]rune(s)[:maxLength-3]) + "..."
}

// truncateLines cuts text to at most maxLength characters on a line boundary.
// The second result reports whether anything was cut.
func truncateLines(text string, maxLength int) (string, bool) {
	if utf8.RuneCountInString(text) <= maxLength {
		return text, false
	}
	cut := string([]rune(text)[:maxLength])
	if i := strings.LastIndexByte(cut, '\n'); i >= 0 {
		cut = cut[:i+1]
	}
	return cut, true
}

// compressErrorMessage keeps the first few lines of an error and shortens each one.
func compressErrorMessage(errorMsg string) string {
	var lines []string
	for _, line := range strings.Split(errorMsg, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, truncateString(line, 300))
		if len(lines) >= 5 {
			break
		}
	}
	return truncateString(strings.Join(lines, "\n"), MaxErrorTextLength)
}

// formatDuration formats duration truncated to seconds
func formatDuration(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

// codeFence escapes backticks so that text cannot close a Discord code block.
func codeFence(text string) string {
	return strings.ReplaceAll(text, "```", "`\u200b``")
}
