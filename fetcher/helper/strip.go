package helper

import (
	"strings"
	"unicode/utf8"
)

// Aggressively strips HTML tags from a string.
// It will only keep anything between `>` and `<`.
// The result is always a single line.
func stripHtmlTags(s string, maxLen int) string {
	if !strings.Contains(strings.ToLower(s), "<html") {
		return truncate(singleLine(s), maxLen)
	}

	var builder strings.Builder
	builder.Grow(len(s) + utf8.UTFMax)

	in := false // True if we are inside an HTML tag.
	start := 0  // The index of the previous start tag character `<`
	end := 0    // The index of the previous end tag character `>`

	for i, c := range s {
		// If this is the last character and we are not in an HTML tag, save it.
		if (i+1) == len(s) && end >= start {
			builder.WriteString(s[end:])
		}

		if c == htmlTagStart {
			// Only update the start if we are not in a tag.
			// This make sure we strip out `<<br>` not just `<br>`
			if !in {
				start = i
			}
			in = true

			// Write the valid string between the close and start of the two tags.
			builder.WriteString(s[end:start])
			end = i + 1
		} else if c == htmlTagEnd {
			in = false
			end = i + 1
		}
	}

	return truncate(singleLine(builder.String()), maxLen)
}

// status lines are single line
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	if maxLen == 0 || maxLen >= len(s) {
		return s
	}
	// do not cut a rune in half
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen]
}

const (
	htmlTagStart = 60 // Unicode `<`
	htmlTagEnd   = 62 // Unicode `>`
)
