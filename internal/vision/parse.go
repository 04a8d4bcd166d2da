package vision

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLabelLen bounds suggested labels, in runes.
const MaxLabelLen = 60

// preambles open chatty replies. They only match as whole words.
var preambles = []string{
	"Here is", "Here's", "Here are",
	"I see", "I can see",
	"Based on",
	"This photo shows", "This image shows", "The image shows", "The photo shows",
	"In this image", "In this photo",
}

// ParseLabel extracts a label from a model reply: the first line that is not
// preamble, without a "Label:" prefix, quotes or trailing punctuation.
func ParseLabel(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isPreamble(line) {
			continue
		}

		if idx := strings.Index(line, ":"); idx >= 0 && strings.EqualFold(strings.TrimSpace(line[:idx]), "label") {
			line = line[idx+1:]
		}
		line = strings.TrimLeft(line, "-*• ")
		line = strings.Trim(line, " \"'`")
		line = strings.TrimRight(line, ".!")
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}

		if utf8.RuneCountInString(line) > MaxLabelLen {
			line = strings.TrimSpace(string([]rune(line)[:MaxLabelLen]))
		}
		return line
	}
	return ""
}

// isPreamble reports whether line introduces the answer rather than being
// one: it ends in a colon or opens with a preamble phrase.
func isPreamble(line string) bool {
	if strings.HasSuffix(line, ":") {
		return true
	}
	for _, p := range preambles {
		if len(line) < len(p) || !strings.EqualFold(line[:len(p)], p) {
			continue
		}
		rest := line[len(p):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			return true
		}
	}
	return false
}
