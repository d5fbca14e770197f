package blog

import (
	"strings"
	"unicode"

	"github.com/eringen/prismblog/richtext"
)

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

// CountWords counts the tokens of text separated by whitespace, commas or
// periods. Empty tokens are never counted: empty text has zero words and
// "Hello, world." has two. A plain split on the same separators would count
// the empty strings between adjacent separators and report four, so reading
// times here run shorter than split-based estimates on punctuated prose.
func CountWords(text string) int {
	return len(strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '.' || unicode.IsSpace(r)
	}))
}

// TotalWords sums the word count of every section body.
func TotalWords(doc PostDocument) int {
	total := 0
	for _, s := range doc.Content {
		total += CountWords(richtext.AsText(s.Body, " "))
	}
	return total
}

// ReadingTime estimates the minutes needed to read doc, rounded up.
func ReadingTime(doc PostDocument) int {
	return minutesFor(TotalWords(doc))
}

func minutesFor(words int) int {
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
