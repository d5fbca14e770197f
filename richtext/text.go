package richtext

import "strings"

// AsText concatenates the text of every text-bearing block, joined by sep.
// Images and embeds contribute nothing.
func AsText(blocks Blocks, sep string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if hasText(b.Type) {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, sep)
}

// String returns the plain text of blocks separated by single spaces.
func (b Blocks) String() string {
	return AsText(b, " ")
}
