package blog

import "time"

// Detail is a post plus the values derived for its page.
type Detail struct {
	Post           PostDocument
	PublishedLabel string
	ReadingMinutes int
}

// NewDetail derives the publish date label and reading time of doc.
func NewDetail(doc PostDocument, loc *time.Location) Detail {
	return Detail{
		Post:           doc,
		PublishedLabel: FormatDate(doc.FirstPublicationDate, loc),
		ReadingMinutes: ReadingTime(doc),
	}
}
