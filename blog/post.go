// Package blog holds the post model and the listing and detail view logic
// built on top of the content API.
package blog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eringen/prismblog/prismic"
	"github.com/eringen/prismblog/richtext"
)

// PostSummary is one entry of the listing page.
type PostSummary struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Title                string     `json:"title"`
	Subtitle             string     `json:"subtitle"`
	Author               string     `json:"author"`
}

// PostPagination is one page of summaries plus the cursor of the next
// page. NextPage is empty on the last page.
type PostPagination struct {
	NextPage string        `json:"next_page"`
	Results  []PostSummary `json:"results"`
}

// PostDocument is a fully resolved post.
type PostDocument struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Title                string     `json:"title"`
	Subtitle             string     `json:"subtitle"`
	Author               string     `json:"author"`
	Banner               Banner     `json:"banner"`
	Content              []Section  `json:"content"`
}

// Banner is the post's header image.
type Banner struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Section is a heading followed by a rich text body.
type Section struct {
	Heading string          `json:"heading"`
	Body    richtext.Blocks `json:"body"`
}

// Summary returns the listing entry for d.
func (d PostDocument) Summary() PostSummary {
	return PostSummary{
		UID:                  d.UID,
		FirstPublicationDate: d.FirstPublicationDate,
		Title:                d.Title,
		Subtitle:             d.Subtitle,
		Author:               d.Author,
	}
}

// textField accepts either a plain key-text value or a structured text
// array, so title fields can be modelled either way in the CMS.
type textField string

func (t *textField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '[' {
		var blocks richtext.Blocks
		if err := json.Unmarshal(b, &blocks); err != nil {
			return err
		}
		*t = textField(richtext.AsText(blocks, " "))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = textField(s)
	return nil
}

type postData struct {
	Title    textField `json:"title"`
	Subtitle textField `json:"subtitle"`
	Author   textField `json:"author"`
	Banner   struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	} `json:"banner"`
	Content []struct {
		Heading textField       `json:"heading"`
		Body    richtext.Blocks `json:"body"`
	} `json:"content"`
}

func decodePost(d prismic.Document) (postData, *time.Time, error) {
	var data postData
	if err := d.DecodeData(&data); err != nil {
		return postData{}, nil, err
	}
	published, err := d.FirstPublished()
	if err != nil {
		return postData{}, nil, fmt.Errorf("blog: post %q: %w", d.UID, err)
	}
	return data, published, nil
}

func summaryFromPrismic(d prismic.Document) (PostSummary, error) {
	data, published, err := decodePost(d)
	if err != nil {
		return PostSummary{}, err
	}
	return PostSummary{
		UID:                  d.UID,
		FirstPublicationDate: published,
		Title:                string(data.Title),
		Subtitle:             string(data.Subtitle),
		Author:               string(data.Author),
	}, nil
}

func documentFromPrismic(d prismic.Document) (PostDocument, error) {
	data, published, err := decodePost(d)
	if err != nil {
		return PostDocument{}, err
	}
	doc := PostDocument{
		UID:                  d.UID,
		FirstPublicationDate: published,
		Title:                string(data.Title),
		Subtitle:             string(data.Subtitle),
		Author:               string(data.Author),
		Banner:               Banner{URL: data.Banner.URL, Alt: data.Banner.Alt},
		Content:              make([]Section, 0, len(data.Content)),
	}
	for _, c := range data.Content {
		doc.Content = append(doc.Content, Section{Heading: string(c.Heading), Body: c.Body})
	}
	return doc, nil
}

func paginationFromPrismic(resp *prismic.Response) (PostPagination, error) {
	page := PostPagination{
		NextPage: prismic.PublicCursor(resp.NextPage),
		Results:  make([]PostSummary, 0, len(resp.Results)),
	}
	for _, d := range resp.Results {
		s, err := summaryFromPrismic(d)
		if err != nil {
			return PostPagination{}, err
		}
		page.Results = append(page.Results, s)
	}
	return page, nil
}
