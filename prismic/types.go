package prismic

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a uid lookup matches no document.
var ErrNotFound = errors.New("prismic: document not found")

// ErrForeignCursor is returned when a cursor points outside the repository.
var ErrForeignCursor = errors.New("prismic: cursor does not belong to this repository")

// Error describes a failed call to the content API. Transport failures,
// error statuses and undecodable bodies all surface as *Error.
type Error struct {
	Op         string
	URL        string // access token removed
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("prismic: %s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("prismic: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// QueryOptions tune a document search.
type QueryOptions struct {
	PageSize  int
	Page      int
	Orderings []Ordering
	Lang      string
}

// Ordering sorts search results by a field.
type Ordering struct {
	Field string // e.g. "document.first_publication_date"
	Desc  bool
}

// FormatOrderings renders orderings in the API's bracket syntax, e.g.
// "[document.first_publication_date desc]".
func FormatOrderings(orderings []Ordering) string {
	parts := make([]string, 0, len(orderings))
	for _, o := range orderings {
		if o.Desc {
			parts = append(parts, o.Field+" desc")
		} else {
			parts = append(parts, o.Field)
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// At builds an exact-match predicate: [at(path,"value")].
func At(path, value string) string {
	return fmt.Sprintf("[at(%s,%q)]", path, value)
}

// Response is one page of search results.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         string     `json:"next_page"` // empty on the last page
	PrevPage         string     `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Document is a single CMS document. Data holds the custom type fields.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	FirstPublicationDate string          `json:"first_publication_date"`
	LastPublicationDate  string          `json:"last_publication_date"`
	Lang                 string          `json:"lang"`
	Data                 json.RawMessage `json:"data"`
}

// DecodeData unmarshals the document's custom fields into v.
func (d Document) DecodeData(v any) error {
	if len(d.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("prismic: decode data of %s %q: %w", d.Type, d.UID, err)
	}
	return nil
}

// FirstPublished parses FirstPublicationDate. It returns nil for documents
// that carry no date.
func (d Document) FirstPublished() (*time.Time, error) {
	return ParseTime(d.FirstPublicationDate)
}

// ParseTime parses the API's timestamp format ("2021-03-25T19:25:28+0000").
// An empty string yields nil.
func ParseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("prismic: invalid timestamp %q", s)
}

type apiInfo struct {
	Refs []Ref `json:"refs"`
}

// Ref is a content release pointer.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}
