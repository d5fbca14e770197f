package blog

import (
	"context"

	"github.com/eringen/prismblog/prismic"
)

// ByFirstPublicationDesc orders posts newest first.
var ByFirstPublicationDesc = prismic.Ordering{Field: "document.first_publication_date", Desc: true}

// PageFetcher follows a next-page cursor.
type PageFetcher interface {
	FetchNext(ctx context.Context, cursor string) (PostPagination, error)
}

// ContentClient maps content API documents onto the post model. Cursors
// it returns never carry the access token.
type ContentClient struct {
	api *prismic.Client
}

// NewContentClient wraps an explicitly configured API client.
func NewContentClient(api *prismic.Client) *ContentClient {
	return &ContentClient{api: api}
}

// FetchByType returns the first page of documents of typeName.
func (c *ContentClient) FetchByType(ctx context.Context, typeName string, pageSize int, ordering prismic.Ordering) (PostPagination, error) {
	resp, err := c.api.GetByType(ctx, typeName, prismic.QueryOptions{
		PageSize:  pageSize,
		Orderings: []prismic.Ordering{ordering},
	})
	if err != nil {
		return PostPagination{}, err
	}
	return paginationFromPrismic(resp)
}

// FetchByUID returns the post with the given uid. Unknown uids yield an
// error wrapping prismic.ErrNotFound.
func (c *ContentClient) FetchByUID(ctx context.Context, typeName, uid string) (PostDocument, error) {
	d, err := c.api.GetByUID(ctx, typeName, uid)
	if err != nil {
		return PostDocument{}, err
	}
	return documentFromPrismic(d)
}

// FetchNext follows cursor to the next page.
func (c *ContentClient) FetchNext(ctx context.Context, cursor string) (PostPagination, error) {
	resp, err := c.api.FetchURL(ctx, cursor)
	if err != nil {
		return PostPagination{}, err
	}
	return paginationFromPrismic(resp)
}

// FetchAll returns every post of typeName in the given order.
func (c *ContentClient) FetchAll(ctx context.Context, typeName string, ordering prismic.Ordering) ([]PostSummary, error) {
	docs, err := c.api.GetAllByType(ctx, typeName, prismic.QueryOptions{
		Orderings: []prismic.Ordering{ordering},
	})
	if err != nil {
		return nil, err
	}
	out := make([]PostSummary, 0, len(docs))
	for _, d := range docs {
		s, err := summaryFromPrismic(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// AllUIDs returns the uid of every post of typeName.
func (c *ContentClient) AllUIDs(ctx context.Context, typeName string) ([]string, error) {
	posts, err := c.FetchAll(ctx, typeName, ByFirstPublicationDesc)
	if err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.UID != "" {
			uids = append(uids, p.UID)
		}
	}
	return uids, nil
}
