package prismblog

import (
	"context"

	"github.com/eringen/prismblog/blog"
	"github.com/eringen/prismblog/prismic"
)

// Source is where posts come from. *blog.ContentClient implements it.
type Source interface {
	blog.PageFetcher
	FetchByType(ctx context.Context, typeName string, pageSize int, ordering prismic.Ordering) (blog.PostPagination, error)
	FetchByUID(ctx context.Context, typeName, uid string) (blog.PostDocument, error)
	FetchAll(ctx context.Context, typeName string, ordering prismic.Ordering) ([]blog.PostSummary, error)
	AllUIDs(ctx context.Context, typeName string) ([]string, error)
}

var _ Source = (*blog.ContentClient)(nil)

// NewSource builds the content source described by cfg.
func NewSource(cfg SiteConfig, opts ...prismic.Option) *blog.ContentClient {
	if cfg.Endpoint != "" {
		opts = append([]prismic.Option{prismic.WithEndpoint(cfg.Endpoint)}, opts...)
	}
	return blog.NewContentClient(prismic.NewClient(cfg.Repository, cfg.AccessToken, opts...))
}
