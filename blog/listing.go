package blog

import "context"

// Listing is the state of the post listing: the posts loaded so far and the
// cursor of the next page. A Listing has a single owner; LoadMore must not
// be called concurrently.
type Listing struct {
	Posts    []PostSummary
	NextPage string
	Loading  bool
	// Err holds the failure of the last LoadMore, cleared on success.
	Err error
}

// LoadResult reports the outcome of one LoadMore call.
type LoadResult struct {
	Added   []PostSummary
	Skipped bool // the control was not invocable
	Err     error
}

// OK reports whether the page was fetched and appended.
func (r LoadResult) OK() bool {
	return !r.Skipped && r.Err == nil
}

// NewListing seeds a listing with the first page.
func NewListing(seed PostPagination) *Listing {
	posts := make([]PostSummary, len(seed.Results))
	copy(posts, seed.Results)
	return &Listing{Posts: posts, NextPage: seed.NextPage}
}

// HasMore reports whether another page exists.
func (l *Listing) HasMore() bool {
	return l.NextPage != ""
}

// CanLoadMore reports whether the load-more control is enabled.
func (l *Listing) CanLoadMore() bool {
	return l.HasMore() && !l.Loading
}

// LoadMore fetches the next page and appends it in server order. When no
// next page exists or a load is in flight it does nothing. On failure the
// posts and cursor are left untouched and the error is kept in Err.
func (l *Listing) LoadMore(ctx context.Context, f PageFetcher) LoadResult {
	if !l.CanLoadMore() {
		return LoadResult{Skipped: true}
	}
	l.Loading = true
	defer func() { l.Loading = false }()

	page, err := f.FetchNext(ctx, l.NextPage)
	if err != nil {
		l.Err = err
		return LoadResult{Err: err}
	}
	l.Err = nil
	l.Posts = append(l.Posts, page.Results...)
	l.NextPage = page.NextPage
	return LoadResult{Added: page.Results}
}
