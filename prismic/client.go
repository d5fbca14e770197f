// Package prismic is a small client for the Prismic REST API v2.
//
// A Client is bound to one repository. Every query first resolves the
// repository's master ref, then searches documents at that ref.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultAllPageSize is the page size used when walking every page of a type.
const DefaultAllPageSize = 100

// Client talks to a single Prismic repository.
type Client struct {
	endpoint    string
	accessToken string
	client      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint derived from the repository name.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates a client for repository. accessToken may be empty for
// public repositories.
func NewClient(repository, accessToken string, opts ...Option) *Client {
	c := &Client{
		endpoint:    "https://" + repository + ".cdn.prismic.io/api/v2",
		accessToken: accessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.endpoint = strings.TrimRight(c.endpoint, "/")
	return c
}

// Endpoint returns the API base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// MasterRef returns the ref of the currently published content.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	var info apiInfo
	if err := c.getJSON(ctx, "master ref", c.withToken(c.endpoint), &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", &Error{Op: "master ref", URL: c.endpoint, Err: errors.New("repository has no master ref")}
}

// Query searches documents matching every predicate at the master ref.
func (c *Client) Query(ctx context.Context, predicates []string, opts QueryOptions) (*Response, error) {
	ref, err := c.MasterRef(ctx)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(c.endpoint + "/documents/search")
	if err != nil {
		return nil, &Error{Op: "query", URL: c.endpoint, Err: err}
	}
	q := u.Query()
	q.Set("ref", ref)
	if len(predicates) > 0 {
		q.Set("q", "["+strings.Join(predicates, "")+"]")
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if len(opts.Orderings) > 0 {
		q.Set("orderings", FormatOrderings(opts.Orderings))
	}
	if opts.Lang != "" {
		q.Set("lang", opts.Lang)
	}
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
	u.RawQuery = q.Encode()

	var resp Response
	if err := c.getJSON(ctx, "query", u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByType returns one page of documents of the given custom type.
func (c *Client) GetByType(ctx context.Context, docType string, opts QueryOptions) (*Response, error) {
	return c.Query(ctx, []string{At("document.type", docType)}, opts)
}

// GetByUID returns the document of docType with the given uid. It returns
// an error wrapping ErrNotFound when no such document exists.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (Document, error) {
	resp, err := c.Query(ctx, []string{At("my."+docType+".uid", uid)}, QueryOptions{PageSize: 1})
	if err != nil {
		return Document{}, err
	}
	if len(resp.Results) == 0 {
		return Document{}, fmt.Errorf("prismic: %s %q: %w", docType, uid, ErrNotFound)
	}
	return resp.Results[0], nil
}

// GetAllByType walks every page of docType and returns all documents in
// server order.
func (c *Client) GetAllByType(ctx context.Context, docType string, opts QueryOptions) ([]Document, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultAllPageSize
	}
	var docs []Document
	for page := 1; ; page++ {
		opts.Page = page
		resp, err := c.GetByType(ctx, docType, opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, resp.Results...)
		if resp.NextPage == "" || len(resp.Results) == 0 {
			return docs, nil
		}
	}
}

// FetchURL follows a next_page cursor. The cursor must point at this
// client's API host; the access token is added when missing.
func (c *Client) FetchURL(ctx context.Context, cursor string) (*Response, error) {
	if err := c.checkCursor(cursor); err != nil {
		return nil, err
	}
	var resp Response
	if err := c.getJSON(ctx, "next page", c.withToken(cursor), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) checkCursor(cursor string) error {
	u, err := url.Parse(cursor)
	if err != nil {
		return &Error{Op: "next page", URL: PublicCursor(cursor), Err: err}
	}
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return &Error{Op: "next page", URL: c.endpoint, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || !strings.EqualFold(u.Host, base.Host) {
		return &Error{Op: "next page", URL: PublicCursor(cursor), Err: ErrForeignCursor}
	}
	return nil
}

func (c *Client) withToken(raw string) string {
	if c.accessToken == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("access_token") != "" {
		return raw
	}
	q.Set("access_token", c.accessToken)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, v any) error {
	shown := PublicCursor(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{Op: op, URL: shown, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error repeats the URL, token included.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return &Error{Op: op, URL: shown, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{
			Op:         op,
			URL:        shown,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &Error{Op: op, URL: shown, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// PublicCursor removes the access token from a cursor URL so it can be
// shown to readers or written into HTML.
func PublicCursor(cursor string) string {
	if cursor == "" {
		return ""
	}
	u, err := url.Parse(cursor)
	if err != nil {
		return cursor
	}
	q := u.Query()
	if !q.Has("access_token") {
		return cursor
	}
	q.Del("access_token")
	u.RawQuery = q.Encode()
	return u.String()
}
