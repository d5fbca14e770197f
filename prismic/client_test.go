package prismic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiInfoJSON = `{"refs":[{"id":"release","ref":"R1","label":"Next","isMasterRef":false},{"id":"master","ref":"MASTER","label":"Master","isMasterRef":true}]}`

func newTestServer(t *testing.T, search http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(apiInfoJSON))
	})
	if search != nil {
		mux.HandleFunc("/api/v2/documents/search", search)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestMasterRef(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient("blog", "", WithEndpoint(srv.URL+"/api/v2"))

	ref, err := c.MasterRef(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MASTER", ref)
}

func TestGetByTypeQueryParameters(t *testing.T) {
	var got url.Values
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"page":1,"next_page":null,"results":[{"uid":"p1","type":"posts"}]}`))
	})
	c := NewClient("blog", "secret-token", WithEndpoint(srv.URL+"/api/v2/"))

	resp, err := c.GetByType(context.Background(), "posts", QueryOptions{
		PageSize:  3,
		Orderings: []Ordering{{Field: "document.first_publication_date", Desc: true}},
	})
	require.NoError(t, err)

	assert.Equal(t, "MASTER", got.Get("ref"))
	assert.Equal(t, `[[at(document.type,"posts")]]`, got.Get("q"))
	assert.Equal(t, "3", got.Get("pageSize"))
	assert.Equal(t, "[document.first_publication_date desc]", got.Get("orderings"))
	assert.Equal(t, "secret-token", got.Get("access_token"))
	assert.Empty(t, resp.NextPage)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "p1", resp.Results[0].UID)
}

func TestGetByUIDNotFound(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `[[at(my.posts.uid,"missing")]]`, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	c := NewClient("blog", "", WithEndpoint(srv.URL+"/api/v2"))

	_, err := c.GetByUID(context.Background(), "posts", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllByTypeWalksPages(t *testing.T) {
	var srv *httptest.Server
	srv = newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			fmt.Fprintf(w, `{"page":1,"next_page":%q,"results":[{"uid":"a"},{"uid":"b"}]}`, srv.URL+"/api/v2/documents/search?page=2")
		case "2":
			_, _ = w.Write([]byte(`{"page":2,"next_page":null,"results":[{"uid":"c"}]}`))
		default:
			t.Errorf("unexpected page %q", page)
		}
	})
	c := NewClient("blog", "", WithEndpoint(srv.URL+"/api/v2"))

	docs, err := c.GetAllByType(context.Background(), "posts", QueryOptions{PageSize: 2})
	require.NoError(t, err)
	uids := make([]string, 0, len(docs))
	for _, d := range docs {
		uids = append(uids, d.UID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, uids)
}

func TestFetchURLAddsToken(t *testing.T) {
	var token, page string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		token = r.URL.Query().Get("access_token")
		page = r.URL.Query().Get("page")
		_, _ = w.Write([]byte(`{"page":2,"results":[{"uid":"p2"}]}`))
	})
	c := NewClient("blog", "tok", WithEndpoint(srv.URL+"/api/v2"))

	resp, err := c.FetchURL(context.Background(), srv.URL+"/api/v2/documents/search?page=2&ref=MASTER")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "2", page)
	assert.Equal(t, "p2", resp.Results[0].UID)
}

func TestFetchURLRejectsForeignHost(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient("blog", "tok", WithEndpoint(srv.URL+"/api/v2"))

	tests := []string{
		"https://evil.example.com/api/v2/documents/search?page=2",
		"file:///etc/passwd",
		"://bad",
	}
	for _, cursor := range tests {
		_, err := c.FetchURL(context.Background(), cursor)
		require.Error(t, err, cursor)
		var perr *Error
		assert.True(t, errors.As(err, &perr), cursor)
	}
	_, err := c.FetchURL(context.Background(), tests[0])
	assert.ErrorIs(t, err, ErrForeignCursor)
}

func TestErrorStatusSurfacesAsError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad token"))
	})
	c := NewClient("blog", "leaky-token", WithEndpoint(srv.URL+"/api/v2"))

	_, err := c.GetByType(context.Background(), "posts", QueryOptions{})
	require.Error(t, err)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Equal(t, "query", perr.Op)
	assert.NotContains(t, err.Error(), "leaky-token")
}

func TestErrorOnMalformedBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})
	c := NewClient("blog", "", WithEndpoint(srv.URL+"/api/v2"))

	_, err := c.GetByType(context.Background(), "posts", QueryOptions{})
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Zero(t, perr.StatusCode)
}

func TestNewClientDefaultEndpoint(t *testing.T) {
	c := NewClient("spacetraveling", "")
	assert.Equal(t, "https://spacetraveling.cdn.prismic.io/api/v2", c.Endpoint())
}

func TestPublicCursor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"https://x.cdn.prismic.io/api/v2/documents/search?page=2", "https://x.cdn.prismic.io/api/v2/documents/search?page=2"},
		{"https://x.cdn.prismic.io/api/v2/documents/search?access_token=abc&page=2", "https://x.cdn.prismic.io/api/v2/documents/search?page=2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PublicCursor(tt.input), tt.input)
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2021-03-25T19:25:28+0000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2021, got.Year())
	assert.Equal(t, 25, got.Day())

	got, err = ParseTime("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}

func TestFormatOrderings(t *testing.T) {
	got := FormatOrderings([]Ordering{
		{Field: "document.first_publication_date", Desc: true},
		{Field: "my.posts.title"},
	})
	assert.Equal(t, "[document.first_publication_date desc,my.posts.title]", got)
}
