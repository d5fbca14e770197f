package blog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/prismblog/prismic"
)

const postDoc = `{
  "uid": "como-utilizar-hooks",
  "type": "posts",
  "first_publication_date": "2021-03-15T19:25:28+0000",
  "data": {
    "title": "Como utilizar Hooks",
    "subtitle": "Pensando em sincronização em vez de ciclos de vida",
    "author": "Joseph Oliveira",
    "banner": {"url": "https://images.prismic.io/banner.png", "alt": "banner"},
    "content": [
      {"heading": "Proin et varius", "body": [{"type": "paragraph", "text": "Nullam dolor sapien, vulputate eu diam at.", "spans": []}]},
      {"heading": [{"type": "heading2", "text": "Cras laoreet"}], "body": [{"type": "list-item", "text": "Mauris"}, {"type": "list-item", "text": "Curabitur"}]}
    ]
  }
}`

func newContentServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"refs":[{"id":"master","ref":"M","isMasterRef":true}]}`))
	})
	mux.HandleFunc("/api/v2/documents/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		queries = append(queries, r.URL.RawQuery)
		switch {
		case strings.Contains(q.Get("q"), "my.posts.uid"):
			if strings.Contains(q.Get("q"), "como-utilizar-hooks") {
				_, _ = w.Write([]byte(`{"results":[` + postDoc + `]}`))
				return
			}
			_, _ = w.Write([]byte(`{"results":[]}`))
		case q.Get("page") == "2":
			_, _ = w.Write([]byte(`{"page":2,"next_page":null,"results":[
			  {"uid":"third","type":"posts","first_publication_date":null,"data":{"title":"Third","subtitle":"s","author":"a"}}]}`))
		default:
			next := srv.URL + "/api/v2/documents/search?ref=M&page=2&pageSize=2&access_token=tok"
			_, _ = w.Write([]byte(`{"page":1,"next_page":"` + next + `","results":[
			  {"uid":"first","type":"posts","first_publication_date":"2021-03-25T19:25:28+0000","data":{"title":"First","subtitle":"s1","author":"a1"}},
			  {"uid":"second","type":"posts","first_publication_date":"2021-03-20T10:00:00+0000","data":{"title":"Second","subtitle":"s2","author":"a2"}}]}`))
		}
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &queries
}

func newTestContentClient(t *testing.T) (*ContentClient, *[]string) {
	srv, queries := newContentServer(t)
	api := prismic.NewClient("blog", "tok", prismic.WithEndpoint(srv.URL+"/api/v2"))
	return NewContentClient(api), queries
}

func TestFetchByTypeAndNext(t *testing.T) {
	c, _ := newTestContentClient(t)
	ctx := context.Background()

	first, err := c.FetchByType(ctx, "posts", 2, ByFirstPublicationDesc)
	require.NoError(t, err)
	require.Len(t, first.Results, 2)
	assert.Equal(t, "first", first.Results[0].UID)
	assert.Equal(t, "First", first.Results[0].Title)
	assert.Equal(t, "a1", first.Results[0].Author)
	require.NotNil(t, first.Results[0].FirstPublicationDate)
	assert.Equal(t, 25, first.Results[0].FirstPublicationDate.Day())
	assert.NotEmpty(t, first.NextPage)
	assert.NotContains(t, first.NextPage, "tok")

	l := NewListing(first)
	res := l.LoadMore(ctx, c)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"first", "second", "third"}, uidsOf(l.Posts))
	assert.Nil(t, l.Posts[2].FirstPublicationDate)
	assert.False(t, l.HasMore())
}

func TestFetchByUID(t *testing.T) {
	c, _ := newTestContentClient(t)

	doc, err := c.FetchByUID(context.Background(), "posts", "como-utilizar-hooks")
	require.NoError(t, err)
	assert.Equal(t, "Como utilizar Hooks", doc.Title)
	assert.Equal(t, "https://images.prismic.io/banner.png", doc.Banner.URL)
	require.Len(t, doc.Content, 2)
	assert.Equal(t, "Proin et varius", doc.Content[0].Heading)
	assert.Equal(t, "Cras laoreet", doc.Content[1].Heading)
	assert.Len(t, doc.Content[1].Body, 2)
	assert.Equal(t, "como-utilizar-hooks", doc.Summary().UID)

	_, err = c.FetchByUID(context.Background(), "posts", "missing")
	assert.ErrorIs(t, err, prismic.ErrNotFound)
}

func TestFetchAllAndUIDs(t *testing.T) {
	c, _ := newTestContentClient(t)

	uids, err := c.AllUIDs(context.Background(), "posts")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, uids)
}

func TestFetchNextRejectsForeignCursor(t *testing.T) {
	c, _ := newTestContentClient(t)
	_, err := c.FetchNext(context.Background(), "https://evil.example/api/v2/documents/search?page=2")
	assert.ErrorIs(t, err, prismic.ErrForeignCursor)
}
