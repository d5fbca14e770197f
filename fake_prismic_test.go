package prismblog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakePrismic serves a small posts repository over the REST API v2 shape.
type fakePrismic struct {
	srv      *httptest.Server
	mu       sync.Mutex
	posts    []fakePost
	searches atomic.Int64
	down     atomic.Bool
}

type fakePost struct {
	UID       string
	Title     string
	Author    string
	Published time.Time
	Words     int
	Banner    string
}

func newFakePrismic(t *testing.T, n int) *fakePrismic {
	t.Helper()
	f := &fakePrismic{}
	base := time.Date(2021, time.March, 25, 19, 25, 28, 0, time.UTC)
	for i := 1; i <= n; i++ {
		f.posts = append(f.posts, fakePost{
			UID:       fmt.Sprintf("post-%d", i),
			Title:     fmt.Sprintf("Post %d", i),
			Author:    "Autor " + strconv.Itoa(i),
			Published: base.AddDate(0, 0, -i),
			Words:     150 * i,
		})
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		if f.down.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"refs":[{"id":"master","ref":"MASTER","isMasterRef":true}]}`))
	})
	mux.HandleFunc("/api/v2/documents/search", f.search)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePrismic) endpoint() string {
	return f.srv.URL + "/api/v2"
}

func (f *fakePrismic) search(w http.ResponseWriter, r *http.Request) {
	f.searches.Add(1)
	if f.down.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	f.mu.Lock()
	posts := append([]fakePost(nil), f.posts...)
	f.mu.Unlock()

	if pred := q.Get("q"); strings.Contains(pred, "my.posts.uid") {
		var results []json.RawMessage
		for _, p := range posts {
			if strings.Contains(pred, `"`+p.UID+`"`) {
				results = append(results, p.document(true))
			}
		}
		writeSearch(w, 1, "", results)
		return
	}

	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if pageSize <= 0 {
		pageSize = 20
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(posts))
	var results []json.RawMessage
	for i := start; i < end; i++ {
		results = append(results, posts[i].document(false))
	}
	next := ""
	if end < len(posts) {
		nq := url.Values{}
		nq.Set("ref", "MASTER")
		nq.Set("q", q.Get("q"))
		nq.Set("pageSize", strconv.Itoa(pageSize))
		nq.Set("page", strconv.Itoa(page+1))
		if tok := q.Get("access_token"); tok != "" {
			nq.Set("access_token", tok)
		}
		next = f.endpoint() + "/documents/search?" + nq.Encode()
	}
	writeSearch(w, page, next, results)
}

func writeSearch(w http.ResponseWriter, page int, next string, results []json.RawMessage) {
	if results == nil {
		results = []json.RawMessage{}
	}
	body := map[string]any{
		"page":      page,
		"results":   results,
		"next_page": nil,
	}
	if next != "" {
		body["next_page"] = next
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (p fakePost) document(full bool) json.RawMessage {
	data := map[string]any{
		"title":    p.Title,
		"subtitle": "Subtítulo de " + p.Title,
		"author":   p.Author,
	}
	if full {
		data["banner"] = map[string]string{"url": p.Banner, "alt": "banner"}
		data["content"] = []map[string]any{{
			"heading": "Introdução",
			"body": []map[string]any{{
				"type":  "paragraph",
				"text":  strings.TrimSpace(strings.Repeat("palavra ", p.Words)),
				"spans": []any{},
			}},
		}}
	}
	doc := map[string]any{
		"id":                     "id-" + p.UID,
		"uid":                    p.UID,
		"type":                   "posts",
		"first_publication_date": p.Published.Format("2006-01-02T15:04:05-0700"),
		"data":                   data,
	}
	b, _ := json.Marshal(doc)
	return b
}

func testConfig(t *testing.T, f *fakePrismic) SiteConfig {
	t.Helper()
	return SiteConfig{
		Name:          "spacetraveling",
		URL:           "https://blog.example.com",
		Description:   "Um blog",
		Endpoint:      f.endpoint(),
		AccessToken:   "secret-token",
		WebhookSecret: "hook-secret",
		PageSize:      2,
		DatabasePath:  t.TempDir() + "/documents.db",
		Timezone:      "UTC",
		OutputDir:     t.TempDir(),
	}
}
