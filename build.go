package prismblog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/prismblog/blog"
	"github.com/eringen/prismblog/views"
)

// ErrCursorLoop reports a listing whose next-page cursor repeats.
var ErrCursorLoop = errors.New("prismblog: next page cursor repeats")

// Builder renders the whole site to a directory.
type Builder struct {
	Config  SiteConfig
	Source  Source
	Logger  Logger
	OutDir  string
	Workers int

	// LocalizeImages downloads banners into the output and rewrites their
	// URLs. Client is used for the downloads.
	LocalizeImages bool
	Client         *http.Client
}

// BuildReport summarizes a finished build.
type BuildReport struct {
	Posts     int
	Fragments int
	Images    int
	Skipped   []string
	Duration  time.Duration
}

// NewBuilder creates a Builder for cfg reading from src.
func NewBuilder(cfg SiteConfig, src Source, logger Logger) *Builder {
	cfg.setDefaults()
	if logger == nil {
		logger = discardLogger
	}
	return &Builder{
		Config:         cfg,
		Source:         src,
		Logger:         logger,
		OutDir:         cfg.OutputDir,
		Workers:        8,
		LocalizeImages: cfg.LocalizeImages,
		Client:         &http.Client{Timeout: 30 * time.Second},
	}
}

// fragment is one pre-rendered load-more response.
type fragment struct {
	cursor string
	added  []blog.PostSummary
	next   string
}

// Build writes index.html, one page per post, the load-more fragments,
// feed.xml, sitemap.xml, robots.txt, 404.html and the public assets. Any
// content API failure aborts the build.
func (b *Builder) Build(ctx context.Context) (BuildReport, error) {
	start := time.Now()
	var report BuildReport
	cfg := b.Config

	if err := os.MkdirAll(b.OutDir, 0o755); err != nil {
		return report, fmt.Errorf("prismblog: create output dir: %w", err)
	}

	first, err := b.Source.FetchByType(ctx, cfg.PostType, cfg.PageSize, blog.ByFirstPublicationDesc)
	if err != nil {
		return report, fmt.Errorf("prismblog: fetch first page: %w", err)
	}

	// Walk the listing the way a reader clicking "load more" would, keeping
	// each appended page as a static fragment.
	walk := blog.NewListing(first)
	var fragments []fragment
	index := make(map[string]int)
	for walk.HasMore() {
		cursor := walk.NextPage
		if _, seen := index[cursor]; seen {
			return report, fmt.Errorf("prismblog: fetch page %d: %w", len(fragments)+2, ErrCursorLoop)
		}
		index[cursor] = len(fragments) + 2
		res := walk.LoadMore(ctx, b.Source)
		if res.Err != nil {
			return report, fmt.Errorf("prismblog: fetch page %d: %w", len(fragments)+2, res.Err)
		}
		fragments = append(fragments, fragment{cursor: cursor, added: res.Added, next: walk.NextPage})
	}
	vc := cfg.ViewConfig()
	vc.MoreHref = func(cursor string) string {
		if n, ok := index[cursor]; ok {
			return "/posts/more/" + strconv.Itoa(n) + ".html"
		}
		return "/"
	}

	if err := b.writeComponent(ctx, "index.html", views.Home(vc, blog.NewListing(first))); err != nil {
		return report, err
	}
	for i, f := range fragments {
		name := filepath.Join("posts", "more", strconv.Itoa(i+2)+".html")
		l := &blog.Listing{NextPage: f.next}
		res := blog.LoadResult{Added: f.added}
		if err := b.writeComponent(ctx, name, views.LoadMorePartial(vc, l, res)); err != nil {
			return report, err
		}
	}
	report.Fragments = len(fragments)

	uids, err := b.Source.AllUIDs(ctx, cfg.PostType)
	if err != nil {
		return report, fmt.Errorf("prismblog: list posts: %w", err)
	}
	posts, images, skipped, err := b.buildPosts(ctx, vc, uids)
	if err != nil {
		return report, err
	}
	report.Posts = posts
	report.Images = images
	report.Skipped = skipped

	if err := b.writeFile("feed.xml", func(w io.Writer) error { return writeRSS(w, cfg, walk.Posts) }); err != nil {
		return report, err
	}
	if err := b.writeFile("sitemap.xml", func(w io.Writer) error { return writeSitemap(w, cfg, walk.Posts) }); err != nil {
		return report, err
	}
	if err := b.writeFile("robots.txt", func(w io.Writer) error {
		_, err := io.WriteString(w, robotsTxt(cfg))
		return err
	}); err != nil {
		return report, err
	}
	if err := b.writeComponent(ctx, "404.html", views.NotFound(vc)); err != nil {
		return report, err
	}
	if err := b.copyAssets(); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	b.Logger.Info(ctx, "build finished",
		"out", b.OutDir,
		"posts", report.Posts,
		"fragments", report.Fragments,
		"images", report.Images,
		"skipped", len(report.Skipped),
		"duration", report.Duration,
	)
	return report, nil
}

func (b *Builder) buildPosts(ctx context.Context, vc views.SiteConfig, uids []string) (posts, images int, skipped []string, err error) {
	var valid []string
	for _, uid := range uids {
		if !validUID(uid) {
			b.Logger.Warn(ctx, "skipping post with unusable uid", "uid", uid)
			skipped = append(skipped, uid)
			continue
		}
		valid = append(valid, uid)
	}

	localized := make([]bool, len(valid))
	g, gctx := errgroup.WithContext(ctx)
	workers := b.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, uid := range valid {
		g.Go(func() error {
			doc, err := b.Source.FetchByUID(gctx, b.Config.PostType, uid)
			if err != nil {
				return fmt.Errorf("prismblog: fetch post %q: %w", uid, err)
			}
			if b.LocalizeImages && doc.Banner.URL != "" {
				local, err := localizeBanner(gctx, b.Client, doc.Banner.URL, uid, b.OutDir)
				if err != nil {
					b.Logger.Warn(gctx, "banner kept remote", "uid", uid, "error", err)
				} else {
					doc.Banner.URL = local
					localized[i] = true
				}
			}
			name := filepath.Join("post", uid, "index.html")
			return b.writeComponent(gctx, name, views.Post(vc, blog.NewDetail(doc, vc.Location)))
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, skipped, err
	}
	for _, ok := range localized {
		if ok {
			images++
		}
	}
	return len(valid), images, skipped, nil
}

func (b *Builder) writeComponent(ctx context.Context, name string, c templ.Component) error {
	return b.writeFile(name, func(w io.Writer) error {
		return c.Render(ctx, w)
	})
}

func (b *Builder) writeFile(name string, fill func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return fmt.Errorf("prismblog: render %s: %w", name, err)
	}
	dst := filepath.Join(b.OutDir, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("prismblog: create dir for %s: %w", name, err)
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("prismblog: write %s: %w", name, err)
	}
	return nil
}

func (b *Builder) copyAssets() error {
	assets := publicFS()
	return fs.WalkDir(assets, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(assets, p)
		if err != nil {
			return err
		}
		return b.writeFile(filepath.Join("public", filepath.FromSlash(p)), func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		})
	})
}
