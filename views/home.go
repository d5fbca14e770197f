package views

import (
	"bytes"
	"context"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/prismblog/blog"
)

// UI strings.
const (
	LoadMoreLabel  = "Carregar mais posts"
	LoadingLabel   = "Carregando"
	RetryLabel     = "Tentar novamente"
	LoadErrorLabel = "Não foi possível carregar mais posts."
	EmptyLabel     = "Nenhum post publicado ainda."
)

// Home renders the listing page.
func Home(cfg SiteConfig, l *blog.Listing) templ.Component {
	meta := PageMeta{
		Title:  cfg.Name,
		URL:    BuildURL(cfg.URL),
		JSONLD: WebsiteJsonLD(cfg),
	}
	return Page(cfg, meta, component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<section class="posts" id="posts">`)
		if len(l.Posts) == 0 {
			buf.WriteString(`<p class="posts__empty">` + esc(EmptyLabel) + `</p>`)
		}
		if err := PostItems(cfg, l.Posts).Render(ctx, buf); err != nil {
			return err
		}
		if err := LoadMoreControl(cfg, l).Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`</section>`)
		return nil
	}))
}

// PostItems renders one entry per summary, in the given order.
func PostItems(cfg SiteConfig, posts []blog.PostSummary) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		for _, p := range posts {
			buf.WriteString(`<a class="post" href="` + escURL(PostPath(p.UID)) + `"><article>`)
			buf.WriteString(`<h2 class="post__title">` + esc(p.Title) + `</h2>`)
			if p.Subtitle != "" {
				buf.WriteString(`<p class="post__subtitle">` + esc(p.Subtitle) + `</p>`)
			}
			buf.WriteString(`<div class="post__info">`)
			writeDate(buf, cfg, p.FirstPublicationDate)
			if p.Author != "" {
				buf.WriteString(`<span class="post__author">` + esc(p.Author) + `</span>`)
			}
			buf.WriteString(`</div></article></a>`)
		}
		return nil
	})
}

// LoadMoreControl renders the load-more control. It renders nothing when
// there is no next page, a disabled button while loading and an error
// message with a retry button after a failed load.
func LoadMoreControl(cfg SiteConfig, l *blog.Listing) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		if !l.HasMore() {
			return nil
		}
		buf.WriteString(`<div class="load-more" id="load-more" data-load-more>`)
		switch {
		case l.Loading:
			buf.WriteString(`<button type="button" class="load-more__button" disabled aria-busy="true">` + esc(LoadingLabel) + `</button>`)
		case l.Err != nil:
			buf.WriteString(`<p class="load-more__error" role="alert">` + esc(LoadErrorLabel) + `</p>`)
			buf.WriteString(`<a class="load-more__button" href="` + escURL(cfg.moreHref(l.NextPage)) + `">` + esc(RetryLabel) + `</a>`)
		default:
			buf.WriteString(`<a class="load-more__button" href="` + escURL(cfg.moreHref(l.NextPage)) + `">` + esc(LoadMoreLabel) + `</a>`)
		}
		buf.WriteString(`</div>`)
		return nil
	})
}

// MorePage wraps LoadMorePartial in the page shell for readers who follow
// the load-more link without the page script.
func MorePage(cfg SiteConfig, l *blog.Listing, res blog.LoadResult) templ.Component {
	meta := PageMeta{Title: cfg.Name}
	return Page(cfg, meta, component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<section class="posts" id="posts">`)
		if err := LoadMorePartial(cfg, l, res).Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`</section>`)
		return nil
	}))
}

// LoadMorePartial is the response to a load-more request: the appended
// items followed by a fresh control that replaces the old one.
func LoadMorePartial(cfg SiteConfig, l *blog.Listing, res blog.LoadResult) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		if err := PostItems(cfg, res.Added).Render(ctx, buf); err != nil {
			return err
		}
		return LoadMoreControl(cfg, l).Render(ctx, buf)
	})
}

func writeDate(buf *bytes.Buffer, cfg SiteConfig, t *time.Time) {
	label := blog.FormatDate(t, cfg.Location)
	if iso := isoDate(t); iso != "" {
		buf.WriteString(`<time class="post__date" datetime="` + iso + `">` + esc(label) + `</time>`)
		return
	}
	buf.WriteString(`<span class="post__date">` + esc(label) + `</span>`)
}
