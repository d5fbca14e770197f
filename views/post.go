package views

import (
	"bytes"
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/prismblog/blog"
)

// Post renders the detail page of a post.
func Post(cfg SiteConfig, d blog.Detail) templ.Component {
	post := d.Post
	meta := PageMeta{
		Title:       post.Title,
		Description: post.Subtitle,
		URL:         BuildURL(cfg.URL, "post", post.UID),
		OGType:      "article",
		Image:       post.Banner.URL,
		JSONLD:      BlogPostingJsonLD(cfg, post),
	}
	rt := cfg.richText()
	return Page(cfg, meta, component(func(ctx context.Context, buf *bytes.Buffer) error {
		if post.Banner.URL != "" {
			alt := post.Banner.Alt
			if alt == "" {
				alt = "banner"
			}
			buf.WriteString(`<img class="banner" src="` + escURL(post.Banner.URL) + `" alt="` + esc(alt) + `"/>`)
		}
		buf.WriteString(`<article class="post-page"><h1 class="post-page__title">` + esc(post.Title) + `</h1>`)
		buf.WriteString(`<div class="post__info">`)
		writeDate(buf, cfg, post.FirstPublicationDate)
		if post.Author != "" {
			buf.WriteString(`<span class="post__author">` + esc(post.Author) + `</span>`)
		}
		buf.WriteString(`<span class="post__reading-time">` + ReadingTimeLabel(d.ReadingMinutes) + `</span>`)
		buf.WriteString(`</div>`)
		for _, s := range post.Content {
			buf.WriteString(`<section class="post-page__section">`)
			if s.Heading != "" {
				buf.WriteString(`<h2>` + esc(s.Heading) + `</h2>`)
			}
			buf.WriteString(`<div class="post-page__body">`)
			if err := rt.Component(s.Body).Render(ctx, buf); err != nil {
				return err
			}
			buf.WriteString(`</div></section>`)
		}
		buf.WriteString(`</article>`)
		return nil
	}))
}

// ReadingTimeLabel formats a reading time in minutes, e.g. "4 min".
func ReadingTimeLabel(minutes int) string {
	return strconv.Itoa(minutes) + " min"
}
