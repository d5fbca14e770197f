// Package views holds the page components of the blog. Components are
// templ.Components rendered into a buffer and written in one call.
package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

// component adapts a buffer-filling function to templ.Component.
func component(fill func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fill(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

var esc = templ.EscapeString[string]

// escURL escapes u for an href, src or content attribute. URLs with an
// unsafe scheme such as javascript: become templ.FailedSanitizationURL.
func escURL(u string) string {
	return esc(string(templ.URL(u)))
}

// Page wraps body in the document shell shared by every page.
func Page(cfg SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		title := cfg.Name
		if meta.Title != "" && meta.Title != cfg.Name {
			title = meta.Title + " | " + cfg.Name
		}
		description := meta.Description
		if description == "" {
			description = cfg.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		buf.WriteString(`<!DOCTYPE html><html lang="pt-BR"><head><meta charset="utf-8"/>`)
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		buf.WriteString(`<title>` + esc(title) + `</title>`)
		if description != "" {
			buf.WriteString(`<meta name="description" content="` + esc(description) + `"/>`)
			buf.WriteString(`<meta property="og:description" content="` + esc(description) + `"/>`)
		}
		if meta.URL != "" {
			buf.WriteString(`<link rel="canonical" href="` + escURL(meta.URL) + `"/>`)
			buf.WriteString(`<meta property="og:url" content="` + escURL(meta.URL) + `"/>`)
		}
		buf.WriteString(`<meta property="og:title" content="` + esc(title) + `"/>`)
		buf.WriteString(`<meta property="og:type" content="` + esc(ogType) + `"/>`)
		buf.WriteString(`<meta property="og:site_name" content="` + esc(cfg.Name) + `"/>`)
		if meta.Image != "" {
			buf.WriteString(`<meta property="og:image" content="` + escURL(meta.Image) + `"/>`)
		}
		buf.WriteString(`<link rel="alternate" type="application/rss+xml" title="` + esc(cfg.Name) + `" href="/feed.xml"/>`)
		buf.WriteString(`<link rel="icon" href="/public/logo.svg" type="image/svg+xml"/>`)
		buf.WriteString(`<link rel="stylesheet" href="/public/style.css"/>`)
		buf.WriteString(`<script src="/public/loadmore.js" defer></script>`)
		if meta.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the block cannot close the script.
			buf.WriteString(`<script type="application/ld+json">` + meta.JSONLD + `</script>`)
		}
		buf.WriteString(`</head><body>`)
		if err := Header(cfg).Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`<main class="container">`)
		if err := body.Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`</main></body></html>`)
		return nil
	})
}

// Header renders the site logo linking home.
func Header(cfg SiteConfig) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<header class="header"><div class="container"><a href="/" class="header__logo">`)
		buf.WriteString(`<img src="/public/logo.svg" alt="logo"/>`)
		buf.WriteString(`<span class="header__name">` + esc(cfg.Name) + `</span></a></div></header>`)
		return nil
	})
}
