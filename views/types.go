package views

import (
	"net/url"
	"time"

	"github.com/eringen/prismblog/richtext"
)

// SiteConfig holds site-wide settings every page needs. Handlers and the
// static builder pass it to the components so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME
	URL         string // SITE_URL
	Description string // SITE_DESCRIPTION

	// Location is used for publication dates. Nil means UTC.
	Location *time.Location

	// MoreHref maps a next-page cursor onto the URL of the load-more
	// fragment. Nil uses the server route.
	MoreHref func(cursor string) string

	// RichText renders post bodies. Nil uses the default renderer.
	RichText *richtext.Renderer
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
	JSONLD      string
}

func (cfg SiteConfig) moreHref(cursor string) string {
	if cfg.MoreHref != nil {
		return cfg.MoreHref(cursor)
	}
	return "/posts/more/?cursor=" + url.QueryEscape(cursor)
}

func (cfg SiteConfig) richText() *richtext.Renderer {
	if cfg.RichText != nil {
		return cfg.RichText
	}
	return defaultRichText
}

var defaultRichText = richtext.NewRenderer(ResolveDocumentLink)
