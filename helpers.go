package prismblog

import (
	"strings"

	"github.com/eringen/prismblog/views"
)

// robotsTxt allows everything and points crawlers at the sitemap.
func robotsTxt(cfg SiteConfig) string {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n")
	b.WriteString("Sitemap: " + strings.TrimSuffix(views.BuildURL(cfg.URL), "/") + "/sitemap.xml\n")
	return b.String()
}

// validUID reports whether uid can be used as a single path segment.
func validUID(uid string) bool {
	if uid == "" || uid == "." || uid == ".." || len(uid) > 200 {
		return false
	}
	return !strings.ContainsAny(uid, "/\\\x00")
}
