// Package richtext renders CMS structured text as HTML, either as a string
// or as a templ.Component.
package richtext

import (
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer turns structured text into sanitized HTML.
type Renderer struct {
	// LinkResolver maps a link to another CMS document onto a site path.
	// Document links resolve to "" (rendered as plain text) when nil.
	LinkResolver func(SpanData) string

	policy *bluemonday.Policy
}

// NewRenderer creates a Renderer with the given document link resolver.
func NewRenderer(resolve func(SpanData) string) *Renderer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)).Globally()
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.RequireNoReferrerOnFullyQualifiedLinks(true)
	return &Renderer{LinkResolver: resolve, policy: p}
}

var defaultRenderer = NewRenderer(nil)

// Render returns a templ.Component rendering blocks with the default renderer.
func Render(blocks Blocks) templ.Component {
	return defaultRenderer.Component(blocks)
}

// RenderHTML renders blocks to an HTML string with the default renderer.
func RenderHTML(blocks Blocks) string {
	return defaultRenderer.HTML(blocks)
}

// Component returns a templ.Component that writes the HTML for blocks.
func (r *Renderer) Component(blocks Blocks) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, r.HTML(blocks))
		return err
	})
}

// HTML renders blocks and passes the result through the sanitizer.
func (r *Renderer) HTML(blocks Blocks) string {
	return r.policy.Sanitize(r.render(blocks))
}

func (r *Renderer) render(blocks Blocks) string {
	var buf strings.Builder
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range blocks {
		switch b.Type {
		case TypeListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(r.inline(b))
			buf.WriteString("</li>")
			continue
		case TypeOListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(r.inline(b))
			buf.WriteString("</li>")
			continue
		}

		flushList()
		flushOrderedList()

		switch b.Type {
		case TypeHeading1, TypeHeading2, TypeHeading3, TypeHeading4, TypeHeading5, TypeHeading6:
			tag := "h" + strings.TrimPrefix(b.Type, "heading")
			buf.WriteString("<" + tag + ">")
			buf.WriteString(r.inline(b))
			buf.WriteString("</" + tag + ">")
		case TypePreformatted:
			buf.WriteString("<pre>")
			buf.WriteString(html.EscapeString(b.Text))
			buf.WriteString("</pre>")
		case TypeImage:
			src := SafeURL(b.URL)
			if src == "" {
				continue
			}
			buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
			if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
			}
			buf.WriteString(` /></p>`)
		case TypeEmbed:
			if b.Oembed == nil {
				continue
			}
			href := SafeURL(b.Oembed.EmbedURL)
			if href == "" {
				continue
			}
			title := b.Oembed.Title
			if title == "" {
				title = b.Oembed.EmbedURL
			}
			buf.WriteString(`<div class="embed"><a href="` + href + `" target="_blank">` + html.EscapeString(title) + `</a></div>`)
		default:
			buf.WriteString("<p>")
			buf.WriteString(r.inline(b))
			buf.WriteString("</p>")
		}
	}
	flushList()
	flushOrderedList()
	return buf.String()
}

// inline renders a block's text with its spans applied. Overlapping spans
// are closed and reopened so the output is always well nested.
func (r *Renderer) inline(b Block) string {
	units := utf16.Encode([]rune(b.Text))
	n := len(units)

	spans := make([]Span, 0, len(b.Spans))
	for _, s := range b.Spans {
		start, end := clamp(s.Start, 0, n), clamp(s.End, 0, n)
		if start >= end {
			continue
		}
		s.Start, s.End = start, end
		spans = append(spans, s)
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})

	bounds := []int{0, n}
	for _, s := range spans {
		bounds = append(bounds, s.Start, s.End)
	}
	sort.Ints(bounds)
	bounds = uniq(bounds)

	var buf strings.Builder
	var stack []Span
	for i, pos := range bounds {
		var reopen []Span
		for endsAt(stack, pos) {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			buf.WriteString(r.closeTag(top))
			if top.End != pos {
				reopen = append(reopen, top)
			}
		}
		for j := len(reopen) - 1; j >= 0; j-- {
			stack = append(stack, reopen[j])
			buf.WriteString(r.openTag(reopen[j]))
		}
		for _, s := range spans {
			if s.Start == pos {
				stack = append(stack, s)
				buf.WriteString(r.openTag(s))
			}
		}
		if i+1 < len(bounds) {
			buf.WriteString(escapeText(string(utf16.Decode(units[pos:bounds[i+1]]))))
		}
	}
	for j := len(stack) - 1; j >= 0; j-- {
		buf.WriteString(r.closeTag(stack[j]))
	}
	return buf.String()
}

func (r *Renderer) openTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanHyperlink:
		href := r.linkHref(s.Data)
		if href == "" {
			return "<span>"
		}
		tag := `<a href="` + href + `"`
		if s.Data != nil && s.Data.Target == "_blank" {
			tag += ` target="_blank"`
		}
		return tag + ">"
	case SpanLabel:
		if s.Data != nil && s.Data.Label != "" {
			return `<span class="` + html.EscapeString(s.Data.Label) + `">`
		}
	}
	return "<span>"
}

func (r *Renderer) closeTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		if r.linkHref(s.Data) != "" {
			return "</a>"
		}
	}
	return "</span>"
}

func (r *Renderer) linkHref(d *SpanData) string {
	if d == nil {
		return ""
	}
	if d.LinkType == "Document" {
		if r.LinkResolver == nil {
			return ""
		}
		return SafeURL(r.LinkResolver(*d))
	}
	return SafeURL(d.URL)
}

// SafeURL validates and escapes a URL for use in an HTML attribute. Only
// relative, fragment, http(s), mailto and tel URLs survive.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		if strings.HasPrefix(val, "//") {
			return ""
		}
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

func escapeText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br />")
}

func endsAt(stack []Span, pos int) bool {
	for _, s := range stack {
		if s.End == pos {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func uniq(sorted []int) []int {
	out := make([]int, 0, len(sorted))
	for _, v := range sorted {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}
