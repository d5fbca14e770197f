package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
)

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return errorPage(cfg, "Página não encontrada", "O post que você procura não existe ou foi removido.")
}

// ServerError renders the 5xx page.
func ServerError(cfg SiteConfig) templ.Component {
	return errorPage(cfg, "Algo deu errado", "Não foi possível carregar esta página. Tente novamente em instantes.")
}

func errorPage(cfg SiteConfig, title, message string) templ.Component {
	return Page(cfg, PageMeta{Title: title}, component(func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<section class="error-page"><h1>` + esc(title) + `</h1>`)
		buf.WriteString(`<p>` + esc(message) + `</p>`)
		buf.WriteString(`<a href="/">Voltar para o início</a></section>`)
		return nil
	}))
}
