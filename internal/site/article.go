package site

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"kemdeholo/internal/domain"
)

const (
	msgArticleMissing = `<p class="text-center text-gray-500">Article introuvable.</p>`
	msgArticleFailed  = `<p class="text-center text-red-500">Impossible de charger l&#39;article.</p>`
)

// initArticle fills #article-view with the article named by the ?id= query.
func (p *Page) initArticle() func(context.Context) error {
	view := p.byID("article-view")
	if view == nil {
		return nil
	}
	return func(ctx context.Context) error {
		id, err := strconv.ParseInt(p.query.Get("id"), 10, 64)
		if err != nil || id <= 0 {
			p.mu.Lock()
			p.setHTML(view, msgArticleMissing)
			p.mu.Unlock()
			return nil
		}
		a, err := p.src.Article(ctx, id)

		p.mu.Lock()
		defer p.mu.Unlock()
		switch {
		case errors.Is(err, domain.ErrNotFound):
			p.setHTML(view, msgArticleMissing)
			return nil
		case err != nil:
			p.setHTML(view, msgArticleFailed)
			return err
		}
		p.setHTML(view, p.articleBody(a))
		return nil
	}
}

func (p *Page) articleBody(a domain.Article) string {
	cat := NoCategory
	if a.Categorie != nil && *a.Categorie != "" {
		cat = *a.Categorie
	}
	var b strings.Builder
	b.WriteString(`<h1 class="text-4xl font-bold mb-4">` + html.EscapeString(a.Titre) + `</h1>`)
	b.WriteString(`<div class="text-sm text-gray-500 mb-6"><span class="font-semibold text-black">` +
		html.EscapeString(cat) + `</span><span class="mx-2">|</span><span>` + FrenchDate(a.Date.In(p.loc)) + `</span></div>`)
	if a.Image != nil && *a.Image != "" {
		b.WriteString(`<img src="` + html.EscapeString(*a.Image) + `" alt="` + html.EscapeString(a.Titre) + `" class="w-full rounded-xl mb-8">`)
	}
	for _, para := range strings.Split(a.Contenu, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			b.WriteString(`<p class="text-gray-700 mb-4">` + html.EscapeString(para) + `</p>`)
		}
	}
	return b.String()
}
