package site

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"kemdeholo/internal/domain"
)

const (
	NewsCards        = 3
	NewsExcerptRunes = 120

	ImagePlaceholder = "images/placeholder-image.png"
	NoCategory       = "Non classé"

	msgNoNews     = `<p class="text-center text-gray-500 col-span-full">Aucune actualité pour le moment.</p>`
	msgNewsFailed = `<p class="text-center text-red-500 col-span-full">Impossible de charger les actualités.</p>`
)

var frMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FrenchDate formats t as "2 janvier 2025".
func FrenchDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + " " + frMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// Excerpt keeps the first NewsExcerptRunes characters and marks the cut.
func Excerpt(s string) string {
	r := []rune(s)
	if len(r) > NewsExcerptRunes {
		r = r[:NewsExcerptRunes]
	}
	return string(r) + "..."
}

func (p *Page) initNews() func(context.Context) error {
	grid := p.byID("actualites-grid")
	if grid == nil || p.byID("actualites-section") == nil {
		return nil
	}
	return func(ctx context.Context) error {
		articles, err := p.src.Articles(ctx)

		p.mu.Lock()
		defer p.mu.Unlock()
		switch {
		case err != nil:
			p.setHTML(grid, msgNewsFailed)
			return err
		case len(articles) == 0:
			p.setHTML(grid, msgNoNews)
			return nil
		}
		if len(articles) > NewsCards {
			articles = articles[:NewsCards]
		}
		var b strings.Builder
		for _, a := range articles {
			b.WriteString(p.newsCard(a))
		}
		p.setHTML(grid, b.String())
		return nil
	}
}

func (p *Page) newsCard(a domain.Article) string {
	href := "blog-article.html?id=" + strconv.FormatInt(a.ID, 10)
	img := ImagePlaceholder
	if a.Image != nil && *a.Image != "" {
		img = *a.Image
	}
	cat := NoCategory
	if a.Categorie != nil && *a.Categorie != "" {
		cat = *a.Categorie
	}
	title := html.EscapeString(a.Titre)

	return `<div class="bg-white rounded-xl shadow-md overflow-hidden flex flex-col group transition-all duration-300 hover:shadow-2xl hover:-translate-y-1">` +
		`<div class="overflow-hidden"><a href="` + href + `" class="block">` +
		`<img src="` + html.EscapeString(img) + `" alt="` + title + `" class="w-full h-56 object-cover transform group-hover:scale-105 transition-transform duration-300">` +
		`</a></div>` +
		`<div class="p-6 flex flex-col flex-grow">` +
		`<div class="text-sm text-gray-500 mb-2">` +
		`<span class="font-semibold text-black">` + html.EscapeString(cat) + `</span>` +
		`<span class="mx-2">|</span>` +
		`<span>` + FrenchDate(a.Date.In(p.loc)) + `</span>` +
		`</div>` +
		`<h3 class="text-xl font-bold text-black mb-3 flex-grow hover:text-gray-700 transition-colors"><a href="` + href + `">` + title + `</a></h3>` +
		`<p class="text-gray-600 text-sm mb-6">` + html.EscapeString(Excerpt(a.Contenu)) + `</p>` +
		`<a href="` + href + `" class="mt-auto text-white bg-primary-blue hover:bg-blue-800 font-bold py-2 px-4 rounded-full self-start transition-colors duration-300" aria-label="Lire la suite de l&#39;article ` + title + `">Lire la suite</a>` +
		`</div></div>`
}
