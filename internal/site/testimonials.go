package site

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"kemdeholo/internal/domain"
)

const (
	AvatarPlaceholder = "images/placeholder-avatar.png"

	msgTestimonialsLoad  = "Erreur de chargement des témoignages."
	msgNoTestimonials    = "Aucun témoignage pour le moment."
	msgSubmitFailed      = "Une erreur est survenue."
	msgNoTestimonialsFmt = `Aucun témoignage pour la catégorie "%s" pour le moment.`

	classFormOK  = "bg-green-100 text-green-800 p-3 rounded-md text-center font-bold"
	classFormErr = "bg-red-100 text-red-800 p-3 rounded-md text-center font-bold"
)

var errNoSliderMount = errors.New("testimonial slider content or nav mount missing")

func (p *Page) initTestimonials() func(context.Context) error {
	wrapper := p.byID("testimonial-slider-wrapper")
	if wrapper == nil {
		return nil
	}
	category := attrOr(wrapper, "data-category", "")

	return func(ctx context.Context) error {
		list, err := p.src.Testimonials(ctx, category)

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.setHTML(wrapper, `<p class="text-center text-yellow-400">`+msgTestimonialsLoad+`</p>`)
			RemoveClass(wrapper, "hidden")
			return err
		}
		if len(list) == 0 {
			msg := msgNoTestimonials
			if category != "" {
				msg = fmt.Sprintf(msgNoTestimonialsFmt, category)
			}
			p.setHTML(wrapper, `<p class="text-center text-white/70">`+html.EscapeString(msg)+`</p>`)
			RemoveClass(wrapper, "hidden")
			return nil
		}

		content := ByID(wrapper, "testimonial-slider-content")
		nav := ByID(wrapper, "testimonial-slider-nav")
		if content == nil || nav == nil {
			return errNoSliderMount
		}

		var items, thumbs strings.Builder
		for _, t := range list {
			items.WriteString(testimonialItem(t))
			thumbs.WriteString(`<div><img src="` + html.EscapeString(avatar(t)) + `" alt="` + html.EscapeString(t.Name) + `" class="author-image-nav"></div>`)
		}
		p.setHTML(content, items.String())
		p.setHTML(nav, thumbs.String())

		setSlick(content, SlickConfig{
			SlidesToShow: 3, SlidesToScroll: 1, AsNavFor: "#testimonial-slider-nav",
			Autoplay: true, AutoplaySpeed: ms(7000), PauseOnHover: true,
			Responsive: []Breakpoint{{Breakpoint: 768, Settings: SlickConfig{SlidesToShow: 1}}},
		})
		setSlick(nav, SlickConfig{
			SlidesToShow: min(5, len(list)), SlidesToScroll: 1, AsNavFor: "#testimonial-slider-content",
			CenterMode: true, FocusOnSelect: true,
		})
		RemoveClass(wrapper, "hidden")

		equalize := func() { p.equalizeHeights(content) }
		equalize()
		p.onResize = append(p.onResize, equalize)
		return nil
	}
}

func avatar(t domain.Testimonial) string {
	if t.Image != nil && *t.Image != "" {
		return *t.Image
	}
	return AvatarPlaceholder
}

func testimonialItem(t domain.Testimonial) string {
	var stars strings.Builder
	for i := 0; i < 5; i++ {
		color := "text-gray-600"
		if i < t.Rating {
			color = "text-yellow-400"
		}
		stars.WriteString(`<i class="fas fa-star ` + color + `"></i>`)
	}
	name := html.EscapeString(t.Name)
	return `<div class="testimonial-item">` +
		`<img src="` + html.EscapeString(avatar(t)) + `" alt="` + name + `" class="author-image">` +
		`<div class="testimonial-bubble"><p>"` + html.EscapeString(t.Quote) + `"</p></div>` +
		`<div class="testimonial-rating">` + stars.String() + `</div>` +
		`<span class="author-name">` + name + `</span>` +
		`</div>`
}

// equalizeHeights sizes every testimonial item to the tallest one.
func (p *Page) equalizeHeights(content *html.Node) {
	items := ByClass(content, "testimonial-item")
	tallest := 0
	for _, it := range items {
		SetStyle(it, "height", "auto")
		if h := p.measure.Height(it); h > tallest {
			tallest = h
		}
	}
	for _, it := range items {
		SetStyle(it, "height", strconv.Itoa(tallest)+"px")
	}
}

// initTestimonialForm binds the submission modal and its form.
func (p *Page) initTestimonialForm() func(context.Context) error {
	showBtn := p.byID("show-testimonial-form-btn")
	modal := p.byID("testimonial-modal")
	closeBtn := p.byID("close-testimonial-modal-btn")
	if showBtn != nil && modal != nil && closeBtn != nil {
		p.on(showBtn, "click", func(*event) {
			RemoveClass(modal, "hidden")
			AddClass(modal, "flex")
		})
		p.on(closeBtn, "click", func(*event) {
			AddClass(modal, "hidden")
			RemoveClass(modal, "flex")
		})
	}

	form := p.byID("public-testimonial-form")
	if form == nil {
		return nil
	}
	p.on(form, "submit", func(*event) {
		body := map[string]any{
			"name":     p.value(p.byID("public-testimonial-name")),
			"category": p.value(p.byID("public-testimonial-category")),
			"quote":    p.value(p.byID("public-testimonial-quote")),
		}
		if r := p.checkedIn(form, "rating"); r != nil {
			body["rating"] = attrOr(r, "value", "on")
		}
		status := p.byID("testimonial-form-message")

		p.spawn(func(ctx context.Context) {
			res, err := p.src.SubmitTestimonial(ctx, body)

			p.mu.Lock()
			defer p.mu.Unlock()
			if err == nil && res.OK() {
				p.showStatus(status, res.Message, classFormOK)
				p.resetForm(form)
				return
			}
			msg := msgSubmitFailed
			if err != nil {
				p.log.Error().Err(err).Msg("testimonial submission failed")
			} else if res.Error != "" {
				msg = res.Error
			}
			p.showStatus(status, "Erreur: "+msg, classFormErr)
		})
	})
	return nil
}

func (p *Page) showStatus(n *html.Node, text, classes string) {
	if n == nil {
		return
	}
	SetText(n, text)
	SetAttr(n, "class", classes)
	RemoveClass(n, "hidden")
}

