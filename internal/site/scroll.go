package site

import (
	"context"

	"golang.org/x/net/html"
)

const BackToTopThreshold = 300

func (p *Page) initBackToTop() func(context.Context) error {
	btn := p.byID("back-to-top")
	if btn == nil {
		return nil
	}
	p.onScroll = append(p.onScroll, func(y int) {
		ToggleClass(btn, "hidden", y <= BackToTopThreshold)
	})
	p.on(btn, "click", func(*event) { p.scrollTo(0, true) })
	return nil
}

// initPartners configures the continuous partner logo strip.
func (p *Page) initPartners() func(context.Context) error {
	for _, c := range ByClass(p.doc, "partner-carousel") {
		setSlick(c, SlickConfig{
			SlidesToShow: 4, SlidesToScroll: 1, Autoplay: true, AutoplaySpeed: ms(0),
			Speed: 5000, CSSEase: "linear", Infinite: true, PauseOnHover: true,
			Responsive: []Breakpoint{{Breakpoint: 768, Settings: SlickConfig{SlidesToShow: 2}}},
		})
	}
	return nil
}

func (p *Page) setStatusText(n *html.Node, text, classes string) {
	if n == nil {
		return
	}
	SetText(n, text)
	SetAttr(n, "class", classes)
}
