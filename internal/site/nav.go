package site

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const ScrolledThreshold = 50

// heroSlides are the background images of the home page slider.
var heroSlides = []string{
	"https://images.pexels.com/photos/262978/pexels-photo-262978.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
	"https://images.pexels.com/photos/1579253/pexels-photo-1579253.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
	"https://images.pexels.com/photos/271624/pexels-photo-271624.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
	"https://images.pexels.com/photos/3225528/pexels-photo-3225528.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
	"https://images.pexels.com/photos/1449775/pexels-photo-1449775.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
}

// SlickConfig is the carousel configuration written to data-slick.
type SlickConfig struct {
	SlidesToShow   int          `json:"slidesToShow,omitempty"`
	SlidesToScroll int          `json:"slidesToScroll,omitempty"`
	Dots           bool         `json:"dots"`
	Arrows         bool         `json:"arrows"`
	Infinite       bool         `json:"infinite,omitempty"`
	Fade           bool         `json:"fade,omitempty"`
	Speed          int          `json:"speed,omitempty"`
	Autoplay       bool         `json:"autoplay,omitempty"`
	AutoplaySpeed  *int         `json:"autoplaySpeed,omitempty"`
	CSSEase        string       `json:"cssEase,omitempty"`
	PauseOnHover   bool         `json:"pauseOnHover,omitempty"`
	AsNavFor       string       `json:"asNavFor,omitempty"`
	CenterMode     bool         `json:"centerMode,omitempty"`
	FocusOnSelect  bool         `json:"focusOnSelect,omitempty"`
	Responsive     []Breakpoint `json:"responsive,omitempty"`
}

type Breakpoint struct {
	Breakpoint int         `json:"breakpoint"`
	Settings   SlickConfig `json:"settings"`
}

func ms(v int) *int { return &v }

// SlickOf decodes the data-slick attribute of n.
func SlickOf(n *html.Node) (SlickConfig, bool) {
	raw, ok := Attr(n, "data-slick")
	if !ok {
		return SlickConfig{}, false
	}
	var c SlickConfig
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return SlickConfig{}, false
	}
	return c, true
}

func setSlick(n *html.Node, c SlickConfig) {
	b, _ := json.Marshal(c)
	SetAttr(n, "data-slick", string(b))
}

// initNavigation wires the injected header. It is the single owner of the
// mobile menu handlers.
func (p *Page) initNavigation(header *html.Node) {
	current := p.CurrentPage()
	for _, a := range findAll(header, tag(atom.A)) {
		if lastSegment(attrOr(a, "href", "")) == current {
			AddClass(a, "font-semibold", "text-secondary-red")
		}
	}

	btn := ByID(header, "menuBtn")
	menu := ByID(header, "mobileMenu")
	p.cloneMobileLinks(header, menu)
	if btn != nil && menu != nil {
		p.bindMobileMenu(header, btn, menu)
	}

	if p.isIndex() {
		p.injectHero()
		p.onScroll = append(p.onScroll, func(y int) {
			ToggleClass(header, "scrolled", y > ScrolledThreshold)
		})
		ToggleClass(header, "scrolled", p.scrollY > ScrolledThreshold)
		return
	}

	if main := firstMainRegion(p.doc); main != nil && !HasClass(main, "hero-section") {
		SetStyle(main, "padding-top", strconv.Itoa(p.measure.Height(header))+"px")
	}
	AddClass(header, "scrolled")
}

func (p *Page) cloneMobileLinks(header, menu *html.Node) {
	desktop := ByID(header, "desktop-menu-links")
	if desktop == nil || menu == nil || firstElementChild(menu) != nil {
		return
	}
	cloned := cloneDeep(desktop)
	SetAttr(cloned, "id", "mobile-cloned-links")
	RemoveClass(cloned, "hidden", "md:flex", "space-x-6")
	AddClass(cloned, "flex", "flex-col", "space-y-2")
	for _, a := range findAll(cloned, tag(atom.A)) {
		AddClass(a, "py-2", "px-2", "text-white", "block")
		SetAttr(a, "role", "menuitem")
	}
	menu.AppendChild(cloned)
}

// MenuOpen reports the mobile menu state as rendered.
func MenuOpen(doc *html.Node) bool {
	menu := ByID(doc, "mobileMenu")
	return menu != nil && !HasClass(menu, "hidden")
}

func (p *Page) bindMobileMenu(header, btn, menu *html.Node) {
	bdy := body(p.doc)
	setOpen := func(open bool) {
		ToggleClass(menu, "hidden", !open)
		SetAttr(btn, "aria-expanded", strconv.FormatBool(open))
		if bdy != nil {
			ToggleClass(bdy, "no-scroll", open)
		}
	}
	isOpen := func() bool { return !HasClass(menu, "hidden") }

	SetAttr(btn, "aria-expanded", strconv.FormatBool(isOpen()))
	SetAttr(btn, "aria-controls", "mobileMenu")

	p.on(btn, "click", func(ev *event) {
		ev.stopPropagation()
		open := !isOpen()
		setOpen(open)
		if open {
			p.focus(find(menu, focusable))
		} else {
			p.focus(btn)
		}
	})
	p.on(menu, "click", func(ev *event) {
		if a := closest(ev.target, tag(atom.A)); a != nil && contains(menu, a) {
			setOpen(false)
		}
	})
	p.onDocument("click", func(ev *event) {
		if isOpen() && !contains(header, ev.target) {
			setOpen(false)
		}
	})
	p.onDocument("keydown", func(ev *event) {
		if (ev.key == "Escape" || ev.key == "Esc") && isOpen() {
			setOpen(false)
			p.focus(btn)
		}
	})
}

// focusable matches a, button, and [tabindex]:not([tabindex="-1"]).
func focusable(n *html.Node) bool {
	if !isElement(n) {
		return false
	}
	if n.DataAtom == atom.A || n.DataAtom == atom.Button {
		return true
	}
	ti, ok := Attr(n, "tabindex")
	return ok && ti != "-1"
}

// firstMainRegion is the first direct section or main child of body.
func firstMainRegion(doc *html.Node) *html.Node {
	bdy := body(doc)
	if bdy == nil {
		return nil
	}
	for _, c := range elementChildren(bdy) {
		if c.DataAtom == atom.Section || c.DataAtom == atom.Main {
			return c
		}
	}
	return nil
}

func (p *Page) injectHero() {
	hero := p.byID("hero-container")
	if hero == nil {
		return
	}
	var b strings.Builder
	b.WriteString(`<div class="hero-slider">`)
	for _, src := range heroSlides {
		b.WriteString(`<div class="hero-slide" style="background-image: url('` + html.EscapeString(src) + `');"></div>`)
	}
	b.WriteString(`</div>
<div class="hero-content absolute inset-0 flex flex-col items-center justify-center text-center p-4">
<h1 class="text-5xl md:text-6xl font-bold mb-6" data-translate-key="home_hero_title">Bienvenue chez KemdeHolo</h1>
<p class="text-xl mb-8 text-white" data-translate-key="home_hero_subtitle">Découvrez l&#39;authenticité de l&#39;hospitalité sahélienne</p>
<a href="contact.html" class="btn-primary" data-translate-key="home_hero_button">Nous contacter</a>
</div>`)
	p.setHTML(hero, b.String())
	if slider := find(hero, class("hero-slider")); slider != nil {
		setSlick(slider, SlickConfig{
			Dots: true, Infinite: true, Speed: 1000, Fade: true,
			Autoplay: true, AutoplaySpeed: ms(7000), CSSEase: "linear",
		})
	}
}
