// Package site is a headless page runtime: it bootstraps one page document the
// way the site's pages behave in a browser (fragments, navigation, animators,
// data-bound feature blocks) and exposes the page's events as methods.
//
// Every DOM mutation happens under the page lock, so handlers, timers and
// network completions never interleave. Network calls run outside the lock.
package site

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"kemdeholo/internal/domain"
)

// DataSource is the page's view of the JSON endpoints.
type DataSource interface {
	Testimonials(ctx context.Context, category string) ([]domain.Testimonial, error)
	Rooms(ctx context.Context) ([]domain.Room, error)
	Articles(ctx context.Context) ([]domain.Article, error)
	Article(ctx context.Context, id int64) (domain.Article, error)
	SubmitTestimonial(ctx context.Context, body map[string]any) (domain.SubmitResult, error)
	SubmitReservation(ctx context.Context, fields map[string]string) (domain.SubmitResult, error)
	Subscribe(ctx context.Context, email string) (domain.SubmitResult, error)
}

// FragmentSource serves shared partials such as "_header.html".
type FragmentSource interface {
	Fragment(ctx context.Context, name string) (string, error)
}

// Measurer reports the rendered height of an element in pixels.
type Measurer interface {
	Height(n *html.Node) int
}

// SleepFunc waits for d; it returns false when ctx ended first.
type SleepFunc func(ctx context.Context, d time.Duration) bool

type Option func(*Page)

func WithLogger(l zerolog.Logger) Option { return func(p *Page) { p.log = l } }

func WithSignals(pub domain.SignalPublisher) Option { return func(p *Page) { p.signals = pub } }

func WithClock(now func() time.Time) Option { return func(p *Page) { p.now = now } }

func WithLocation(loc *time.Location) Option {
	return func(p *Page) {
		if loc != nil {
			p.loc = loc
		}
	}
}

func WithMeasurer(m Measurer) Option { return func(p *Page) { p.measure = m } }

// WithSleep replaces the timer used by staggered and frame-based animations.
func WithSleep(s SleepFunc) Option { return func(p *Page) { p.sleep = s } }

type handler func(ev *event)

type event struct {
	kind    string
	target  *html.Node
	current *html.Node
	key     string
	stopped bool
}

func (e *event) stopPropagation() { e.stopped = true }

type Page struct {
	mu  sync.Mutex
	wg  sync.WaitGroup
	ctx context.Context

	doc   *html.Node
	path  string
	query url.Values

	src     DataSource
	frags   FragmentSource
	signals domain.SignalPublisher
	measure Measurer
	now     func() time.Time
	loc     *time.Location
	sleep   SleepFunc
	log     zerolog.Logger

	handlers    map[*html.Node]map[string][]handler
	docHandlers map[string][]handler
	onScroll    []func(y int)
	onResize    []func()
	observers   []*observer

	values  map[*html.Node]string
	checked map[*html.Node]bool

	scrollY int
	smooth  bool
	focused *html.Node
	alerts  []string
}

// NewPage wraps a parsed document served at path ("/", "/chambres.html",
// "/blog-article.html?id=3").
func NewPage(doc *html.Node, path string, src DataSource, frags FragmentSource, opts ...Option) *Page {
	query := url.Values{}
	if u, err := url.Parse(path); err == nil {
		path, query = u.Path, u.Query()
	}
	p := &Page{
		ctx:         context.Background(),
		doc:         doc,
		path:        path,
		query:       query,
		src:         src,
		frags:       frags,
		measure:     TextMeasurer{},
		now:         time.Now,
		loc:         time.Local,
		sleep:       sleepCtx,
		log:         zerolog.Nop(),
		handlers:    map[*html.Node]map[string][]handler{},
		docHandlers: map[string][]handler{},
		values:      map[*html.Node]string{},
		checked:     map[*html.Node]bool{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// CurrentPage is the last path segment, or index.html for the site root.
func (p *Page) CurrentPage() string { return lastSegment(p.path) }

func lastSegment(href string) string {
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	if href == "" {
		return "index.html"
	}
	return href
}

func (p *Page) isIndex() bool { return p.CurrentPage() == "index.html" }

// ---- Inspection (all lock) ----

// Render writes the current document.
func (p *Page) Render(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return html.Render(w, p.doc)
}

// Do runs fn against the document under the page lock.
func (p *Page) Do(fn func(doc *html.Node)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}

// Wait blocks until every pending timer, animation and submission finished.
func (p *Page) Wait() { p.wg.Wait() }

func (p *Page) Alerts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.alerts...)
}

func (p *Page) Focused() *html.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

func (p *Page) ScrollY() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollY
}

// ScrolledSmoothly reports whether the last programmatic scroll asked for
// smooth behaviour.
func (p *Page) ScrolledSmoothly() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.smooth
}

// Value is the live value of a form control.
func (p *Page) Value(n *html.Node) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value(n)
}

// ---- Events ----

// Click dispatches a click on target, bubbling to the document.
func (p *Page) Click(target *html.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatch(&event{kind: "click", target: target})
}

// KeyDown dispatches a document-level key press.
func (p *Page) KeyDown(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatch(&event{kind: "keydown", target: body(p.doc), key: key})
}

// Scroll moves the viewport to y and notifies scroll listeners.
func (p *Page) Scroll(y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollTo(y, false)
}

func (p *Page) scrollTo(y int, smooth bool) {
	if y < 0 {
		y = 0
	}
	p.scrollY, p.smooth = y, smooth
	for _, fn := range p.onScroll {
		fn(y)
	}
}

func (p *Page) Resize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, fn := range p.onResize {
		fn()
	}
}

// SetValue changes a control's live value without firing events. A select
// only accepts the value of one of its options.
func (p *Page) SetValue(n *html.Node, v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setValue(n, v)
}

// Change sets the value of n and fires its change event.
func (p *Page) Change(n *html.Node, v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setValue(n, v)
	p.dispatch(&event{kind: "change", target: n})
}

// Check ticks a radio or checkbox; radios untick their group.
func (p *Page) Check(n *html.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if attrOr(n, "type", "") == "radio" {
		name := attrOr(n, "name", "")
		scope := closest(n, tag(atom.Form))
		if scope == nil {
			scope = p.doc
		}
		for _, r := range findAll(scope, and(tag(atom.Input), attrIs("type", "radio"), attrIs("name", name))) {
			p.checked[r] = false
		}
	}
	p.checked[n] = true
}

// Submit fires the submit event of form.
func (p *Page) Submit(form *html.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatch(&event{kind: "submit", target: form})
}

// ---- Internals (caller holds the lock) ----

func (p *Page) on(n *html.Node, kind string, h handler) {
	if n == nil {
		return
	}
	if p.handlers[n] == nil {
		p.handlers[n] = map[string][]handler{}
	}
	p.handlers[n][kind] = append(p.handlers[n][kind], h)
}

func (p *Page) onDocument(kind string, h handler) {
	p.docHandlers[kind] = append(p.docHandlers[kind], h)
}

func (p *Page) dispatch(ev *event) {
	for n := ev.target; n != nil && !ev.stopped; n = n.Parent {
		for _, h := range p.handlers[n][ev.kind] {
			ev.current = n
			h(ev)
		}
	}
	if ev.stopped {
		return
	}
	ev.current = nil
	for _, h := range p.docHandlers[ev.kind] {
		h(ev)
	}
}

// spawn runs fn in the background, tracked by Wait. fn takes the lock itself
// before touching the document.
func (p *Page) spawn(fn func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn(p.ctx)
	}()
}

func (p *Page) alert(msg string) {
	p.log.Info().Str("alert", msg).Msg("page alert")
	p.alerts = append(p.alerts, msg)
}

func (p *Page) focus(n *html.Node) {
	if n != nil {
		p.focused = n
	}
}

func (p *Page) byID(v string) *html.Node { return ByID(p.doc, v) }

func (p *Page) setHTML(n *html.Node, markup string) {
	if err := SetInnerHTML(n, markup); err != nil {
		p.log.Error().Err(err).Msg("render markup")
	}
}

// ---- Form controls ----

func (p *Page) value(n *html.Node) string {
	if n == nil {
		return ""
	}
	if v, ok := p.values[n]; ok {
		return v
	}
	switch n.DataAtom {
	case atom.Textarea:
		return Text(n)
	case atom.Select:
		opts := findAll(n, tag(atom.Option))
		for _, o := range opts {
			if _, sel := Attr(o, "selected"); sel {
				return optionValue(o)
			}
		}
		if len(opts) > 0 {
			return optionValue(opts[0])
		}
		return ""
	default:
		return attrOr(n, "value", "")
	}
}

func optionValue(o *html.Node) string {
	if v, ok := Attr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(Text(o))
}

func (p *Page) setValue(n *html.Node, v string) {
	if n == nil {
		return
	}
	if n.DataAtom == atom.Select {
		for _, o := range findAll(n, tag(atom.Option)) {
			if optionValue(o) == v {
				p.values[n] = v
				return
			}
		}
		p.values[n] = ""
		return
	}
	p.values[n] = v
}

func (p *Page) isChecked(n *html.Node) bool {
	if c, ok := p.checked[n]; ok {
		return c
	}
	_, ok := Attr(n, "checked")
	return ok
}

func (p *Page) checkedIn(scope *html.Node, name string) *html.Node {
	for _, r := range findAll(scope, and(tag(atom.Input), attrIs("name", name))) {
		if p.isChecked(r) {
			return r
		}
	}
	return nil
}

func formControls(form *html.Node) []*html.Node {
	return findAll(form, func(n *html.Node) bool {
		return isElement(n) && (n.DataAtom == atom.Input || n.DataAtom == atom.Select || n.DataAtom == atom.Textarea)
	})
}

// formData collects named, enabled controls the way a browser submits them.
func (p *Page) formData(form *html.Node) map[string]string {
	out := map[string]string{}
	for _, c := range formControls(form) {
		name, ok := Attr(c, "name")
		if !ok || name == "" {
			continue
		}
		if _, off := Attr(c, "disabled"); off {
			continue
		}
		switch attrOr(c, "type", "") {
		case "radio", "checkbox":
			if p.isChecked(c) {
				out[name] = attrOr(c, "value", "on")
			}
		case "submit", "button", "reset", "file":
		default:
			out[name] = p.value(c)
		}
	}
	return out
}

// resetForm drops live values so controls show their defaults again.
func (p *Page) resetForm(form *html.Node) {
	for _, c := range formControls(form) {
		delete(p.values, c)
		delete(p.checked, c)
	}
}
