package site

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

const (
	HeaderFragment = "_header.html"
	FooterFragment = "_footer.html"
)

type task struct {
	name string
	run  func(ctx context.Context) error
}

// Bootstrap runs the once-per-load sequence: animators are bound, then the
// shared fragments and every feature block initialise as independent tasks.
// It returns once all of them settled; the first failure is returned, and
// each failure has already been rendered inside its own region and logged.
// Timers started by later events keep running until Wait.
func (p *Page) Bootstrap(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	p.bindAnimators()

	// Mount points are resolved now, before any fragment lands.
	tasks := []task{{name: "components", run: p.loadComponents()}}
	for _, f := range []struct {
		name string
		init func() func(context.Context) error
	}{
		{"testimonials", p.initTestimonials},
		{"testimonial-form", p.initTestimonialForm},
		{"reservations", p.initReservations},
		{"news", p.initNews},
		{"article", p.initArticle},
		{"newsletter", p.initNewsletter},
		{"partners", p.initPartners},
		{"back-to-top", p.initBackToTop},
	} {
		if run := f.init(); run != nil {
			tasks = append(tasks, task{name: f.name, run: run})
		}
	}
	p.mu.Unlock()

	var g errgroup.Group
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := t.run(ctx); err != nil {
				p.log.Error().Err(err).Str("feature", t.name).Str("page", p.path).Msg("page feature failed")
				return fmt.Errorf("%s: %w", t.name, err)
			}
			return nil
		})
	}
	err := g.Wait()

	p.mu.Lock()
	if lc := p.byID("loader-container"); lc != nil {
		AddClass(lc, "loader-hidden")
	}
	p.mu.Unlock()
	return err
}

// ---- Component loader ----

// loadComponents fetches header and footer concurrently. Each fragment
// settles on its own: a failure is rendered in its placeholder and never
// discards the other one.
func (p *Page) loadComponents() func(context.Context) error {
	type slot struct {
		name        string
		placeholder *html.Node
		markup      string
		err         error
	}
	header := &slot{name: HeaderFragment, placeholder: p.byID("header-placeholder")}
	footer := &slot{name: FooterFragment, placeholder: find(p.doc, and(tag(atom.Footer), idIs("main-footer")))}

	return func(ctx context.Context) error {
		var wg sync.WaitGroup
		for _, s := range []*slot{header, footer} {
			s := s
			if s.placeholder == nil || p.frags == nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.markup, s.err = p.frags.Fragment(ctx, s.name)
			}()
		}
		wg.Wait()

		p.mu.Lock()
		defer p.mu.Unlock()

		var errs []error
		for _, s := range []*slot{header, footer} {
			if s.placeholder == nil || p.frags == nil {
				continue
			}
			el, err := p.spliceFragment(s.placeholder, s.markup, s.err)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if s == footer {
				AddClass(el, "main-footer")
			}
		}

		if mh := p.byID("main-header"); mh != nil {
			p.initNavigation(mh)
		}
		return errors.Join(errs...)
	}
}

// spliceFragment swaps placeholder for the first element of markup. On failure
// the placeholder stays and shows the error.
func (p *Page) spliceFragment(placeholder *html.Node, markup string, fetchErr error) (*html.Node, error) {
	err := fetchErr
	var el *html.Node
	if err == nil {
		var nodes []*html.Node
		nodes, err = parseFragment(markup, body(p.doc))
		for _, n := range nodes {
			if isElement(n) {
				el = n
				break
			}
		}
		if err == nil && el == nil {
			err = errors.New("fragment has no element")
		}
	}
	if err != nil {
		p.log.Error().Err(err).Msg("component load failed")
		p.setHTML(placeholder, `<p class="text-center text-red-500">`+html.EscapeString(err.Error())+`</p>`)
		return nil, err
	}
	replaceWith(placeholder, detach(el))
	return el, nil
}

// ---- Measurement ----

// TextMeasurer estimates heights from text length: 24px lines of about
// 48 characters, plus 32px of padding.
type TextMeasurer struct{}

func (TextMeasurer) Height(n *html.Node) int {
	runes := utf8.RuneCountInString(Text(n))
	lines := 1 + runes/48
	return 32 + 24*lines
}
