package site_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"kemdeholo/internal/domain"
	"kemdeholo/internal/site"
)

const headerHTML = `<header id="main-header" class="fixed w-full">
<nav>
<ul id="desktop-menu-links" class="hidden md:flex space-x-6">
<li><a href="index.html">Accueil</a></li>
<li><a href="/chambres.html">Chambres</a></li>
<li><a href="contact.html">Contact</a></li>
</ul>
<button id="menuBtn" aria-expanded="false">Menu</button>
</nav>
<div id="mobileMenu" class="hidden"></div>
</header>`

const footerHTML = `<footer class="bg-black"><p>KemdeHolo</p></footer>`

const pageHTML = `<!DOCTYPE html>
<html lang="fr"><head><title>KemdeHolo</title></head>
<body>
<div id="loader-container"></div>
<div id="header-placeholder"></div>
<section id="first"><div id="hero-container"></div></section>
<div class="scroll-reveal" id="reveal" style="opacity: 0; transform: translateY(40px);"></div>
<span class="counter" id="c1" data-target="150">0+</span>
<span class="counter" id="c2" data-target="37">0</span>
<div class="service-card-animated" id="card0"></div>
<div class="service-card-animated" id="card1"></div>
<div class="service-card-animated" id="card2"></div>
<section id="temoignages">
<div id="testimonial-slider-wrapper" class="hidden">
<div id="testimonial-slider-content"></div>
<div id="testimonial-slider-nav"></div>
</div>
</section>
<button id="show-testimonial-form-btn">Laisser un avis</button>
<div id="testimonial-modal" class="hidden">
<button id="close-testimonial-modal-btn">x</button>
<form id="public-testimonial-form">
<input id="public-testimonial-name" name="name">
<select id="public-testimonial-category" name="category"><option value="Séjour">Séjour</option><option value="Restaurant">Restaurant</option></select>
<textarea id="public-testimonial-quote" name="quote"></textarea>
<input type="radio" name="rating" value="4" id="r4">
<input type="radio" name="rating" value="5" id="r5">
</form>
<div id="testimonial-form-message" class="hidden"></div>
</div>
<button class="btn-book-room" data-room-type="Suite" id="book-suite"><span id="book-suite-label">Réserver</span></button>
<div id="reservation-modal" class="hidden">
<button id="close-reservation-modal-btn">x</button>
<form id="reservation-form">
<input id="res-name" name="name">
<input id="res-email" name="email" type="email">
<select id="room-type-select" name="room_type"></select>
<input type="date" id="arrival-date" name="arrival_date">
<input type="date" id="departure-date" name="departure_date">
<button type="submit" name="go">Envoyer</button>
</form>
</div>
<section id="actualites-section"><div id="actualites-grid"></div></section>
<form id="newsletter-form"><input id="newsletter-email" name="email"></form>
<p id="newsletter-message"></p>
<div class="partner-carousel"></div>
<button id="back-to-top" class="hidden">haut</button>
<footer id="main-footer"></footer>
</body></html>`

var today = time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu sync.Mutex

	testimonials    []domain.Testimonial
	testimonialsErr error
	gotCategory     string

	rooms    []domain.Room
	roomsErr error

	articles    []domain.Article
	articlesErr error

	submitRes domain.SubmitResult
	submitErr error

	testimonialBodies []map[string]any
	reservations      []map[string]string
	subscribed        []string
}

func (f *fakeSource) Testimonials(_ context.Context, category string) ([]domain.Testimonial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotCategory = category
	return f.testimonials, f.testimonialsErr
}

func (f *fakeSource) Rooms(context.Context) ([]domain.Room, error) { return f.rooms, f.roomsErr }

func (f *fakeSource) Articles(context.Context) ([]domain.Article, error) {
	return f.articles, f.articlesErr
}

func (f *fakeSource) Article(_ context.Context, id int64) (domain.Article, error) {
	for _, a := range f.articles {
		if a.ID == id {
			return a, nil
		}
	}
	if f.articlesErr != nil {
		return domain.Article{}, f.articlesErr
	}
	return domain.Article{}, domain.ErrNotFound
}

func (f *fakeSource) SubmitTestimonial(_ context.Context, body map[string]any) (domain.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.testimonialBodies = append(f.testimonialBodies, body)
	return f.submitRes, f.submitErr
}

func (f *fakeSource) SubmitReservation(_ context.Context, fields map[string]string) (domain.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations = append(f.reservations, fields)
	return f.submitRes, f.submitErr
}

func (f *fakeSource) Subscribe(_ context.Context, email string) (domain.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, email)
	return f.submitRes, f.submitErr
}

type fakeFrags struct {
	files map[string]string
	errs  map[string]error
}

func (f fakeFrags) Fragment(_ context.Context, name string) (string, error) {
	if err := f.errs[name]; err != nil {
		return "", err
	}
	s, ok := f.files[name]
	if !ok {
		return "", errors.New("failed to load component: " + name)
	}
	return s, nil
}

func okFrags() fakeFrags {
	return fakeFrags{files: map[string]string{
		site.HeaderFragment: headerHTML,
		site.FooterFragment: footerHTML,
	}}
}

type fakeSignals struct {
	mu   sync.Mutex
	sent []domain.Signal
}

func (f *fakeSignals) Publish(_ context.Context, s domain.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
	return nil
}

// sleepRecorder returns immediately and keeps every requested duration.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) bool {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err() == nil
}

func (s *sleepRecorder) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.waits {
		if w == d {
			n++
		}
	}
	return n
}

// textLen measures an element by its text length.
type textLen struct{}

func (textLen) Height(n *html.Node) int { return len(site.Text(n)) }

type fixture struct {
	page    *site.Page
	src     *fakeSource
	signals *fakeSignals
	sleeps  *sleepRecorder
}

func newFixture(t *testing.T, path string, src *fakeSource, frags site.FragmentSource, edit func(doc *html.Node)) *fixture {
	t.Helper()
	doc, err := site.Parse(strings.NewReader(pageHTML))
	require.NoError(t, err)
	if edit != nil {
		edit(doc)
	}
	f := &fixture{src: src, signals: &fakeSignals{}, sleeps: &sleepRecorder{}}
	f.page = site.NewPage(doc, path, src, frags,
		site.WithClock(func() time.Time { return today }),
		site.WithLocation(time.UTC),
		site.WithSignals(f.signals),
		site.WithSleep(f.sleeps.sleep),
		site.WithMeasurer(textLen{}),
	)
	return f
}

func (f *fixture) el(t *testing.T, id string) *html.Node {
	t.Helper()
	var n *html.Node
	f.page.Do(func(doc *html.Node) { n = site.ByID(doc, id) })
	require.NotNil(t, n, "element #%s", id)
	return n
}

func (f *fixture) read(fn func(doc *html.Node)) { f.page.Do(fn) }

func ptr[T any](v T) *T { return &v }
