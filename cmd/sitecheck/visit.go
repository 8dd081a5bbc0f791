package main

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"kemdeholo/internal/adapters/siteapi"
	"kemdeholo/internal/app"
	"kemdeholo/internal/site"
)

// report is what one synthetic visit saw.
type report struct {
	Path      string
	Header    bool
	Scrolled  bool
	BackToTop bool
	Errors    []string // error placeholders left on the page
	Counters  int      // counters that finished on their target
}

// noWait fast-forwards timers so animations settle immediately.
func noWait(ctx context.Context, _ time.Duration) bool { return ctx.Err() == nil }

// visit loads one page from the site, bootstraps it headlessly against the
// site's own API, brings every animated element into view and scrolls past
// both scroll thresholds.
func visit(ctx context.Context, c *siteapi.Client, path string, loc *time.Location, l zerolog.Logger) (report, error) {
	rep := report{Path: path}
	body, err := c.Page(ctx, path)
	if err != nil {
		return rep, err
	}
	doc, err := site.Parse(bytes.NewReader(body))
	if err != nil {
		return rep, err
	}

	// The page's own loads are single-shot, like a browser's.
	once := c.Once()
	p := site.NewPage(doc, "/"+strings.TrimPrefix(path, "/"), once, once,
		site.WithLocation(loc),
		site.WithLogger(l),
		site.WithSignals(app.NewLocalBus()),
		site.WithSleep(noWait),
	)
	bootErr := p.Bootstrap(ctx)

	var entries []site.Entry
	p.Do(func(doc *html.Node) {
		for _, cls := range []string{"scroll-reveal", "service-card-animated", "counter"} {
			for _, n := range site.ByClass(doc, cls) {
				entries = append(entries, site.Entry{Target: n, Ratio: 1})
			}
		}
	})
	p.Intersect(entries...)
	p.Scroll(site.ScrolledThreshold + 1)
	p.Scroll(site.BackToTopThreshold + 1)
	p.Wait()

	p.Do(func(doc *html.Node) {
		if h := site.ByID(doc, "main-header"); h != nil {
			rep.Header = true
			rep.Scrolled = site.HasClass(h, "scrolled")
		}
		if b := site.ByID(doc, "back-to-top"); b != nil {
			rep.BackToTop = !site.HasClass(b, "hidden")
		}
		for _, n := range site.ByClass(doc, "text-red-500") {
			if t := strings.TrimSpace(site.Text(n)); t != "" {
				rep.Errors = append(rep.Errors, t)
			}
		}
		for _, n := range site.ByClass(doc, "counter") {
			target, _ := site.Attr(n, "data-target")
			if strings.TrimSuffix(site.Text(n), "+") == target {
				rep.Counters++
			}
		}
	})
	return rep, bootErr
}
