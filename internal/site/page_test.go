package site_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"kemdeholo/internal/site"
)

func TestBootstrap_AllRegionsLoad(t *testing.T) {
	f := newFixture(t, "/", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))

	f.read(func(doc *html.Node) {
		require.NotNil(t, site.ByID(doc, "main-header"))
		require.Nil(t, site.ByID(doc, "header-placeholder"))
		require.True(t, site.HasClass(site.ByID(doc, "loader-container"), "loader-hidden"))

		footers := site.ByClass(doc, "main-footer")
		require.Len(t, footers, 1)
		require.Equal(t, "footer", footers[0].Data)
	})
}

func TestBootstrap_FragmentsSettleIndependently(t *testing.T) {
	frags := okFrags()
	frags.errs = map[string]error{site.HeaderFragment: errors.New("failed to load component: _header.html")}
	f := newFixture(t, "/", &fakeSource{}, frags, nil)

	err := f.page.Bootstrap(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "components")

	f.read(func(doc *html.Node) {
		ph := site.ByID(doc, "header-placeholder")
		require.NotNil(t, ph)
		msg := site.ByClass(ph, "text-red-500")
		require.Len(t, msg, 1)
		require.Equal(t, "failed to load component: _header.html", site.Text(msg[0]))
		require.Nil(t, site.ByID(doc, "main-header"))

		// the footer still landed
		require.Len(t, site.ByClass(doc, "main-footer"), 1)
		require.Nil(t, site.ByID(doc, "main-footer"))
	})
}

func TestBootstrap_FragmentWithoutElementIsAnError(t *testing.T) {
	frags := okFrags()
	frags.files[site.FooterFragment] = "just text"
	f := newFixture(t, "/", &fakeSource{}, frags, nil)

	require.Error(t, f.page.Bootstrap(context.Background()))
	f.read(func(doc *html.Node) {
		ph := site.ByID(doc, "main-footer")
		require.NotNil(t, ph)
		require.Len(t, site.ByClass(ph, "text-red-500"), 1)
		require.NotNil(t, site.ByID(doc, "main-header"))
	})
}

func TestNavigation_ActiveLinks(t *testing.T) {
	f := newFixture(t, "/chambres.html", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))

	desktop := f.el(t, "desktop-menu-links")
	f.read(func(*html.Node) {
		got := map[string]bool{}
		for _, a := range linksOf(desktop) {
			href, _ := site.Attr(a, "href")
			got[href] = site.HasClass(a, "font-semibold") && site.HasClass(a, "text-secondary-red")
		}
		require.Equal(t, map[string]bool{
			"index.html":     false,
			"/chambres.html": true,
			"contact.html":   false,
		}, got)
	})
}

func TestNavigation_RootPathHighlightsIndex(t *testing.T) {
	f := newFixture(t, "/", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))
	require.Equal(t, "index.html", f.page.CurrentPage())

	desktop := f.el(t, "desktop-menu-links")
	f.read(func(*html.Node) {
		links := linksOf(desktop)
		require.True(t, site.HasClass(links[0], "text-secondary-red"))
		require.False(t, site.HasClass(links[1], "text-secondary-red"))
	})
}

func TestNavigation_MobileCloneOnce(t *testing.T) {
	f := newFixture(t, "/contact.html", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))

	cloned := f.el(t, "mobile-cloned-links")
	f.read(func(*html.Node) {
		require.ElementsMatch(t, []string{"flex", "flex-col", "space-y-2"}, site.Classes(cloned))
		for _, a := range linksOf(cloned) {
			role, _ := site.Attr(a, "role")
			require.Equal(t, "menuitem", role)
			for _, c := range []string{"py-2", "px-2", "text-white", "block"} {
				require.True(t, site.HasClass(a, c), c)
			}
		}
	})

	// an already-filled menu is left alone
	frags := okFrags()
	frags.files[site.HeaderFragment] = `<header id="main-header"><ul id="desktop-menu-links"><li><a href="index.html">A</a></li></ul>` +
		`<button id="menuBtn"></button><div id="mobileMenu" class="hidden"><a href="x.html">X</a></div></header>`
	g := newFixture(t, "/contact.html", &fakeSource{}, frags, nil)
	require.NoError(t, g.page.Bootstrap(context.Background()))
	g.read(func(doc *html.Node) { require.Nil(t, site.ByID(doc, "mobile-cloned-links")) })
}

func TestNavigation_MenuStateStaysInSync(t *testing.T) {
	f := newFixture(t, "/", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))

	btn := f.el(t, "menuBtn")
	menu := f.el(t, "mobileMenu")
	outside := f.el(t, "first")
	insideHeader := f.el(t, "desktop-menu-links")

	check := func(wantOpen bool) {
		t.Helper()
		f.read(func(doc *html.Node) {
			expanded, _ := site.Attr(btn, "aria-expanded")
			require.Equal(t, strconv.FormatBool(!site.HasClass(menu, "hidden")), expanded)
			require.Equal(t, wantOpen, site.MenuOpen(doc))
			require.Equal(t, wantOpen, site.HasClass(bodyOf(doc), "no-scroll"))
		})
	}
	controls, _ := site.Attr(btn, "aria-controls")
	require.Equal(t, "mobileMenu", controls)
	check(false)

	f.page.Click(btn)
	check(true)
	require.Equal(t, "a", f.page.Focused().Data)

	f.page.Click(insideHeader)
	check(true)

	f.page.Click(linksOf(f.el(t, "mobile-cloned-links"))[1])
	check(false)

	f.page.Click(btn)
	f.page.Click(outside)
	check(false)

	f.page.Click(btn)
	f.page.KeyDown("Enter")
	check(true)
	f.page.KeyDown("Esc")
	check(false)
	require.Same(t, btn, f.page.Focused())

	f.page.Click(btn)
	f.page.Click(btn)
	check(false)
	require.Same(t, btn, f.page.Focused())
}

func TestNavigation_IndexHeroAndScroll(t *testing.T) {
	f := newFixture(t, "/index.html", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))

	header := f.el(t, "main-header")
	hero := f.el(t, "hero-container")
	f.read(func(*html.Node) {
		require.Len(t, site.ByClass(hero, "hero-slide"), 5)
		slider := site.ByClass(hero, "hero-slider")[0]
		cfg, ok := site.SlickOf(slider)
		require.True(t, ok)
		require.True(t, cfg.Fade)
		require.Equal(t, 7000, *cfg.AutoplaySpeed)
		require.False(t, site.HasClass(header, "scrolled"))
	})

	f.page.Scroll(51)
	f.read(func(*html.Node) { require.True(t, site.HasClass(header, "scrolled")) })
	f.page.Scroll(50)
	f.read(func(*html.Node) { require.False(t, site.HasClass(header, "scrolled")) })
}

func TestNavigation_InnerPagePadding(t *testing.T) {
	f := newFixture(t, "/blog.html", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))

	header := f.el(t, "main-header")
	first := f.el(t, "first")
	hero := f.el(t, "hero-container")
	f.read(func(*html.Node) {
		require.True(t, site.HasClass(header, "scrolled"))
		require.Equal(t, strconv.Itoa(len(site.Text(header)))+"px", site.Style(first, "padding-top"))
		require.Nil(t, hero.FirstChild)
	})

	// a hero section keeps its own spacing
	g := newFixture(t, "/blog.html", &fakeSource{}, okFrags(), func(doc *html.Node) {
		site.AddClass(site.ByID(doc, "first"), "hero-section")
	})
	require.NoError(t, g.page.Bootstrap(context.Background()))
	first = g.el(t, "first")
	g.read(func(*html.Node) { require.Empty(t, site.Style(first, "padding-top")) })
}

func TestAnimators_RevealOnce(t *testing.T) {
	f := newFixture(t, "/", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))
	reveal := f.el(t, "reveal")

	f.page.Intersect(site.Entry{Target: reveal, Ratio: 0.05})
	require.True(t, f.page.Observed(reveal))

	f.page.Intersect(site.Entry{Target: reveal, Ratio: 0.1})
	f.read(func(*html.Node) {
		require.Equal(t, "1", site.Style(reveal, "opacity"))
		require.Equal(t, "translateY(0)", site.Style(reveal, "transform"))
	})
	require.False(t, f.page.Observed(reveal))
}

func TestAnimators_CounterEndsOnTarget(t *testing.T) {
	f := newFixture(t, "/", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))
	c1, c2 := f.el(t, "c1"), f.el(t, "c2")

	// 0.4 is under the counter threshold
	f.page.Intersect(site.Entry{Target: c1, Ratio: 0.4}, site.Entry{Target: c2, Ratio: 0.4})
	f.page.Wait()
	require.Zero(t, f.sleeps.count(site.CounterFrame))

	f.page.Intersect(site.Entry{Target: c1, Ratio: 0.6}, site.Entry{Target: c2, Ratio: 1})
	f.page.Wait()

	require.Equal(t, 120, site.CounterFrames)
	require.Equal(t, 2*site.CounterFrames, f.sleeps.count(site.CounterFrame))
	f.read(func(*html.Node) {
		require.Equal(t, "150+", site.Text(c1))
		require.Equal(t, "37", site.Text(c2))
	})

	// fired once: further intersections change nothing
	f.page.Intersect(site.Entry{Target: c1, Ratio: 1})
	f.page.Wait()
	require.Equal(t, 2*site.CounterFrames, f.sleeps.count(site.CounterFrame))
}

func TestAnimators_CardsStaggerByBatchIndex(t *testing.T) {
	f := newFixture(t, "/", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))
	c0, c1, c2 := f.el(t, "card0"), f.el(t, "card1"), f.el(t, "card2")

	f.page.Intersect(
		site.Entry{Target: c0, Ratio: 0.2},
		site.Entry{Target: c1, Ratio: 0.05},
		site.Entry{Target: c2, Ratio: 0.5},
	)
	f.page.Wait()

	require.Equal(t, 1, f.sleeps.count(0))
	require.Equal(t, 1, f.sleeps.count(2*site.CardStagger))
	f.read(func(*html.Node) {
		require.True(t, site.HasClass(c0, "visible"))
		require.False(t, site.HasClass(c1, "visible"))
		require.True(t, site.HasClass(c2, "visible"))
	})
	require.True(t, f.page.Observed(c1))
}

func TestBackToTop(t *testing.T) {
	f := newFixture(t, "/", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))
	btn := f.el(t, "back-to-top")

	f.page.Scroll(300)
	f.read(func(*html.Node) { require.True(t, site.HasClass(btn, "hidden")) })
	f.page.Scroll(301)
	f.read(func(*html.Node) { require.False(t, site.HasClass(btn, "hidden")) })

	f.page.Click(btn)
	require.Zero(t, f.page.ScrollY())
	require.True(t, f.page.ScrolledSmoothly())
	f.read(func(*html.Node) { require.True(t, site.HasClass(btn, "hidden")) })
}

func TestPartnerCarousel(t *testing.T) {
	f := newFixture(t, "/", &fakeSource{}, okFrags(), nil)
	require.NoError(t, f.page.Bootstrap(context.Background()))
	f.read(func(doc *html.Node) {
		cfg, ok := site.SlickOf(site.ByClass(doc, "partner-carousel")[0])
		require.True(t, ok)
		require.Equal(t, 4, cfg.SlidesToShow)
		require.Equal(t, 0, *cfg.AutoplaySpeed)
		require.Equal(t, 2, cfg.Responsive[0].Settings.SlidesToShow)
	})
}

func linksOf(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "a" {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func bodyOf(doc *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
