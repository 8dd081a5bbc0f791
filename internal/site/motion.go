package site

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	RevealThreshold  = 0.1
	CardThreshold    = 0.1
	CounterThreshold = 0.5

	CardStagger     = 100 * time.Millisecond
	CounterDuration = 2000 * time.Millisecond
	CounterFrame    = time.Second / 60
)

// Entry is one intersection notification: target is visible at ratio.
type Entry struct {
	Target *html.Node
	Ratio  float64
}

// observer is a one-shot intersection observer: a target fires once, then it
// is no longer watched.
type observer struct {
	threshold float64
	targets   map[*html.Node]bool
	fire      func(n *html.Node, index int)
}

func (p *Page) observe(threshold float64, nodes []*html.Node, fire func(n *html.Node, index int)) {
	if len(nodes) == 0 {
		return
	}
	o := &observer{threshold: threshold, targets: map[*html.Node]bool{}, fire: fire}
	for _, n := range nodes {
		o.targets[n] = true
	}
	p.observers = append(p.observers, o)
}

// Intersect delivers one batch of intersection entries. Each observer sees the
// entries of its own targets, indexed in batch order.
func (p *Page) Intersect(entries ...Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.observers {
		idx := 0
		for _, e := range entries {
			if !o.targets[e.Target] {
				continue
			}
			if e.Ratio > 0 && e.Ratio >= o.threshold {
				delete(o.targets, e.Target)
				o.fire(e.Target, idx)
			}
			idx++
		}
	}
}

// Observed reports whether any observer still watches n.
func (p *Page) Observed(n *html.Node) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.observers {
		if o.targets[n] {
			return true
		}
	}
	return false
}

func (p *Page) bindAnimators() {
	p.observe(RevealThreshold, ByClass(p.doc, "scroll-reveal"), func(n *html.Node, _ int) {
		SetStyle(n, "opacity", "1")
		SetStyle(n, "transform", "translateY(0)")
	})

	p.observe(CounterThreshold, ByClass(p.doc, "counter"), func(n *html.Node, _ int) {
		p.countUp(n)
	})

	p.observe(CardThreshold, ByClass(p.doc, "service-card-animated"), func(n *html.Node, index int) {
		delay := time.Duration(index) * CardStagger
		p.spawn(func(ctx context.Context) {
			if !p.sleep(ctx, delay) {
				return
			}
			p.mu.Lock()
			AddClass(n, "visible")
			p.mu.Unlock()
		})
	})
}

// CounterFrames is the number of ticks of a counter animation.
var CounterFrames = int(math.Round(float64(CounterDuration) / float64(CounterFrame)))

// countUp animates n from 0 to its data-target, keeping a trailing "+". The
// last frame writes the exact target.
func (p *Page) countUp(n *html.Node) {
	target, _ := strconv.ParseFloat(strings.TrimSpace(attrOr(n, "data-target", "0")), 64)
	p.spawn(func(ctx context.Context) {
		for frame := 1; frame <= CounterFrames; frame++ {
			if !p.sleep(ctx, CounterFrame) {
				return
			}
			count := roundHalfUp(target * float64(frame) / float64(CounterFrames))
			p.mu.Lock()
			text := strconv.FormatFloat(count, 'f', -1, 64)
			if strings.Contains(Text(n), "+") {
				text += "+"
			}
			SetText(n, text)
			p.mu.Unlock()
		}
	})
}

// roundHalfUp rounds like Math.round: halves go towards +Inf.
func roundHalfUp(x float64) float64 { return math.Floor(x + 0.5) }
