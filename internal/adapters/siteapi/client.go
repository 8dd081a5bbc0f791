// Package siteapi talks to a running site over HTTP: its JSON endpoints, its
// shared fragments and its pages.
package siteapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"kemdeholo/internal/adapters/observability"
	"kemdeholo/internal/domain"
)

// getAttempts bounds GET retries on 429 and transient 5xx.
const getAttempts = 4

type Client struct {
	base     string
	hc       *http.Client
	rl       *rate.Limiter
	attempts int
}

func New(base string, rps int) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid site base URL %q", base)
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),

		attempts: getAttempts,
	}, nil
}

// Once returns a view of c that sends every GET a single time, sharing c's
// rate limiter. Pages load their data and fragments through it: a failed
// load is shown right away and never retried.
func (c *Client) Once() *Client {
	cp := *c
	cp.attempts = 1
	return &cp
}

// ---- Reads ----

func (c *Client) Testimonials(ctx context.Context, category string) ([]domain.Testimonial, error) {
	u := c.base + "/api/testimonials"
	if category != "" {
		u += "?category=" + url.QueryEscape(category)
	}
	var out []domain.Testimonial
	return out, c.getJSON(ctx, "testimonials", u, &out)
}

func (c *Client) Rooms(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	return out, c.getJSON(ctx, "hebergement", c.base+"/api/hebergement", &out)
}

func (c *Client) Articles(ctx context.Context) ([]domain.Article, error) {
	var out []domain.Article
	return out, c.getJSON(ctx, "articles", c.base+"/api/articles", &out)
}

func (c *Client) Article(ctx context.Context, id int64) (domain.Article, error) {
	var out domain.Article
	err := c.getJSON(ctx, "article", c.base+"/api/articles/"+strconv.FormatInt(id, 10), &out)
	return out, err
}

// Fragment fetches a shared partial such as "_header.html" as text.
func (c *Client) Fragment(ctx context.Context, name string) (string, error) {
	b, err := c.getBytes(ctx, "fragment", c.base+"/"+strings.TrimLeft(name, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to load component: %s: %w", name, err)
	}
	return string(b), nil
}

// Page fetches a rendered page by path ("index.html", "/blog.html").
func (c *Client) Page(ctx context.Context, path string) ([]byte, error) {
	return c.getBytes(ctx, "page", c.base+"/"+strings.TrimLeft(path, "/"))
}

// ---- Writes (never retried) ----

func (c *Client) SubmitTestimonial(ctx context.Context, body map[string]any) (domain.SubmitResult, error) {
	return c.postJSON(ctx, "testimonials", c.base+"/api/testimonials", body)
}

func (c *Client) SubmitReservation(ctx context.Context, fields map[string]string) (domain.SubmitResult, error) {
	return c.postJSON(ctx, "reservations", c.base+"/api/reservations", fields)
}

func (c *Client) Subscribe(ctx context.Context, email string) (domain.SubmitResult, error) {
	return c.postJSON(ctx, "subscribe", c.base+"/subscribe", map[string]string{"email": email})
}

// ---- Internals ----

// ErrNotFound is returned for 404 answers.
var ErrNotFound = domain.ErrNotFound

// StatusError is a non-2xx answer to a GET.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bad status %d", e.Status)
	}
	return fmt.Sprintf("bad status %d: %s", e.Status, e.Body)
}

func (c *Client) getJSON(ctx context.Context, endpoint, url string, out any) error {
	b, err := c.getBytes(ctx, endpoint, url)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// getBytes performs a GET with client-side rate limiting and, unless the
// client is a Once view, retries on 429 and transient 5xx, honoring
// Retry-After when provided.
func (c *Client) getBytes(ctx context.Context, endpoint, url string) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	last := c.attempts - 1
	var lastErr error
	for i := 0; i <= last; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "kemdeholo-sitecheck/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("site", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("site", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			return b, err

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = &StatusError{Status: resp.StatusCode}
			if i < last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
	}
	return nil, lastErr
}

// postJSON sends body once. Any decoded answer, 2xx or not, is a result;
// only transport failures and undecodable bodies are errors.
func (c *Client) postJSON(ctx context.Context, endpoint, url string, body any) (domain.SubmitResult, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return domain.SubmitResult{}, err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return domain.SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("site", endpoint, 0, time.Since(start))
		return domain.SubmitResult{}, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("site", endpoint, resp.StatusCode, time.Since(start))

	var out domain.SubmitResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("decode %s response (status %d): %w", endpoint, resp.StatusCode, err)
	}
	out.Status = resp.StatusCode
	return out, nil
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
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

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (100ms, 200ms, 400ms...) plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
