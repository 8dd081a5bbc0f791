// Package web holds the site's pages, shared fragments and static assets.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed pages/*.html static
var files embed.FS

var (
	// Pages are the page documents plus the _header/_footer fragments.
	Pages = mustSub("pages")
	// Static is served under /static/.
	Static = mustSub("static")
)

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// PageName maps a request path to a page file: "/" is index.html, and only
// plain .html names that are not fragments qualify.
func PageName(p string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" {
		name = "index.html"
	}
	if strings.Contains(name, "/") || strings.HasPrefix(name, "_") || path.Ext(name) != ".html" {
		return "", false
	}
	if _, err := fs.Stat(Pages, name); err != nil {
		return "", false
	}
	return name, true
}

// IsFragment reports whether name is one of the shared partials.
func IsFragment(name string) bool {
	name = strings.TrimPrefix(name, "/")
	return strings.HasPrefix(name, "_") && path.Ext(name) == ".html" && !strings.Contains(name, "/")
}

// Fragments serves the shared partials from the embedded pages.
type Fragments struct{}

func (Fragments) Fragment(_ context.Context, name string) (string, error) {
	if !IsFragment(name) {
		return "", fmt.Errorf("failed to load component: %s: not a fragment", name)
	}
	b, err := fs.ReadFile(Pages, strings.TrimPrefix(name, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to load component: %s: %w", name, err)
	}
	return string(b), nil
}
