package site

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a full HTML document.
func Parse(r io.Reader) (*html.Node, error) { return html.Parse(r) }

// Render serialises n and its subtree.
func Render(n *html.Node) string {
	var b bytes.Buffer
	_ = html.Render(&b, n)
	return b.String()
}

// ---- Queries ----

type match func(*html.Node) bool

func isElement(n *html.Node) bool { return n != nil && n.Type == html.ElementNode }

func tag(a atom.Atom) match {
	return func(n *html.Node) bool { return isElement(n) && n.DataAtom == a }
}

func class(c string) match {
	return func(n *html.Node) bool { return isElement(n) && HasClass(n, c) }
}

func idIs(v string) match {
	return func(n *html.Node) bool {
		got, ok := Attr(n, "id")
		return isElement(n) && ok && got == v
	}
}

func attrIs(key, v string) match {
	return func(n *html.Node) bool {
		got, ok := Attr(n, key)
		return isElement(n) && ok && got == v
	}
}

func and(ms ...match) match {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// find returns the first descendant of root (excluding root) matching m, in
// document order.
func find(root *html.Node, m match) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if got := find(c, m); got != nil {
			return got
		}
	}
	return nil
}

func findAll(root *html.Node, m match) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// ByID finds the element with the given id under root.
func ByID(root *html.Node, v string) *html.Node { return find(root, idIs(v)) }

// ByClass lists the elements carrying class c under root.
func ByClass(root *html.Node, c string) []*html.Node { return findAll(root, class(c)) }

func body(doc *html.Node) *html.Node { return find(doc, tag(atom.Body)) }

func closest(n *html.Node, m match) *html.Node {
	for ; n != nil; n = n.Parent {
		if m(n) {
			return n
		}
	}
	return nil
}

// contains reports whether b is a or one of its descendants.
func contains(a, b *html.Node) bool {
	for ; b != nil; b = b.Parent {
		if b == a {
			return true
		}
	}
	return false
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c) {
			return c
		}
	}
	return nil
}

func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c) {
			out = append(out, c)
		}
	}
	return out
}

// ---- Attributes ----

func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// ---- Classes ----

func Classes(n *html.Node) []string { return strings.Fields(attrOr(n, "class", "")) }

func HasClass(n *html.Node, c string) bool {
	for _, have := range Classes(n) {
		if have == c {
			return true
		}
	}
	return false
}

func AddClass(n *html.Node, cs ...string) {
	have := Classes(n)
	for _, c := range cs {
		if !HasClass(n, c) {
			have = append(have, c)
			SetAttr(n, "class", strings.Join(have, " "))
		}
	}
}

func RemoveClass(n *html.Node, cs ...string) {
	if _, ok := Attr(n, "class"); !ok {
		return
	}
	drop := make(map[string]bool, len(cs))
	for _, c := range cs {
		drop[c] = true
	}
	var keep []string
	for _, c := range Classes(n) {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	SetAttr(n, "class", strings.Join(keep, " "))
}

// ToggleClass adds c when on is true and removes it otherwise.
func ToggleClass(n *html.Node, c string, on bool) {
	if on {
		AddClass(n, c)
	} else {
		RemoveClass(n, c)
	}
}

// ---- Inline style ----

// Style reads one property from the inline style attribute.
func Style(n *html.Node, prop string) string {
	for _, decl := range strings.Split(attrOr(n, "style", ""), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == prop {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// SetStyle sets one inline style property, keeping the others in order.
func SetStyle(n *html.Node, prop, val string) {
	var decls []string
	replaced := false
	for _, decl := range strings.Split(attrOr(n, "style", ""), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		k, _, _ := strings.Cut(decl, ":")
		if strings.TrimSpace(k) == prop {
			decl = prop + ": " + val
			replaced = true
		}
		decls = append(decls, decl)
	}
	if !replaced {
		decls = append(decls, prop+": "+val)
	}
	SetAttr(n, "style", strings.Join(decls, "; ")+";")
}

// ---- Content ----

// Text concatenates the text nodes under n.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, s string) {
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// parseFragment parses markup as the content of an element shaped like ctx.
func parseFragment(markup string, ctx *html.Node) ([]*html.Node, error) {
	if ctx == nil || ctx.Type != html.ElementNode {
		ctx = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	return html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     ctx.Data,
		DataAtom: ctx.DataAtom,
	})
}

// SetInnerHTML replaces the children of n with parsed markup.
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := parseFragment(markup, n)
	if err != nil {
		return err
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// replaceWith puts repl where old was. repl must be detached.
func replaceWith(old, repl *html.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.InsertBefore(repl, old)
	old.Parent.RemoveChild(old)
}

func detach(n *html.Node) *html.Node {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	return n
}

func cloneDeep(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c.AppendChild(cloneDeep(k))
	}
	return c
}
