package dom

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const defaultSelector = "body"

// Document is a goroutine-safe Surface backed by a parsed HTML document.
type Document struct {
	mu  sync.RWMutex
	doc *goquery.Document
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return &Document{doc: doc}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return goquery.OuterHtml(d.doc.Selection)
}

// InnerHTML renders the contents of the first element matching selector.
func (d *Document) InnerHTML(selector string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sel, err := d.find(selector)
	if err != nil {
		return "", err
	}
	return sel.First().Html()
}

// Count returns the number of elements matching selector, 0 for invalid selectors.
func (d *Document) Count(selector string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sel, err := d.find(selector)
	if err != nil {
		return 0
	}
	return sel.Length()
}

// RemoveMarked removes every element whose class attribute carries all the
// whitespace separated tokens of class. Tokens are compared literally, so
// names that are not valid CSS identifiers still match.
func (d *Document) RemoveMarked(class string) int {
	tokens := strings.Fields(class)
	if len(tokens) == 0 {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, tok := range tokens {
			if !s.HasClass(tok) {
				return false
			}
		}
		return true
	})
	n := sel.Length()
	sel.Remove()
	return n
}

// SetInner replaces the contents of every element matching selector with markup.
func (d *Document) SetInner(selector, markup string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return 0, err
	}
	sel.SetHtml(markup)
	return sel.Length(), nil
}

// InsertAdjacent inserts markup at pos relative to every element matching selector.
func (d *Document) InsertAdjacent(selector string, pos Position, markup string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return 0, err
	}

	switch pos {
	case BeforeBegin:
		sel.BeforeHtml(markup)
	case AfterBegin:
		sel.PrependHtml(markup)
	case AfterEnd:
		sel.AfterHtml(markup)
	default:
		sel.AppendHtml(markup)
	}
	return sel.Length(), nil
}

// AppendScript appends a script element with body and attrs to the document body.
func (d *Document) AppendScript(body string, attrs map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.doc.Find(defaultSelector).First()
	if target.Length() == 0 {
		return ErrNoBody
	}

	// Built as nodes so the body is never re-parsed as markup.
	script := &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Script.String(),
		DataAtom: atom.Script,
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		script.Attr = append(script.Attr, html.Attribute{Key: k, Val: attrs[k]})
	}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: body})

	target.AppendNodes(script)
	return nil
}

// MetaContent returns the content of the first meta element named name.
func (d *Document) MetaContent(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		content string
		found   bool
	)
	d.doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if n, _ := s.Attr("name"); n == name {
			content, found = s.Attr("content")
			return !found
		}
		return true
	})
	return content, found
}

// find compiles selector first so invalid input surfaces as an error instead
// of an empty match. An empty selector means the document body.
func (d *Document) find(selector string) (*goquery.Selection, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = defaultSelector
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSelector, selector, err)
	}
	return d.doc.FindMatcher(m), nil
}
