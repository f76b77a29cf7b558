package collector

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/net/html"
)

var _ LinkCollector = (*HTMLLinkCollector)(nil)

// HTMLLinkCollector is a collector that collects links from a reader of an HTML document.
//
//	c := NewHTMLLinkCollector()
//	for link, err := range c.CollectLinks(r) {
//		if err != nil {
//			return err
//		}
//
//		fmt.Println(link)
//	}
type HTMLLinkCollector struct {
	tagAttributes map[string]string // Key is tag name, Value is attribute name.
}

// CollectLinks collects links from a reader of an HTML document.
func (c HTMLLinkCollector) CollectLinks(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		z := html.NewTokenizer(r)

		for {
			switch tt := z.Next(); tt { // nolint: exhaustive // We ignore the other tokens because we focus on the tag attributes.
			case html.ErrorToken:
				if !errors.Is(z.Err(), io.EOF) {
					yield("", fmt.Errorf("could not collect links from html doc: %w", z.Err()))
				}

				return

			case html.StartTagToken, html.SelfClosingTagToken:
				link, ok := c.link(z.Token())
				if ok && !yield(link, nil) {
					return
				}
			}
		}
	}
}

func (c HTMLLinkCollector) link(tag html.Token) (string, bool) {
	wantAttr, ok := c.tagAttributes[tag.Data]
	if !ok {
		return "", false
	}

	for _, attr := range tag.Attr {
		if attr.Key == wantAttr {
			// In HTML, \n does not mean new line. Browser will ignore it, so link like "\nhttps://example.org/\npath" will be interpreted
			// as "https://example.org/path".
			return strings.ReplaceAll(attr.Val, "\n", ""), true
		}
	}

	return "", false
}

// NewHTMLLinkCollector creates a new collector for collecting links from an HTML document.
//
// By default, only the href of the <a> tags are collected.
func NewHTMLLinkCollector(opts ...HTMLLinkCollectorOption) *HTMLLinkCollector {
	c := &HTMLLinkCollector{
		tagAttributes: map[string]string{
			"a": "href",
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HTMLLinkCollectorOption is option to set up HTMLLinkCollector.
type HTMLLinkCollectorOption func(c *HTMLLinkCollector)

// WithTagAttribute collects the attribute of a tag as a link, for example "src" of "iframe".
func WithTagAttribute(tag, attr string) HTMLLinkCollectorOption {
	return func(c *HTMLLinkCollector) {
		c.tagAttributes[strings.ToLower(tag)] = strings.ToLower(attr)
	}
}
