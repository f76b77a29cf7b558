package collector

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"regexp"
)

var _ LinkCollector = (*TextLinkCollector)(nil)

// httpLinkRegexp is the regex used to extract links from a string.
// Ref: https://mathiasbynens.be/demo/url-regex
var httpLinkRegexp = regexp.MustCompile(`(https?)://(-\.)?([^\s/?.#]+\.?)+(/\S*)?`)

// TextLinkCollector is a collector that collects links from a reader of a text document.
type TextLinkCollector struct{}

// CollectLinks collects links from a reader of a text document, line by line.
func (t TextLinkCollector) CollectLinks(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s := bufio.NewScanner(r)

		for s.Scan() {
			if !yieldLinks(s.Text(), yield) {
				return
			}
		}

		if err := s.Err(); err != nil {
			yield("", fmt.Errorf("could not collect links from text doc: %w", err))
		}
	}
}

// yieldLinks yields all the links found in the string. It returns false if the consumer stops.
func yieldLinks(s string, yield func(string, error) bool) bool {
	for _, link := range httpLinkRegexp.FindAllString(s, -1) {
		if !yield(link, nil) {
			return false
		}
	}

	return true
}

// NewTextLinkCollector creates a new collector for collecting links from a text document.
func NewTextLinkCollector() *TextLinkCollector {
	return &TextLinkCollector{}
}
