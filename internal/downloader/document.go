package downloader

import (
	"bytes"
	"fmt"
	"iter"
	"net/url"

	"github.com/nhatthm/go-webcrawler/internal/collector"
	"github.com/nhatthm/go-webcrawler/internal/crawler"
)

var _ crawler.Document = (*Document)(nil)

// Document is a page downloaded by HTTPDownloader.
type Document struct {
	url         *url.URL
	contentType string
	body        []byte
	collector   collector.LinkCollector // Nil if the content type is not supported.
}

// URL returns the url of the document.
func (d *Document) URL() string {
	return d.url.String()
}

// ContentType returns the media type of the document, without parameters.
func (d *Document) ContentType() string {
	return d.contentType
}

// Body returns the body of the document. It is empty if the content type is not supported.
func (d *Document) Body() []byte {
	return d.body
}

// Links collects the links of the document and resolves them against the document url.
//
// Links that are not http or https (mailto, javascript, ...) are skipped and the fragments are removed, so that "page#a" and "page#b" are the
// same page. If a link could not be parsed, the sequence yields an ErrInvalidLink and stops.
//
// For example: given a `http://localhost/dir/page.html` document
//   - link: .
//     result: http://localhost/dir/
//   - link: /absolute/path/to/file.html
//     result: http://localhost/absolute/path/to/file.html
//   - link: path/to/file.html#anchor
//     result: http://localhost/dir/path/to/file.html
//   - link: https://example.com
//     result: https://example.com
func (d *Document) Links() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if d.collector == nil {
			return
		}

		for link, err := range d.collector.CollectLinks(bytes.NewReader(d.body)) {
			if err != nil {
				yield("", err)

				return
			}

			linkURL, err := url.Parse(link)
			if err != nil {
				yield("", fmt.Errorf("%w %q: %w", ErrInvalidLink, link, err))

				return
			}

			linkURL = d.url.ResolveReference(linkURL)

			if linkURL.Scheme != "http" && linkURL.Scheme != "https" {
				continue
			}

			linkURL.Fragment = ""
			linkURL.RawFragment = ""

			if !yield(linkURL.String(), nil) {
				return
			}
		}
	}
}
