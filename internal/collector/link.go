package collector

import (
	"io"
	"iter"
)

// initialLinksCapacity is the initial capacity of the links slice, it does not mean this is the maximum capacity.
// It is just not recommended to have more than 100 links in a document due to SEO (Page Ranking) reason.
// Ref: https://moz.com/blog/how-many-links-is-too-many
const initialLinksCapacity = 100

// LinkCollector is a collector that collects links from a reader.
//
// The links are collected while they are consumed, the reader must not be used by anything else until the sequence stops. If the reader
// could not be read, the sequence yields an error and stops.
type LinkCollector interface {
	CollectLinks(r io.Reader) iter.Seq2[string, error]
}

// LinkCollectorFunc is an adapter to use a function as a LinkCollector.
type LinkCollectorFunc func(r io.Reader) iter.Seq2[string, error]

// CollectLinks collects links from a reader.
func (f LinkCollectorFunc) CollectLinks(r io.Reader) iter.Seq2[string, error] {
	return f(r)
}

// Collect collects all the links from a reader. In case of error, the links collected so far are returned with the error.
func Collect(c LinkCollector, r io.Reader) ([]string, error) {
	links := make([]string, 0, initialLinksCapacity)

	for link, err := range c.CollectLinks(r) {
		if err != nil {
			return links, err
		}

		links = append(links, link)
	}

	return links, nil
}
