package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
)

var _ LinkCollector = (*JSONLinkCollector)(nil)

// JSONLinkCollector is a collector that collects links from a reader of a JSON document. Links are searched in both keys and values.
type JSONLinkCollector struct{}

// CollectLinks collects links from a reader of a JSON document.
func (t JSONLinkCollector) CollectLinks(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dec := json.NewDecoder(r)

		for {
			token, err := dec.Token()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", fmt.Errorf("could not collect links from json doc: %w", err))
				}

				return
			}

			if s, ok := token.(string); ok && !yieldLinks(s, yield) {
				return
			}
		}
	}
}

// NewJSONLinkCollector creates a new collector for collecting links from a JSON document.
func NewJSONLinkCollector() *JSONLinkCollector {
	return &JSONLinkCollector{}
}
