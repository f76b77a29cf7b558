package crawler

var _ error = (*Error)(nil)

const (
	// ErrMalformedURL indicates that the host of an url could not be resolved. No download is attempted for such url.
	ErrMalformedURL = Error("malformed url")
	// ErrDownload indicates that a page could not be downloaded. Its links are never explored.
	ErrDownload = Error("could not download page")
	// ErrExtraction indicates that the links of a downloaded page could not be enumerated.
	ErrExtraction = Error("could not extract links")

	// ErrInvalidDepth indicates that the crawling depth is smaller than 1.
	ErrInvalidDepth = Error("depth must be greater than 0")
	// ErrCrawlerClosed indicates that the crawler was closed and could not accept new work.
	ErrCrawlerClosed = Error("crawler is closed")
	// ErrBarrierDrained indicates that a work unit was registered or arrived after all units had completed.
	ErrBarrierDrained = Error("completion barrier is already drained")
)

// Error is a crawler error.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
