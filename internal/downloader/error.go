package downloader

var _ error = (*Error)(nil)

const (
	// ErrOperationCanceled indicates that the operation was canceled.
	ErrOperationCanceled = Error("operation canceled")
	// ErrMissingHostname indicates that the url is missing hostname.
	ErrMissingHostname = Error("missing hostname")
	// ErrUnsupportedScheme indicates that the url contains an unsupported scheme.
	ErrUnsupportedScheme = Error("unsupported scheme")
	// ErrUnexpectedStatusCode indicates that the status code is not supported.
	ErrUnexpectedStatusCode = Error("unexpected status code")
	// ErrInvalidLink indicates that a link of a document could not be parsed.
	ErrInvalidLink = Error("invalid link")
)

// Error is a downloader error.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
