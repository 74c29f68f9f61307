package dump

import "errors"

var (
	// ErrTruncatedDump indicates the stream ended while a document was still
	// open. No partial article is emitted for the dangling document.
	ErrTruncatedDump = errors.New("dump truncated inside a document")

	// ErrMalformedDump indicates the stream is not structurally valid XML.
	// The whole parse aborts; there is no per-document recovery.
	ErrMalformedDump = errors.New("malformed dump")
)
