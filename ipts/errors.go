package ipts

import "errors"

// Error taxonomy for the ipts package. Unknown frame/report/group types
// are never errors — they are silently skipped by the dispatch tables in
// parser.go and parser_legacy.go.
var (
	// ErrTruncated is returned when a read, skip, or sub-range carve would
	// advance a Reader past its end. Returning it never corrupts cached
	// parser context; the caller may retry on the next input.
	ErrTruncated = errors.New("ipts: truncated frame")

	// ErrWindowTooLarge is unused by the parser itself (a DFT window
	// declaring more rows than DFTMaxRows is dropped silently, not
	// reported as an error) but is exported for callers that want to
	// validate a window header before handing it to Parser.
	ErrWindowTooLarge = errors.New("ipts: dft window exceeds max rows")
)
