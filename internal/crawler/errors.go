package crawler

import "errors"

var (
	// ErrFetchFailure reports that a page could not be fetched or yielded no usable content.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrBackendUnavailable reports that a sink could not acquire its backend at open time.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrWriteFailure reports that a sink rejected a submitted record.
	ErrWriteFailure = errors.New("write failure")
	// ErrUnknownParser reports a task whose parser is not registered.
	ErrUnknownParser = errors.New("unknown parser")
	// ErrSinkState reports a sink lifecycle violation (submit before open, double open).
	ErrSinkState = errors.New("invalid sink state")
)
