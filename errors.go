package procpool

import "errors"

// Sentinel errors for the small set of outcomes callers may want to
// distinguish with errors.Is. spec.md §7 treats error kinds as plain
// strings at the pool boundary; these wrap that boundary for callers
// that need more than a message.
var (
	// ErrPoolFull is returned by acquire when the caller violated the
	// admission-gate contract: the table is at capacity and no slot is
	// idle to evict. spec.md §4.5, §5 "Pool admission contract".
	ErrPoolFull = errors.New("no idle slots")

	// ErrAlreadyReleased is returned by a Borrow's accessors once
	// Release has been called on it.
	ErrAlreadyReleased = errors.New("borrow already released")

	// ErrPortNotAdvertised is returned when a worker's stdout ended or
	// failed before any first line arrived while the child was still
	// running (so no exit/stderr is available to explain why). A first
	// line that doesn't match the port pattern is reported with a
	// different error.
	ErrPortNotAdvertised = errors.New("worker did not advertise a port")
)
