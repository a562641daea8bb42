package pot

import "errors"

// ErrBusy signals that the concurrent-session bound was hit, for 429
// mapping in the HTTP layer. It carries no cause: rejection is a policy
// outcome, not a fault.
var ErrBusy = errors.New("too busy: concurrent session limit reached")

// IsBusy reports whether err indicates an admission rejection.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// transportError wraps a failed write to the client. Scrapers hanging up
// mid-stream is routine, so callers should log these quietly and move on.
type transportError struct{ err error }

func (e transportError) Error() string { return "client transport: " + e.err.Error() }
func (e transportError) Unwrap() error { return e.err }

// IsTransport reports whether err is a client-side write failure.
func IsTransport(err error) bool {
	_, ok := err.(transportError)
	return ok
}
