package translator

import (
	"errors"
	"fmt"
)

// ErrNilState is returned when Translate is called without an initialised state.
var ErrNilState = errors.New("translator: nil translation state")

// UnsupportedFormatError reports an unknown format or a format pair without a converter.
// It is a configuration error and aborts the stream it belongs to.
type UnsupportedFormatError struct {
	Format Format
	// From is set when the failure concerns a pair rather than a single identifier.
	From Format
}

func (e *UnsupportedFormatError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("translator: no converter from %q to %q", e.From, e.Format)
	}
	return fmt.Sprintf("translator: unsupported format %q", e.Format)
}

// MalformedDeltaError describes a delta that was skipped because required fields were missing.
// It is only surfaced by registries running in strict mode.
type MalformedDeltaError struct {
	From   Format
	To     Format
	Reason string
}

func (e *MalformedDeltaError) Error() string {
	return fmt.Sprintf("translator: malformed %s delta ignored while translating to %s: %s", e.From, e.To, e.Reason)
}

// IsUnsupportedFormat reports whether err carries an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}
