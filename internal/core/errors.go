package core

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrSizeUnknown  = errors.New("no valid content length")
	ErrSizeZero     = errors.New("declared content length is zero")
	ErrBadStatus    = errors.New("unexpected http status")
	ErrSizeMismatch = errors.New("downloaded size differs from content length")
	ErrEncoding     = errors.New("unsupported content encoding")
)

// TransportError wraps a failure of the request itself (dns, connect,
// timeout, dropped stream).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return "transport [" + e.URL + "]: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsSizeUnknown(err error) bool {
	return errors.Is(err, ErrSizeUnknown)
}

// isBadContentLength reports whether the transport rejected the response
// because its Content-Length header is not a valid number. net/http keeps
// that error type private, so only its text can be matched.
func isBadContentLength(err error) bool {
	return err != nil && strings.Contains(err.Error(), "bad Content-Length")
}
