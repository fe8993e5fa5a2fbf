package ipxsp

import (
	"errors"
	"fmt"
)

// Sentinel errors reported to the host. Every error returned by a provider
// entry point wraps exactly one of these.
var (
	// ErrGeneric is a transport failure; the call may be retried
	ErrGeneric = errors.New("generic provider failure")

	// ErrInvalidParams indicates the host violated the call contract
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrUnavailable indicates the provider could not be initialized
	ErrUnavailable = errors.New("provider unavailable")

	// ErrCannotCreateServer indicates the discovery socket could not be bound
	ErrCannotCreateServer = errors.New("cannot create session server")
)

// Status is a host status code.
type Status uint32

// Host status codes.
const (
	StatusOK                 Status = 0x00000000
	StatusGeneric            Status = 0x80004005
	StatusInvalidParams      Status = 0x80070057
	StatusUnavailable        Status = 0x887700D2
	StatusCannotCreateServer Status = 0x887703E8
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "DP_OK"
	case StatusGeneric:
		return "DPERR_GENERIC"
	case StatusInvalidParams:
		return "DPERR_INVALIDPARAMS"
	case StatusUnavailable:
		return "DPERR_UNAVAILABLE"
	case StatusCannotCreateServer:
		return "DPERR_CANNOTCREATESERVER"
	default:
		return fmt.Sprintf("Status(0x%08X)", uint32(s))
	}
}

// StatusOf maps an error returned by a provider entry point to the status
// code reported to the host. Unrecognized errors map to StatusGeneric.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrInvalidParams):
		return StatusInvalidParams
	case errors.Is(err, ErrUnavailable):
		return StatusUnavailable
	case errors.Is(err, ErrCannotCreateServer):
		return StatusCannotCreateServer
	default:
		return StatusGeneric
	}
}

// OpError represents a failed provider operation with additional context
type OpError struct {
	Op   string // entry point or step that failed
	Addr string // address if relevant
	Err  error  // wraps a sentinel and the underlying cause
}

func (e *OpError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("ipxsp %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("ipxsp %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// newOpError creates an OpError of the given kind caused by cause.
func newOpError(op, addr string, kind, cause error) *OpError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &OpError{
		Op:   op,
		Addr: addr,
		Err:  err,
	}
}
