// Package limits provides centralized datagram size limits for the IPX
// service provider.
// This ensures consistent validation across the send and receive paths.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxDatagramSize is the receive buffer size used by the worker loop.
	// Datagrams longer than this are truncated by the socket layer.
	MaxDatagramSize = 8192

	// MaxBufferSize is the largest message the host is told it may send.
	// It is advertised through the capability record for compatibility with
	// the reference provider and is not enforced on sends.
	MaxBufferSize = 1024

	// MaxUDPPayload is the largest payload an IPX-over-UDP datagram can carry.
	MaxUDPPayload = 65507
)

var (
	// ErrMessageTooShort indicates a host message without a complete address header
	ErrMessageTooShort = errors.New("message shorter than address header")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")

	// ErrFragmentOverflow indicates send fragments longer than the declared total
	ErrFragmentOverflow = errors.New("fragments exceed declared message size")
)

// ValidateHostMessage checks that a host message carries at least headerSize
// bytes of header.
func ValidateHostMessage(message []byte, headerSize int) error {
	if len(message) < headerSize {
		return fmt.Errorf("%w: size %d, header %d", ErrMessageTooShort, len(message), headerSize)
	}
	return nil
}

// ValidateDatagram validates a payload about to be handed to the socket layer.
func ValidateDatagram(payload []byte) error {
	if len(payload) > MaxUDPPayload {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(payload), MaxUDPPayload)
	}
	return nil
}

// ValidateMessageSize checks a declared host message size before a buffer of
// that size is allocated. The payload after the header must fit a datagram.
func ValidateMessageSize(size, headerSize int) error {
	if size > headerSize+MaxUDPPayload {
		return fmt.Errorf("%w: declared size %d exceeds limit %d", ErrMessageTooLarge, size, headerSize+MaxUDPPayload)
	}
	return nil
}

// ValidateFragments checks that the fragment lengths, summed in order, never
// exceed total. It inspects lengths only and copies nothing.
func ValidateFragments(fragments [][]byte, total int) error {
	if total < 0 {
		return fmt.Errorf("%w: negative size %d", ErrFragmentOverflow, total)
	}
	off := 0
	for i, frag := range fragments {
		if off+len(frag) > total {
			return fmt.Errorf("%w: fragment %d ends at %d, declared %d", ErrFragmentOverflow, i, off+len(frag), total)
		}
		off += len(frag)
	}
	return nil
}
