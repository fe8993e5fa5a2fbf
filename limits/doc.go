// Package limits provides centralized size limits for IPX service provider
// messages.
//
// # Overview
//
// The host session layer hands this provider messages that start with a
// 14-byte address header. The provider strips the header and transmits the
// rest as one datagram. This package centralizes the constants and checks
// applied along that path so the send path, the receive worker, and the
// capability record agree.
//
// # Constants
//
//   - MaxDatagramSize: receive buffer used by the worker (8192 bytes)
//   - MaxBufferSize: message size advertised to the host (1024 bytes)
//   - MaxUDPPayload: largest payload the UDP emulation can carry
//
// # Validation
//
//	if err := limits.ValidateHostMessage(msg, ipx.HeaderSize); err != nil {
//	    return err
//	}
//
// ValidateFragments checks multi-buffer sends before any data is copied.
//
// # Error Types
//
//   - ErrMessageTooShort: message lacks a complete address header
//   - ErrMessageTooLarge: payload exceeds the UDP limit
//   - ErrFragmentOverflow: fragment lengths exceed the declared total
package limits
