// Package ipx defines the IPX address model and the datagram socket contract
// used by the service provider.
//
// An IPX endpoint is a network/node/socket triple. The host session layer
// carries endpoints as the 14-byte sockaddr_ipx structure, which this package
// encodes and decodes with MarshalHeader and ParseHeader.
//
// The Socket interface is the boundary to the underlying connectionless
// datagram stack. Implementations live in the real (IPX emulated over UDP)
// and testing (in-memory network) packages.
package ipx
