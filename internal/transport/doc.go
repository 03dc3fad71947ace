// Package transport provides report-level USB HID I/O for panel devices.
//
// The Transport interface is the only surface the protocol engine sees; the
// HID implementation wraps a hidapi device handle with bounded-timeout reads,
// feature report access for the info and capability channels, and structured
// logging of raw report traffic.
//
// Reads are bounded polls: a timeout returns (0, nil) rather than an error,
// so the session listener can check for cancellation between polls without
// ever blocking indefinitely.
//
// A Transport is exclusively owned by one device session. The embedding
// application supplies vendor/product IDs; this package does not hard-code
// any.
package transport
