// Package protocol implements the panel's framed command protocol.
//
// This package handles construction, escaping, and parsing of the binary
// envelope and the ASCII command sub-protocol used by addressable LCD panels
// over USB HID. It is transport-agnostic: callers hand fully built reports
// to the transport layer and feed raw inbound reports back in.
//
// # Frame Envelope
//
// Command and response reports share an escaped, checksummed envelope:
//   - Report id byte: 0x1E outbound, 0x20 inbound
//   - Start marker: 0x5A (literal, unescaped)
//   - Length: 2 bytes big-endian, payload length + 5
//   - Payload: command or response text, escaped
//   - Checksum: low 8 bits of the sum of length field and payload bytes
//   - End marker: 0x5A (literal, unescaped)
//
// The escape rule inside the envelope replaces reserved bytes so they cannot
// be confused with the markers: 0x5A becomes 0x5B 0x01 and 0x5B becomes
// 0x5B 0x02.
//
// Inbound checksum mismatches are computed and logged but never rejected;
// the hardware considers some frames valid despite a stale checksum byte,
// and rejecting them would drop usable responses.
//
// # Command Sub-Protocol
//
// Payloads carry a pseudo-HTTP request/response text:
//
//	POST brightness 1
//	SeqNumber=17
//	ContentType=json
//	ContentLength=12
//
//	{"value":80}
//
// Responses echo the command token with a status code and an AckNumber
// header equal to the originating SeqNumber + 1. Status 200 is success,
// >= 400 is an application-level error. The keep-alive command uses the
// STATE method with a timestamp body instead of POST.
//
// # Capability Negotiation
//
// ParseCapabilities decodes the tag-length-value capability feature report;
// ParseFirmwareInfo decodes the fixed-offset hardware/firmware version
// report. Wire sentinels (0xFF for "not reported") are confined to the
// decode step; absent values surface as nil at the API boundary.
//
// # Error Handling
//
// All failures are typed DeviceError values with a category enum, so
// callers can distinguish transport failures, malformed frames, timeouts,
// device-side rejections and argument validation without string matching.
//
// # Thread Safety
//
// All construction and parsing functions are stateless and safe for
// concurrent use. Sequence number generation uses atomic operations.
package protocol
