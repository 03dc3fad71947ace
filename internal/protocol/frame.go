package protocol

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/openpanel/panellink/internal/logging"
)

// HID report identifiers used by the panel
const (
	ReportIDInfo         = 0x01 // device/firmware info (feature report)
	ReportIDCapabilities = 0x14 // capability TLV block (feature report)
	ReportIDCommand      = 0x1E // outbound command frames (escaped)
	ReportIDFileTransfer = 0x1F // file-transfer block
	ReportIDResponse     = 0x20 // inbound response frames (same channel as 0x1E)
)

// Frame envelope constants
const (
	FrameMarker  = 0x5A // start and end marker, written unescaped
	EscapeByte   = 0x5B // escape prefix inside the escaped region
	EscapeMarker = 0x01 // 0x5B 0x01 decodes to 0x5A
	EscapeEscape = 0x02 // 0x5B 0x02 decodes to 0x5B

	// frameOverhead is what the length field covers beyond the payload:
	// the two length bytes, the checksum byte and the two markers.
	frameOverhead = 5

	// lengthTolerance absorbs minor framing drift from the hardware; a
	// declared length within this distance of the actual marker-to-marker
	// span is still accepted.
	lengthTolerance = 2

	// MinFrameSize is report id + start marker + length(2) + checksum + end marker
	MinFrameSize = 6
)

// EncodeFrame builds a complete command report for the given payload:
//
//	[0]    0x1E          Report ID (ReportIDCommand)
//	[1]    0x5A          Start marker (unescaped)
//	[2+]   length        Payload length + 5, big-endian uint16 (escaped)
//	[..]   payload       Command payload bytes (escaped)
//	[..]   checksum      Low 8 bits of sum of length field and payload bytes (escaped)
//	[N]    0x5A          End marker (unescaped)
//
// The escape rule 0x5A -> 0x5B 0x01, 0x5B -> 0x5B 0x02 applies to the length
// field, the payload and the checksum. The two markers stay literal.
func EncodeFrame(payload []byte) []byte {
	length := uint16(len(payload) + frameOverhead)

	var lenBytes [2]byte
	binary.BigEndian.PutUint16(lenBytes[:], length)

	var sum uint16
	sum += uint16(lenBytes[0]) + uint16(lenBytes[1])
	for _, b := range payload {
		sum += uint16(b)
	}
	checksum := byte(sum & 0xFF)

	// Worst case every byte escapes to two bytes
	out := make([]byte, 0, 4+2*(len(payload)+3))
	out = append(out, ReportIDCommand, FrameMarker)
	out = appendEscaped(out, lenBytes[:])
	out = appendEscaped(out, payload)
	out = appendEscaped(out, []byte{checksum})
	out = append(out, FrameMarker)
	return out
}

func appendEscaped(dst []byte, src []byte) []byte {
	for _, b := range src {
		switch b {
		case FrameMarker:
			dst = append(dst, EscapeByte, EscapeMarker)
		case EscapeByte:
			dst = append(dst, EscapeByte, EscapeEscape)
		default:
			dst = append(dst, b)
		}
	}
	return dst
}

// DecodeFrame parses a raw inbound report into its de-escaped payload.
//
// It returns the payload and the number of raw bytes consumed (the position
// just past the end marker), so the caller can detect and discard trailing
// garbage after the frame.
//
// A declared length within lengthTolerance of the actual marker-to-marker
// distance is accepted. Checksum mismatches are logged but do not reject the
// frame; the hardware has been observed emitting frames it considers valid
// with a stale checksum byte.
func DecodeFrame(raw []byte) ([]byte, int, error) {
	if len(raw) < MinFrameSize {
		return nil, 0, NewFrameDecodeError("report too short", len(raw))
	}
	if raw[0] != ReportIDResponse && raw[0] != ReportIDCommand {
		return nil, 0, NewFrameDecodeError("unexpected report id", int(raw[0]))
	}
	if raw[1] != FrameMarker {
		return nil, 0, NewFrameDecodeError("missing start marker", int(raw[1]))
	}

	// The escaped region cannot contain a literal 0x5A, so the last marker
	// in the buffer is the end marker. Scan backward past any zero padding
	// the transport may have appended.
	end := -1
	for i := len(raw) - 1; i > 1; i-- {
		if raw[i] == FrameMarker {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, 0, NewFrameDecodeError("missing end marker", len(raw))
	}

	unescaped, err := unescape(raw[2:end])
	if err != nil {
		return nil, 0, err
	}
	if len(unescaped) < 3 {
		return nil, 0, NewFrameDecodeError("frame body too short", len(unescaped))
	}

	declared := int(binary.BigEndian.Uint16(unescaped[0:2]))
	actual := len(unescaped) + 2 // body plus the two markers
	if diff := declared - actual; diff > lengthTolerance || diff < -lengthTolerance {
		return nil, 0, NewFrameDecodeError("length mismatch", declared)
	}

	payload := unescaped[2 : len(unescaped)-1]

	var sum uint16
	for _, b := range unescaped[:len(unescaped)-1] {
		sum += uint16(b)
	}
	if got, want := unescaped[len(unescaped)-1], byte(sum&0xFF); got != want {
		// Computed but deliberately not enforced
		logging.Warn("Frame checksum mismatch",
			zap.Uint8("got", got),
			zap.Uint8("want", want),
			zap.Int("payload_len", len(payload)),
		)
	}

	return payload, end + 1, nil
}

func unescape(region []byte) ([]byte, error) {
	out := make([]byte, 0, len(region))
	for i := 0; i < len(region); i++ {
		b := region[i]
		if b != EscapeByte {
			out = append(out, b)
			continue
		}
		i++
		if i >= len(region) {
			return nil, NewFrameDecodeError("dangling escape byte", len(region))
		}
		switch region[i] {
		case EscapeMarker:
			out = append(out, FrameMarker)
		case EscapeEscape:
			out = append(out, EscapeByte)
		default:
			return nil, NewFrameDecodeError("invalid escape sequence", int(region[i]))
		}
	}
	return out, nil
}
