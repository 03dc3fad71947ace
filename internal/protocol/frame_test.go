package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeFrame(t *testing.T) {
	tests := []struct {
		name        string
		payload     []byte
		checkFields func(t *testing.T, frame []byte)
	}{
		{
			name:    "empty payload",
			payload: []byte{},
			checkFields: func(t *testing.T, frame []byte) {
				if len(frame) != MinFrameSize {
					t.Errorf("frame size = %d, want %d", len(frame), MinFrameSize)
				}
				if frame[0] != ReportIDCommand {
					t.Errorf("report id = 0x%02x, want 0x%02x", frame[0], ReportIDCommand)
				}
				if frame[1] != FrameMarker || frame[len(frame)-1] != FrameMarker {
					t.Error("frame not bounded by markers")
				}
				// length = 0 + 5
				if frame[2] != 0x00 || frame[3] != 0x05 {
					t.Errorf("length bytes = % x, want 00 05", frame[2:4])
				}
				// checksum = low 8 bits of 0x00 + 0x05
				if frame[4] != 0x05 {
					t.Errorf("checksum = 0x%02x, want 0x05", frame[4])
				}
			},
		},
		{
			name:    "plain payload",
			payload: []byte{0x01, 0x02, 0x03},
			checkFields: func(t *testing.T, frame []byte) {
				// id + marker + len(2) + payload(3) + checksum + marker
				if len(frame) != 9 {
					t.Errorf("frame size = %d, want 9", len(frame))
				}
				// length = 3 + 5
				if frame[2] != 0x00 || frame[3] != 0x08 {
					t.Errorf("length bytes = % x, want 00 08", frame[2:4])
				}
				if !bytes.Equal(frame[4:7], []byte{0x01, 0x02, 0x03}) {
					t.Errorf("payload = % x, want 01 02 03", frame[4:7])
				}
				// checksum = 0x08 + 0x01 + 0x02 + 0x03
				if frame[7] != 0x0E {
					t.Errorf("checksum = 0x%02x, want 0x0e", frame[7])
				}
			},
		},
		{
			name:    "marker byte is escaped",
			payload: []byte{0x5A},
			checkFields: func(t *testing.T, frame []byte) {
				if !bytes.Equal(frame[4:6], []byte{0x5B, 0x01}) {
					t.Errorf("escaped payload = % x, want 5b 01", frame[4:6])
				}
				// Only two literal 0x5A bytes remain: the markers
				count := 0
				for _, b := range frame[1:] {
					if b == FrameMarker {
						count++
					}
				}
				if count != 2 {
					t.Errorf("literal marker count = %d, want 2", count)
				}
			},
		},
		{
			name:    "escape byte is escaped",
			payload: []byte{0x5B},
			checkFields: func(t *testing.T, frame []byte) {
				if !bytes.Equal(frame[4:6], []byte{0x5B, 0x02}) {
					t.Errorf("escaped payload = % x, want 5b 02", frame[4:6])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := EncodeFrame(tt.payload)
			tt.checkFields(t, frame)
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		{0x5A},
		{0x5B},
		{0x5A, 0x5B, 0x5A, 0x5B},
		{0x5B, 0x01, 0x5B, 0x02},
		{0x5A, 0x5A, 0x5A, 0x5A, 0x5A, 0x5A, 0x5A, 0x5A},
		[]byte("POST brightness 1\r\nSeqNumber=3\r\n\r\n{\"value\":80}"),
		bytes.Repeat([]byte{0x5A, 0x00, 0x5B, 0xFF}, 64),
	}

	for _, payload := range payloads {
		frame := EncodeFrame(payload)
		// Decode expects an inbound report id
		frame[0] = ReportIDResponse

		got, consumed, err := DecodeFrame(frame)
		if err != nil {
			t.Errorf("DecodeFrame(% x) error: %v", payload, err)
			continue
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("round trip payload = % x, want % x", got, payload)
		}
		if consumed != len(frame) {
			t.Errorf("consumed = %d, want %d", consumed, len(frame))
		}
	}
}

func TestFrameChecksumInvariant(t *testing.T) {
	payloads := [][]byte{
		{},
		{0xFF, 0xFF, 0xFF},
		{0x5A, 0x5B},
		bytes.Repeat([]byte{0xAB}, 300),
	}

	for _, payload := range payloads {
		frame := EncodeFrame(payload)
		frame[0] = ReportIDResponse

		// Reconstruct the unescaped region and verify the trailing byte
		unescaped, err := unescape(frame[2 : len(frame)-1])
		if err != nil {
			t.Fatalf("unescape: %v", err)
		}
		var sum uint16
		for _, b := range unescaped[:len(unescaped)-1] {
			sum += uint16(b)
		}
		if got, want := unescaped[len(unescaped)-1], byte(sum&0xFF); got != want {
			t.Errorf("checksum = 0x%02x, want 0x%02x for payload % x", got, want, payload)
		}
	}
}

func TestDecodeFrame(t *testing.T) {
	valid := func() []byte {
		f := EncodeFrame([]byte{0x10, 0x20, 0x30})
		f[0] = ReportIDResponse
		return f
	}

	tests := []struct {
		name    string
		raw     []byte
		wantErr bool
		verify  func(t *testing.T, payload []byte, consumed int)
	}{
		{
			name: "valid frame",
			raw:  valid(),
			verify: func(t *testing.T, payload []byte, consumed int) {
				if !bytes.Equal(payload, []byte{0x10, 0x20, 0x30}) {
					t.Errorf("payload = % x, want 10 20 30", payload)
				}
			},
		},
		{
			name: "command report id accepted",
			raw:  EncodeFrame([]byte{0x01}),
		},
		{
			name:    "too short",
			raw:     []byte{ReportIDResponse, FrameMarker, 0x00},
			wantErr: true,
		},
		{
			name:    "wrong report id",
			raw:     append([]byte{0x7F}, valid()[1:]...),
			wantErr: true,
		},
		{
			name: "missing start marker",
			raw: func() []byte {
				f := valid()
				f[1] = 0x00
				return f
			}(),
			wantErr: true,
		},
		{
			name:    "missing end marker",
			raw:     []byte{ReportIDResponse, FrameMarker, 0x00, 0x08, 0x01, 0x02, 0x03, 0x0E},
			wantErr: true,
		},
		{
			name: "trailing garbage is not consumed",
			raw:  append(valid(), 0x00, 0x00, 0x00, 0x00),
			verify: func(t *testing.T, payload []byte, consumed int) {
				if consumed != len(valid()) {
					t.Errorf("consumed = %d, want %d", consumed, len(valid()))
				}
			},
		},
		{
			name: "length within tolerance accepted",
			raw: func() []byte {
				f := valid()
				// Declared length off by the full tolerance
				f[3] += lengthTolerance
				return f
			}(),
		},
		{
			name: "length beyond tolerance rejected",
			raw: func() []byte {
				f := valid()
				f[3] += lengthTolerance + 1
				return f
			}(),
			wantErr: true,
		},
		{
			name: "checksum mismatch still accepted",
			raw: func() []byte {
				f := valid()
				// Corrupt the checksum byte only (avoiding reserved bytes)
				f[len(f)-2] ^= 0x11
				return f
			}(),
			verify: func(t *testing.T, payload []byte, consumed int) {
				if !bytes.Equal(payload, []byte{0x10, 0x20, 0x30}) {
					t.Errorf("payload = % x, want 10 20 30", payload)
				}
			},
		},
		{
			name:    "dangling escape byte rejected",
			raw:     []byte{ReportIDResponse, FrameMarker, 0x00, 0x06, 0x5B, FrameMarker},
			wantErr: true,
		},
		{
			name:    "invalid escape sequence rejected",
			raw:     []byte{ReportIDResponse, FrameMarker, 0x00, 0x07, 0x5B, 0x09, 0x00, FrameMarker},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, consumed, err := DecodeFrame(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				if !IsFrameDecodeError(err) {
					t.Errorf("error type = %T, want frame decode error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeFrame error: %v", err)
			}
			if tt.verify != nil {
				tt.verify(t, payload, consumed)
			}
		})
	}
}
