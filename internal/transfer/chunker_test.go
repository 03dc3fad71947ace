package transfer

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/openpanel/panellink/internal/protocol"
)

// recordingTransport captures written reports for inspection
type recordingTransport struct {
	writes [][]byte
	failAt int // fail the write with this index (-1 = never)
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{failAt: -1}
}

func (rt *recordingTransport) Write(data []byte) (int, error) {
	if rt.failAt >= 0 && len(rt.writes) == rt.failAt {
		return 0, protocol.NewTransportError("simulated write failure", nil)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	rt.writes = append(rt.writes, buf)
	return len(data), nil
}

func (rt *recordingTransport) Read(buf []byte, timeout time.Duration) (int, error) {
	return 0, nil
}

func (rt *recordingTransport) GetFeatureReport(reportID byte, size int) ([]byte, error) {
	return nil, protocol.NewTransportError("no feature reports", nil)
}

func (rt *recordingTransport) Path() string { return "test" }
func (rt *recordingTransport) Close() error { return nil }

func TestBuildBlock(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	block := BuildBlock(7, 3, 1, MediaBackground, payload)

	if block[0] != protocol.ReportIDFileTransfer {
		t.Errorf("report id = 0x%02x, want 0x%02x", block[0], protocol.ReportIDFileTransfer)
	}
	if block[1] != BlockMarker {
		t.Errorf("marker = 0x%02x, want 0x%02x", block[1], BlockMarker)
	}
	if got := binary.BigEndian.Uint16(block[2:4]); got != headerSize+4 {
		t.Errorf("length = %d, want %d", got, headerSize+4)
	}
	if block[4] != 7 {
		t.Errorf("transfer id = %d, want 7", block[4])
	}
	if got := binary.BigEndian.Uint16(block[5:7]); got != 3 {
		t.Errorf("count = %d, want 3", got)
	}
	if got := binary.BigEndian.Uint16(block[7:9]); got != 1 {
		t.Errorf("index = %d, want 1", got)
	}
	if block[9] != byte(MediaBackground) {
		t.Errorf("media type = 0x%02x, want 0x%02x", block[9], byte(MediaBackground))
	}
	for i := 10; i < 24; i++ {
		if block[i] != 0 {
			t.Errorf("reserved byte %d = 0x%02x, want 0x00", i, block[i])
		}
	}
	if !bytes.Equal(block[24:], payload) {
		t.Errorf("payload = % x, want % x", block[24:], payload)
	}
}

func TestSendFileChunking(t *testing.T) {
	// 2500 bytes at block size 1000 must yield exactly 3 blocks
	data := make([]byte, 2500)
	for i := range data {
		data[i] = byte(i)
	}

	rt := newRecordingTransport()
	var progress []int
	err := SendFile(rt, data, MediaBackground, 0, 1000, func(index, total int) {
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
		progress = append(progress, index)
	})
	if err != nil {
		t.Fatalf("SendFile: %v", err)
	}

	if len(rt.writes) != 3 {
		t.Fatalf("blocks written = %d, want 3", len(rt.writes))
	}

	for i, block := range rt.writes {
		if got := binary.BigEndian.Uint16(block[5:7]); got != 3 {
			t.Errorf("block %d count = %d, want 3", i, got)
		}
		if got := binary.BigEndian.Uint16(block[7:9]); int(got) != i {
			t.Errorf("block %d index = %d", i, got)
		}
	}

	// Last block carries the 500-byte remainder
	if got := len(rt.writes[2]) - 4 - headerSize; got != 500 {
		t.Errorf("last block payload = %d bytes, want 500", got)
	}

	// Payload bytes survive reassembly
	var reassembled []byte
	for _, block := range rt.writes {
		reassembled = append(reassembled, block[4+headerSize:]...)
	}
	if !bytes.Equal(reassembled, data) {
		t.Error("reassembled payload differs from input")
	}

	if len(progress) != 3 || progress[0] != 0 || progress[2] != 2 {
		t.Errorf("progress calls = %v, want [0 1 2]", progress)
	}
}

func TestSendFileValidation(t *testing.T) {
	data := []byte{0x01}

	tests := []struct {
		name       string
		data       []byte
		transferID int
		blockSize  int
	}{
		{"negative transfer id", data, -1, 100},
		{"transfer id too large", data, MaxTransferID + 1, 100},
		{"zero block size", data, 0, 0},
		{"block size too large", data, 0, MaxBlockSize + 1},
		{"empty data", nil, 0, 100},
		{"too many blocks", make([]byte, MaxBlocks+1), 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newRecordingTransport()
			err := SendFile(rt, tt.data, MediaBackground, tt.transferID, tt.blockSize, nil)
			if err == nil {
				t.Fatal("expected validation error, got none")
			}
			if !protocol.IsValidationError(err) {
				t.Errorf("error type = %T (%v), want validation error", err, err)
			}
			if len(rt.writes) != 0 {
				t.Errorf("wrote %d blocks before rejection, want 0", len(rt.writes))
			}
		})
	}
}

func TestSendFileWriteFailureAborts(t *testing.T) {
	rt := newRecordingTransport()
	rt.failAt = 1

	err := SendFile(rt, make([]byte, 2500), MediaFirmware, 3, 1000, nil)
	if err == nil {
		t.Fatal("expected write failure to surface")
	}
	if len(rt.writes) != 1 {
		t.Errorf("blocks written = %d, want 1 (abort after failure)", len(rt.writes))
	}
}
