package session

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/openpanel/panellink/internal/protocol"
	"github.com/openpanel/panellink/internal/transfer"
)

func TestPushMediaSequence(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = ackAll("")
	s := Open(ft, testOptions())
	defer s.Close()

	data := bytes.Repeat([]byte{0xAB}, 2500)
	var progress []int
	err := s.SendBackground(context.Background(), "wave.mp4", data, func(blockIndex, totalBlocks int) {
		progress = append(progress, blockIndex)
	})
	if err != nil {
		t.Fatalf("SendBackground: %v", err)
	}

	writes := ft.written()
	// announce + 3 blocks + confirm
	if len(writes) != 5 {
		t.Fatalf("writes = %d, want 5", len(writes))
	}

	cmd, _, body, ok := parseCommandReport(writes[0])
	if !ok || cmd != protocol.CmdTransport {
		t.Fatalf("first write command = %q, want %q", cmd, protocol.CmdTransport)
	}
	var announce struct {
		Type     int    `json:"type"`
		FileName string `json:"fileName"`
		FileSize int    `json:"fileSize"`
	}
	if err := json.Unmarshal(body, &announce); err != nil {
		t.Fatalf("announce body: %v", err)
	}
	if announce.Type != int(transfer.MediaBackground) || announce.FileName != "wave.mp4" || announce.FileSize != 2500 {
		t.Errorf("announce = %+v, want type %d, wave.mp4, 2500", announce, transfer.MediaBackground)
	}

	// Block payload starts after report id, marker, length and the fixed header
	const blockPayloadOffset = 24
	var reassembled []byte
	for i, report := range writes[1:4] {
		if report[0] != protocol.ReportIDFileTransfer {
			t.Fatalf("write %d report id = %#02x, want %#02x", i+1, report[0], protocol.ReportIDFileTransfer)
		}
		reassembled = append(reassembled, report[blockPayloadOffset:]...)
	}
	if !bytes.Equal(reassembled, data) {
		t.Error("reassembled block payloads differ from pushed data")
	}

	cmd, _, body, ok = parseCommandReport(writes[4])
	if !ok || cmd != protocol.CmdTransported {
		t.Fatalf("last write command = %q, want %q", cmd, protocol.CmdTransported)
	}
	var confirm struct {
		FileName string `json:"fileName"`
		Md5      string `json:"md5"`
	}
	if err := json.Unmarshal(body, &confirm); err != nil {
		t.Fatalf("confirm body: %v", err)
	}
	sum := md5.Sum(data)
	if confirm.FileName != "wave.mp4" || confirm.Md5 != hex.EncodeToString(sum[:]) {
		t.Errorf("confirm = %+v, want wave.mp4 with matching md5", confirm)
	}

	if len(progress) != 3 || progress[0] != 0 || progress[2] != 2 {
		t.Errorf("progress indices = %v, want [0 1 2]", progress)
	}
}

func TestPushMediaAbortsWhenAnnounceRejected(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = func(command string, seq uint32, _ []byte) [][]byte {
		return [][]byte{responseFrame(command, 500, seq+1, "")}
	}
	s := Open(ft, testOptions())
	defer s.Close()

	err := s.SendOsd(context.Background(), "badge.png", []byte{1, 2, 3}, nil)
	if err == nil {
		t.Fatal("rejected announce must abort the push")
	}
	if !protocol.IsStatusError(err) {
		t.Errorf("error type = %T (%v), want status error", err, err)
	}

	for i, report := range ft.written() {
		if report[0] == protocol.ReportIDFileTransfer {
			t.Errorf("write %d is a transfer block after rejected announce", i)
		}
	}
}

func TestPushMediaValidation(t *testing.T) {
	ft := newFakeTransport()
	s := Open(ft, testOptions())
	defer s.Close()

	cases := []struct {
		name string
		run  func() error
	}{
		{"empty file name", func() error {
			return s.SendBackground(context.Background(), "", []byte{1}, nil)
		}},
		{"empty data", func() error {
			return s.SendBackground(context.Background(), "a.png", nil, nil)
		}},
		{"suspend slot negative", func() error {
			return s.PushSuspendSlot(context.Background(), -1, "a.png", []byte{1}, nil)
		}},
		{"suspend slot beyond max", func() error {
			return s.PushSuspendSlot(context.Background(), MaxSuspendSlots, "a.png", []byte{1}, nil)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !protocol.IsValidationError(err) {
				t.Errorf("error type = %T (%v), want validation error", err, err)
			}
		})
	}
	if len(ft.written()) != 0 {
		t.Error("rejected pushes must not reach the wire")
	}
}

func TestPushMediaRespectsDeviceFileSizeLimit(t *testing.T) {
	ft := newFakeTransport()
	ft.features = map[byte][]byte{
		// max file size tag: 1024 bytes little-endian
		protocol.ReportIDCapabilities: {protocol.ReportIDCapabilities, 0x09, 0x04, 0x00, 0x04, 0x00, 0x00},
	}
	s := Open(ft, testOptions())
	defer s.Close()

	err := s.SendBackground(context.Background(), "big.mp4", make([]byte, 2048), nil)
	if err == nil {
		t.Fatal("oversized file must be rejected")
	}
	if !protocol.IsValidationError(err) {
		t.Errorf("error type = %T (%v), want validation error", err, err)
	}
}

func TestSuspendSlotLimitFromCapabilities(t *testing.T) {
	ft := newFakeTransport()
	ft.features = map[byte][]byte{
		// device reports only 2 suspend slots
		protocol.ReportIDCapabilities: {protocol.ReportIDCapabilities, 0x07, 0x01, 0x02},
	}
	ft.respond = ackAll("")
	s := Open(ft, testOptions())
	defer s.Close()

	if err := s.PushSuspendSlot(context.Background(), 1, "a.png", []byte{1}, nil); err != nil {
		t.Errorf("slot 1 within device limit: %v", err)
	}
	err := s.PushSuspendSlot(context.Background(), 2, "a.png", []byte{1}, nil)
	if !protocol.IsValidationError(err) {
		t.Errorf("slot 2 beyond device limit: got %v, want validation error", err)
	}
}

func TestExitSuspendModeSequence(t *testing.T) {
	ft := newFakeTransport()
	ft.respond = ackAll("")
	s := Open(ft, testOptions())
	defer s.Close()

	if err := s.ExitSuspendMode(context.Background()); err != nil {
		t.Fatalf("ExitSuspendMode: %v", err)
	}

	writes := ft.written()
	if len(writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(writes))
	}

	cmd, _, body, _ := parseCommandReport(writes[0])
	if cmd != protocol.CmdDeleteSuspend {
		t.Errorf("first command = %q, want %q", cmd, protocol.CmdDeleteSuspend)
	}
	if string(body) != `{"fileName":"all"}` {
		t.Errorf("delete body = %q, want wildcard", body)
	}

	cmd, _, body, _ = parseCommandReport(writes[1])
	if cmd != protocol.CmdRealtimeDisplay {
		t.Errorf("second command = %q, want %q", cmd, protocol.CmdRealtimeDisplay)
	}
	if string(body) != `{"value":true}` {
		t.Errorf("realtime body = %q, want {\"value\":true}", body)
	}
}
