package protocol

import (
	"math"
	"strings"
	"testing"
	"time"
)

// decodeText decodes an outbound command frame back to its request text
func decodeText(t *testing.T, frame []byte) string {
	t.Helper()
	payload, _, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	return string(payload)
}

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		seq     uint32
		body    []byte
		verify  func(t *testing.T, text string)
	}{
		{
			name:    "brightness with json body",
			command: CmdBrightness,
			seq:     3,
			body:    []byte(`{"value":80}`),
			verify: func(t *testing.T, text string) {
				if !strings.HasPrefix(text, "POST brightness 1\r\n") {
					t.Errorf("request line wrong: %q", text)
				}
				if !strings.Contains(text, "SeqNumber=3\r\n") {
					t.Error("missing SeqNumber header")
				}
				if !strings.Contains(text, "ContentType=json\r\n") {
					t.Error("missing ContentType header")
				}
				// ContentLength equals the UTF-8 byte length of the body
				if !strings.Contains(text, "ContentLength=12\r\n") {
					t.Errorf("missing or wrong ContentLength: %q", text)
				}
				if !strings.HasSuffix(text, "\r\n\r\n{\"value\":80}") {
					t.Errorf("body not after blank line: %q", text)
				}
			},
		},
		{
			name:    "empty body",
			command: CmdGetStatus,
			seq:     42,
			body:    nil,
			verify: func(t *testing.T, text string) {
				if !strings.Contains(text, "ContentLength=0\r\n") {
					t.Errorf("ContentLength should be 0: %q", text)
				}
				if !strings.HasSuffix(text, "\r\n\r\n") {
					t.Errorf("headers not terminated by blank line: %q", text)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := BuildCommand(tt.command, tt.seq, tt.body)
			if frame[0] != ReportIDCommand {
				t.Errorf("report id = 0x%02x, want 0x%02x", frame[0], ReportIDCommand)
			}
			tt.verify(t, decodeText(t, frame))
		})
	}
}

func TestBuildKeepAlive(t *testing.T) {
	now := time.Unix(1724400000, 0)
	frame := BuildKeepAlive(7, now)
	text := decodeText(t, frame)

	if !strings.HasPrefix(text, "STATE timestamp 1\r\n") {
		t.Errorf("request line wrong: %q", text)
	}
	if !strings.Contains(text, "SeqNumber=7\r\n") {
		t.Error("missing SeqNumber header")
	}
	if !strings.Contains(text, `{"value":1724400000}`) {
		t.Errorf("body missing timestamp: %q", text)
	}
}

func TestSeqCounterStartsAtOne(t *testing.T) {
	var c SeqCounter
	if got := c.Next(); got != 1 {
		t.Errorf("first sequence = %d, want 1", got)
	}
	if got := c.Next(); got != 2 {
		t.Errorf("second sequence = %d, want 2", got)
	}
}

func TestSeqCounterWraparound(t *testing.T) {
	c := SeqCounter{n: math.MaxUint32 - 3}

	seen := make([]uint32, 0, 4)
	for i := 0; i < 4; i++ {
		seen = append(seen, c.Next())
	}

	for _, seq := range seen {
		if seq == 0 {
			t.Error("counter emitted 0")
		}
		if seq >= math.MaxUint32-1 {
			t.Errorf("counter emitted boundary value %d", seq)
		}
	}

	// MaxUint32-2 is the last valid number before the wrap
	if seen[0] != math.MaxUint32-2 {
		t.Errorf("pre-wrap sequence = %d, want %d", seen[0], uint32(math.MaxUint32-2))
	}
	if seen[1] != 1 || seen[2] != 2 || seen[3] != 3 {
		t.Errorf("post-wrap sequences = %v, want [.. 1 2 3]", seen[1:])
	}
}

func TestSeqCounterConcurrent(t *testing.T) {
	var c SeqCounter

	const goroutines = 8
	const perGoroutine = 1000

	results := make(chan uint32, goroutines*perGoroutine)
	for g := 0; g < goroutines; g++ {
		go func() {
			for i := 0; i < perGoroutine; i++ {
				results <- c.Next()
			}
		}()
	}

	seen := make(map[uint32]bool, goroutines*perGoroutine)
	for i := 0; i < goroutines*perGoroutine; i++ {
		seq := <-results
		if seq == 0 {
			t.Fatal("counter emitted 0")
		}
		if seen[seq] {
			t.Fatalf("duplicate sequence number %d", seq)
		}
		seen[seq] = true
	}
}
