package protocol

import (
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		verify  func(t *testing.T, resp *Response)
	}{
		{
			name: "success with body",
			text: "brightness 200\r\nAckNumber=4\r\nContentType=json\r\nContentLength=12\r\n\r\n{\"value\":80}",
			verify: func(t *testing.T, resp *Response) {
				if resp.Command != "brightness" {
					t.Errorf("command = %q, want brightness", resp.Command)
				}
				if resp.StatusCode != 200 {
					t.Errorf("status = %d, want 200", resp.StatusCode)
				}
				if resp.AckNumber != 4 {
					t.Errorf("ack = %d, want 4", resp.AckNumber)
				}
				if resp.ContentLength != 12 {
					t.Errorf("content length = %d, want 12", resp.ContentLength)
				}
				if string(resp.Body) != `{"value":80}` {
					t.Errorf("body = %q", resp.Body)
				}
				if !resp.Deliverable() || !resp.OK() || resp.IsError() {
					t.Error("predicates wrong for success response")
				}
			},
		},
		{
			name: "multi-line body joined with newlines",
			text: "getstatus 200\r\nAckNumber=10\r\n\r\n{\r\n\"brightness\":60,\r\n\"rotate\":90\r\n}",
			verify: func(t *testing.T, resp *Response) {
				want := "{\n\"brightness\":60,\n\"rotate\":90\n}"
				if string(resp.Body) != want {
					t.Errorf("body = %q, want %q", resp.Body, want)
				}
			},
		},
		{
			name: "error status",
			text: "transport 500\r\nAckNumber=8\r\n\r\n",
			verify: func(t *testing.T, resp *Response) {
				if !resp.IsError() {
					t.Error("status 500 should be an error")
				}
				if resp.OK() {
					t.Error("status 500 is not OK")
				}
				if resp.Body != nil {
					t.Errorf("body = %q, want nil", resp.Body)
				}
			},
		},
		{
			name: "intermediate status is neither success nor error",
			text: "rotate 302\r\nAckNumber=2\r\n\r\n",
			verify: func(t *testing.T, resp *Response) {
				if resp.OK() || resp.IsError() {
					t.Error("status 302 must be neither OK nor error")
				}
			},
		},
		{
			name: "missing ack is not deliverable",
			text: "notify 200\r\nContentType=json\r\n\r\n{\"event\":\"osd\"}",
			verify: func(t *testing.T, resp *Response) {
				if resp.Deliverable() {
					t.Error("AckNumber 0 must not be deliverable")
				}
			},
		},
		{
			name: "bare newline separators accepted",
			text: "brightness 200\nAckNumber=4\n\n{\"value\":80}",
			verify: func(t *testing.T, resp *Response) {
				if resp.AckNumber != 4 {
					t.Errorf("ack = %d, want 4", resp.AckNumber)
				}
				if string(resp.Body) != `{"value":80}` {
					t.Errorf("body = %q", resp.Body)
				}
			},
		},
		{
			name: "unknown headers skipped",
			text: "serialnumber 200\r\nAckNumber=6\r\nDeviceTime=12345\r\n\r\n{\"sn\":\"AB12\"}",
			verify: func(t *testing.T, resp *Response) {
				if resp.AckNumber != 6 {
					t.Errorf("ack = %d, want 6", resp.AckNumber)
				}
			},
		},
		{
			name:    "empty text",
			text:    "",
			wantErr: true,
		},
		{
			name:    "status line without code",
			text:    "brightness\r\nAckNumber=4\r\n\r\n",
			wantErr: true,
		},
		{
			name:    "non-numeric status",
			text:    "brightness abc\r\n\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse([]byte(tt.text))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResponse: %v", err)
			}
			tt.verify(t, resp)
		})
	}
}
