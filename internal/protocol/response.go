package protocol

import (
	"strconv"
	"strings"
)

// Response status codes. Codes >= 400 are application-level errors; codes
// between 201 and 399 are neither definitive success nor failure and callers
// must not assume either unless a command documents otherwise.
const (
	StatusOK          = 200
	statusErrorsBegin = 400
)

// Response is a parsed inbound response from the panel
type Response struct {
	Command       string // Echoed command token from the first line
	StatusCode    int    // Numeric status from the first line
	AckNumber     uint32 // Originating command's SeqNumber + 1; 0 when absent
	ContentType   string
	ContentLength int
	Body          []byte // JSON body, lines joined with \n; nil when absent
}

// Deliverable reports whether the response can be matched to a pending
// request. The firmware emits unsolicited notifications with AckNumber 0.
func (r *Response) Deliverable() bool {
	return r.AckNumber > 0
}

// OK reports definitive success
func (r *Response) OK() bool {
	return r.StatusCode == StatusOK
}

// IsError reports an application-level failure
func (r *Response) IsError() bool {
	return r.StatusCode >= statusErrorsBegin
}

// ParseResponse parses the de-escaped payload of an inbound frame:
//
//	<command-token> <statusCode>\r\n
//	AckNumber=<n>\r\n
//	ContentType=json\r\n
//	ContentLength=<n>\r\n
//	\r\n
//	<json body lines>
//
// Header order is not guaranteed by the firmware. Everything from the first
// line containing '{' onward is treated as body; body lines are joined with
// newline separators. Some firmware revisions terminate lines with a bare
// \n, so both forms are accepted.
func ParseResponse(payload []byte) (*Response, error) {
	text := strings.ReplaceAll(string(payload), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, NewFrameDecodeError("empty response text", len(payload))
	}

	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return nil, NewFrameDecodeError("malformed response status line", len(fields))
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, NewFrameDecodeError("non-numeric status code", 0)
	}

	resp := &Response{
		Command:    fields[0],
		StatusCode: status,
	}

	var bodyLines []string
	inBody := false
	for _, line := range lines[1:] {
		if !inBody && strings.Contains(line, "{") {
			inBody = true
		}
		if inBody {
			bodyLines = append(bodyLines, line)
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch key {
		case HeaderAckNumber:
			if n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32); err == nil {
				resp.AckNumber = uint32(n)
			}
		case HeaderContentType:
			resp.ContentType = strings.TrimSpace(value)
		case HeaderContentLength:
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				resp.ContentLength = n
			}
		}
	}

	if len(bodyLines) > 0 {
		resp.Body = []byte(strings.Join(bodyLines, "\n"))
	}

	return resp, nil
}
