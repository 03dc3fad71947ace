package protocol

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// Command tokens understood by the panel firmware
const (
	CmdBrightness       = "brightness"
	CmdRotate           = "rotate"
	CmdDisplaySleep     = "displaysleep"
	CmdKeepAliveTimeout = "keepalivetime"
	CmdRealtimeDisplay  = "realtime"
	CmdGetStatus        = "getstatus"
	CmdSkuColor         = "skucolor"
	CmdSerialNumber     = "serialnumber"
	CmdReboot           = "reboot"
	CmdFactoryReset     = "factoryreset"
	CmdTransport        = "transport"
	CmdTransported      = "transported"
	CmdDeleteSuspend    = "deletesuspend"
	CmdTimestamp        = "timestamp"
)

// Request line and header constants of the command sub-protocol
const (
	methodPost  = "POST"
	methodState = "STATE"

	// subProtocolVersion is the trailing token of every request line
	subProtocolVersion = "1"

	HeaderSeqNumber     = "SeqNumber"
	HeaderAckNumber     = "AckNumber"
	HeaderContentType   = "ContentType"
	HeaderContentLength = "ContentLength"

	contentTypeJSON = "json"
)

// BuildCommand renders a command as the ASCII request text
//
//	POST <command> 1\r\n
//	SeqNumber=<seq>\r\n
//	ContentType=json\r\n
//	ContentLength=<len>\r\n
//	\r\n
//	<json body>
//
// and wraps it in an escaped frame ready to write as a single HID report.
// ContentLength is the byte length of the body, which may be empty.
func BuildCommand(command string, seq uint32, body []byte) []byte {
	return EncodeFrame(renderRequest(methodPost, command, seq, body))
}

// BuildKeepAlive renders the keep-alive variant of the request text. The
// request line uses the STATE method with the timestamp pseudo-command; the
// body carries the current time as Unix seconds.
func BuildKeepAlive(seq uint32, now time.Time) []byte {
	body := fmt.Sprintf(`{"value":%d}`, now.Unix())
	return EncodeFrame(renderRequest(methodState, CmdTimestamp, seq, []byte(body)))
}

func renderRequest(method, command string, seq uint32, body []byte) []byte {
	var b strings.Builder
	b.Grow(64 + len(body))
	fmt.Fprintf(&b, "%s %s %s\r\n", method, command, subProtocolVersion)
	fmt.Fprintf(&b, "%s=%d\r\n", HeaderSeqNumber, seq)
	fmt.Fprintf(&b, "%s=%s\r\n", HeaderContentType, contentTypeJSON)
	fmt.Fprintf(&b, "%s=%d\r\n", HeaderContentLength, len(body))
	b.WriteString("\r\n")
	b.Write(body)
	return []byte(b.String())
}

// seqWrapBoundary is never emitted; the counter resets to 1 before
// reaching it. The device reserves the top of the range.
const seqWrapBoundary = math.MaxUint32 - 1

// SeqCounter issues command sequence numbers. Numbers start at 1, increment
// per command and wrap back to 1 before reaching the boundary value. Zero is
// never emitted: the firmware treats AckNumber 0 as "no correlation".
//
// The zero value is ready to use and safe for concurrent use.
type SeqCounter struct {
	n uint32
}

// Next returns the next sequence number
func (c *SeqCounter) Next() uint32 {
	for {
		seq := atomic.AddUint32(&c.n, 1)
		if seq == 0 || seq >= seqWrapBoundary {
			atomic.StoreUint32(&c.n, 0)
			continue
		}
		return seq
	}
}
