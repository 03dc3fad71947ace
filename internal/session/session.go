package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openpanel/panellink/internal/logging"
	"github.com/openpanel/panellink/internal/protocol"
	"github.com/openpanel/panellink/internal/transport"
)

// Defaults applied by Open when an Options field is zero
const (
	DefaultCommandTimeout    = 5 * time.Second
	DefaultKeepAliveInterval = 10 * time.Second
	DefaultEventBuffer       = 16

	// infoReportSize covers the fixed-offset version report with slack
	infoReportSize = 16
	// capabilityReportSize covers the TLV block of every known firmware
	capabilityReportSize = 64
)

// Options tunes a Session. The zero value is usable; Open fills in defaults.
type Options struct {
	// ReadTimeout bounds one listener poll (default transport.DefaultReadTimeout)
	ReadTimeout time.Duration

	// CommandTimeout is the default deadline for awaited commands
	CommandTimeout time.Duration

	// EventBuffer sizes the broadcast channel; slow observers lose events
	// rather than stalling the listener
	EventBuffer int
}

// Session is the public facade over one panel. It owns the transport
// exclusively, runs the background listener for its lifetime, and exposes
// the typed operations and workflows of the device.
type Session struct {
	tr   transport.Transport
	opts Options

	seq protocol.SeqCounter

	// pending maps a command's sequence number to its waiter. Mutated by
	// caller goroutines (register/deregister) and the listener (match),
	// so every access holds mu.
	mu      sync.Mutex
	pending map[uint32]chan *protocol.Response

	// events receives every parsed response, matched or not
	events chan *protocol.Response

	// writeMu serializes report writes so command frames and transfer
	// blocks never interleave on the wire
	writeMu sync.Mutex

	infoMu sync.RWMutex
	info   *protocol.DeviceFirmwareInfo
	caps   *protocol.Capabilities

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	keepAliveOnce sync.Once
	keepAliveStop chan struct{}
}

// Open wraps an exclusively owned transport in a Session, eagerly loads
// firmware info and capabilities, and starts the background listener.
//
// Failures while loading info or capabilities are logged and leave the
// corresponding accessor returning nil; they never abort construction. The
// caller must Close the session, which also closes the transport.
func Open(tr transport.Transport, opts Options) *Session {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = transport.DefaultReadTimeout
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}

	s := &Session{
		tr:            tr,
		opts:          opts,
		pending:       make(map[uint32]chan *protocol.Response),
		events:        make(chan *protocol.Response, opts.EventBuffer),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		keepAliveStop: make(chan struct{}),
	}

	if err := s.RefreshFirmwareInfo(); err != nil {
		logging.Warn("Failed to load firmware info",
			zap.String("device", tr.Path()),
			zap.Error(err),
		)
	}
	if err := s.RefreshCapabilities(); err != nil {
		logging.Warn("Failed to load capabilities",
			zap.String("device", tr.Path()),
			zap.Error(err),
		)
	}

	go s.listen()
	logging.LogDeviceEvent(tr.Path(), "session_opened")
	return s
}

// Close stops the listener, stops the keep-alive sender if running, and
// closes the transport. In-flight SendAndAwait calls are not forcibly
// cancelled; each times out on its own deadline.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		err = s.tr.Close()
		logging.LogDeviceEvent(s.tr.Path(), "session_closed")
	})
	return err
}

// Events returns the broadcast channel carrying every parsed response,
// including unsolicited notifications and responses nobody awaited. The
// channel is buffered; events are dropped when the buffer is full.
func (s *Session) Events() <-chan *protocol.Response {
	return s.events
}

// FirmwareInfo returns the device info loaded at open (or last refresh).
// Nil when the device never answered the info report.
func (s *Session) FirmwareInfo() *protocol.DeviceFirmwareInfo {
	s.infoMu.RLock()
	defer s.infoMu.RUnlock()
	return s.info
}

// Capabilities returns the capability record loaded at open (or last
// refresh). Nil when the device never answered the capability report.
func (s *Session) Capabilities() *protocol.Capabilities {
	s.infoMu.RLock()
	defer s.infoMu.RUnlock()
	return s.caps
}

// RefreshFirmwareInfo re-reads the info feature report and replaces the
// cached record wholesale
func (s *Session) RefreshFirmwareInfo() error {
	buf, err := s.tr.GetFeatureReport(protocol.ReportIDInfo, infoReportSize)
	if err != nil {
		return err
	}
	info := protocol.ParseFirmwareInfo(buf)
	s.infoMu.Lock()
	s.info = info
	s.infoMu.Unlock()
	return nil
}

// RefreshCapabilities re-reads the capability feature report and replaces
// the cached record wholesale
func (s *Session) RefreshCapabilities() error {
	buf, err := s.tr.GetFeatureReport(protocol.ReportIDCapabilities, capabilityReportSize)
	if err != nil {
		return err
	}
	caps := protocol.ParseCapabilities(buf)
	s.infoMu.Lock()
	s.caps = caps
	s.infoMu.Unlock()
	return nil
}

// write sends one report under the write lock
func (s *Session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.tr.Write(data)
	return err
}

// sendCommand sends a command without registering a waiter. Used for
// fire-and-forget operations that the device never answers.
func (s *Session) sendCommand(command string, body []byte) error {
	seq := s.seq.Next()
	logging.LogCommand(s.tr.Path(), command, seq, len(body))
	return s.write(protocol.BuildCommand(command, seq, body))
}

type valueBody struct {
	Value any `json:"value"`
}

func marshalValue(v any) []byte {
	b, err := json.Marshal(valueBody{Value: v})
	if err != nil {
		// valueBody only ever carries scalars
		panic(err)
	}
	return b
}

// checkResponse converts a non-success response into a typed error
func checkResponse(command string, resp *protocol.Response) error {
	if resp.IsError() {
		return protocol.NewStatusError(command, resp.StatusCode)
	}
	return nil
}

// SetBrightness sets the panel brightness in percent. Values outside 0-100
// are rejected before any frame is built.
func (s *Session) SetBrightness(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return protocol.NewValidationError(fmt.Sprintf("brightness %d out of range [0, 100]", percent))
	}
	resp, err := s.SendAndAwait(ctx, protocol.CmdBrightness, marshalValue(percent), s.opts.CommandTimeout)
	if err != nil {
		return err
	}
	return checkResponse(protocol.CmdBrightness, resp)
}

// SetRotation rotates the display. Only 0, 90, 180 and 270 degrees are valid.
func (s *Session) SetRotation(ctx context.Context, degrees int) error {
	switch degrees {
	case 0, 90, 180, 270:
	default:
		return protocol.NewValidationError(fmt.Sprintf("rotation %d not one of 0/90/180/270", degrees))
	}
	resp, err := s.SendAndAwait(ctx, protocol.CmdRotate, marshalValue(degrees), s.opts.CommandTimeout)
	if err != nil {
		return err
	}
	return checkResponse(protocol.CmdRotate, resp)
}

// SetDisplayInSleep controls whether the panel keeps displaying while the
// host sleeps
func (s *Session) SetDisplayInSleep(ctx context.Context, enabled bool) error {
	resp, err := s.SendAndAwait(ctx, protocol.CmdDisplaySleep, marshalValue(enabled), s.opts.CommandTimeout)
	if err != nil {
		return err
	}
	return checkResponse(protocol.CmdDisplaySleep, resp)
}

// SetKeepAliveTimeout sets how long the panel waits for keep-alives before
// blanking, in seconds
func (s *Session) SetKeepAliveTimeout(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return protocol.NewValidationError("keep-alive timeout must be positive")
	}
	resp, err := s.SendAndAwait(ctx, protocol.CmdKeepAliveTimeout, marshalValue(seconds), s.opts.CommandTimeout)
	if err != nil {
		return err
	}
	return checkResponse(protocol.CmdKeepAliveTimeout, resp)
}

// SetRealtimeDisplay enables or disables real-time display mode. Disabling
// it is the entry into suspend mode.
func (s *Session) SetRealtimeDisplay(ctx context.Context, enabled bool) error {
	resp, err := s.SendAndAwait(ctx, protocol.CmdRealtimeDisplay, marshalValue(enabled), s.opts.CommandTimeout)
	if err != nil {
		return err
	}
	return checkResponse(protocol.CmdRealtimeDisplay, resp)
}

// SetSkuColor sets the SKU accent color as 0xRRGGBB
func (s *Session) SetSkuColor(ctx context.Context, rgb uint32) error {
	if rgb > 0xFFFFFF {
		return protocol.NewValidationError(fmt.Sprintf("sku color 0x%x exceeds 24 bits", rgb))
	}
	resp, err := s.SendAndAwait(ctx, protocol.CmdSkuColor, marshalValue(rgb), s.opts.CommandTimeout)
	if err != nil {
		return err
	}
	return checkResponse(protocol.CmdSkuColor, resp)
}

// SerialNumber queries the panel serial number
func (s *Session) SerialNumber(ctx context.Context) (string, error) {
	resp, err := s.SendAndAwait(ctx, protocol.CmdSerialNumber, nil, s.opts.CommandTimeout)
	if err != nil {
		return "", err
	}
	if err := checkResponse(protocol.CmdSerialNumber, resp); err != nil {
		return "", err
	}
	var body struct {
		Sn string `json:"sn"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("failed to parse serial number body: %w", err)
	}
	return body.Sn, nil
}

// Reboot restarts the panel. Fire-and-forget: the device drops off the bus
// immediately, so no response is awaited.
func (s *Session) Reboot() error {
	return s.sendCommand(protocol.CmdReboot, nil)
}

// FactoryReset restores factory defaults. Fire-and-forget like Reboot.
func (s *Session) FactoryReset() error {
	return s.sendCommand(protocol.CmdFactoryReset, nil)
}

// StartKeepAlive starts the periodic keep-alive sender. The panel blanks
// when it misses keep-alives for its configured timeout, so the interval
// should be well under SetKeepAliveTimeout's value. Stopped by Close; may
// be started at most once per session.
func (s *Session) StartKeepAlive(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	s.keepAliveOnce.Do(func() {
		go s.keepAliveLoop(interval)
	})
}

func (s *Session) keepAliveLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			seq := s.seq.Next()
			if err := s.write(protocol.BuildKeepAlive(seq, now)); err != nil {
				logging.Warn("Keep-alive write failed",
					zap.String("device", s.tr.Path()),
					zap.Error(err),
				)
			}
		}
	}
}
