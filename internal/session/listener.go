package session

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/openpanel/panellink/internal/logging"
	"github.com/openpanel/panellink/internal/protocol"
	"github.com/openpanel/panellink/internal/transport"
)

// listen is the background read loop. It runs for the lifetime of the
// session: bounded-timeout reads, frame decode, response parse, waiter
// dispatch. Nothing that arrives on the wire can stop it; malformed frames
// are dropped and transport errors retried with backoff.
func (s *Session) listen() {
	defer close(s.done)
	logging.LogDeviceEvent(s.tr.Path(), "listener_started")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = 0 // retry forever; only Close stops the loop

	buf := make([]byte, transport.MaxReportSize)
	for {
		select {
		case <-s.stop:
			logging.LogDeviceEvent(s.tr.Path(), "listener_stopped")
			return
		default:
		}

		n, err := s.tr.Read(buf, s.opts.ReadTimeout)
		if err != nil {
			wait := bo.NextBackOff()
			logging.Warn("Listener read failed",
				zap.String("device", s.tr.Path()),
				zap.Duration("retry_in", wait),
				zap.Error(err),
			)
			select {
			case <-s.stop:
				logging.LogDeviceEvent(s.tr.Path(), "listener_stopped")
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		if n == 0 {
			// Poll timeout; gives the stop check a chance
			continue
		}
		s.dispatch(buf[:n])
	}
}

// dispatch decodes one raw report and routes the parsed response: first to
// the waiter whose sequence number the AckNumber answers, then always to the
// broadcast channel.
func (s *Session) dispatch(raw []byte) {
	payload, consumed, err := protocol.DecodeFrame(raw)
	if err != nil {
		// Drop this read, try again
		logging.Debug("Dropping undecodable report",
			zap.String("device", s.tr.Path()),
			zap.Int("length", len(raw)),
			zap.Error(err),
		)
		return
	}
	if consumed < len(raw) {
		logging.Debug("Discarding trailing bytes after frame",
			zap.String("device", s.tr.Path()),
			zap.Int("trailing", len(raw)-consumed),
		)
	}

	resp, err := protocol.ParseResponse(payload)
	if err != nil {
		logging.Debug("Dropping unparseable response",
			zap.String("device", s.tr.Path()),
			zap.Error(err),
		)
		return
	}
	logging.LogResponse(s.tr.Path(), resp.Command, resp.AckNumber, resp.StatusCode)

	if resp.Deliverable() {
		seq := resp.AckNumber - 1
		s.mu.Lock()
		waiter, ok := s.pending[seq]
		if ok {
			delete(s.pending, seq)
		}
		s.mu.Unlock()
		if ok {
			// Buffered with capacity 1; never blocks the listener
			waiter <- resp
		}
	}

	// Broadcast regardless of matching; observers that lag lose events
	select {
	case s.events <- resp:
	default:
	}
}

// SendAndAwait sends a command and blocks the calling goroutine until the
// matching response arrives or the deadline passes. The listener thread is
// never blocked; multiple calls may be outstanding concurrently, each keyed
// by its own sequence number.
//
// A timeout surfaces as a typed timeout error, not a panic or a hang; the
// pending entry is always deregistered on every path.
func (s *Session) SendAndAwait(ctx context.Context, command string, body []byte, timeout time.Duration) (*protocol.Response, error) {
	if timeout <= 0 {
		timeout = s.opts.CommandTimeout
	}

	seq := s.seq.Next()
	frame := protocol.BuildCommand(command, seq, body)

	waiter := make(chan *protocol.Response, 1)
	s.mu.Lock()
	s.pending[seq] = waiter
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, seq)
		s.mu.Unlock()
	}()

	logging.LogCommand(s.tr.Path(), command, seq, len(body))
	if err := s.write(frame); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-waiter:
		return resp, nil
	case <-timer.C:
		return nil, protocol.NewTimeoutError(command)
	case <-ctx.Done():
		return nil, protocol.NewTransportError("command cancelled", ctx.Err())
	}
}
