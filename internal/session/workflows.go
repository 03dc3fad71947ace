package session

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/openpanel/panellink/internal/logging"
	"github.com/openpanel/panellink/internal/protocol"
	"github.com/openpanel/panellink/internal/transfer"
)

// Transfer identifiers by media kind. Suspend slots get one id each above
// suspendTransferBase; everything stays inside the device's 0-59 window.
const (
	transferIDBackground  = 0
	transferIDOsd         = 1
	transferIDPowerupLogo = 2
	transferIDFirmware    = 3
	suspendTransferBase   = 10
)

// announceMaxRetries bounds re-announcing when the device is slow to accept
// a transfer. Chunking and confirmation are never retried; a failure there
// aborts the workflow and the caller re-invokes it whole.
const announceMaxRetries = 2

// announceBody is the wire shape of the transport announce command
type announceBody struct {
	Type     int    `json:"type"`
	FileName string `json:"fileName"`
	FileSize int    `json:"fileSize"`
}

// confirmBody is the wire shape of the transported completion command
type confirmBody struct {
	FileName string `json:"fileName"`
	Md5      string `json:"md5"`
}

// deleteBody is the wire shape of the suspend delete command
type deleteBody struct {
	FileName string `json:"fileName"`
}

// PushMedia runs the three-step media push workflow:
//
//  1. announce the transfer ("transport" command with type, name and size)
//     and await success,
//  2. stream the file through the chunked transfer channel,
//  3. confirm completion ("transported" command with name and MD5) and
//     await success.
//
// Any step's failure aborts the workflow; there is no automatic retry
// across steps. onProgress may be nil.
func (s *Session) PushMedia(ctx context.Context, mediaType transfer.MediaType, transferID int, fileName string, data []byte, onProgress transfer.ProgressFunc) error {
	if fileName == "" {
		return protocol.NewValidationError("file name required")
	}
	if len(data) == 0 {
		return protocol.NewValidationError("empty media file")
	}
	if caps := s.Capabilities(); caps != nil && caps.MaxFileSize > 0 && uint32(len(data)) > caps.MaxFileSize {
		return protocol.NewValidationError(fmt.Sprintf("file size %d exceeds device limit %d", len(data), caps.MaxFileSize))
	}

	logging.Info("Media push started",
		zap.String("device", s.tr.Path()),
		zap.String("media_type", mediaType.String()),
		zap.String("file", fileName),
		zap.Int("size", len(data)),
	)

	if err := s.announce(ctx, mediaType, fileName, len(data)); err != nil {
		return fmt.Errorf("announce failed: %w", err)
	}

	if err := transfer.SendFile(&lockedTransport{s: s}, data, mediaType, transferID, transfer.MaxBlockSize, onProgress); err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}

	sum := md5.Sum(data)
	if err := s.confirm(ctx, fileName, hex.EncodeToString(sum[:])); err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}

	logging.Info("Media push finished",
		zap.String("device", s.tr.Path()),
		zap.String("file", fileName),
	)
	return nil
}

// announce sends the transport command, retrying with exponential backoff
// while the failure is retryable (timeout, transport hiccup)
func (s *Session) announce(ctx context.Context, mediaType transfer.MediaType, fileName string, size int) error {
	body, err := json.Marshal(announceBody{
		Type:     int(mediaType),
		FileName: fileName,
		FileSize: size,
	})
	if err != nil {
		return err
	}

	op := func() error {
		resp, err := s.SendAndAwait(ctx, protocol.CmdTransport, body, s.opts.CommandTimeout)
		if err != nil {
			if protocol.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if err := checkResponse(protocol.CmdTransport, resp); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), announceMaxRetries),
		ctx,
	)
	return backoff.Retry(op, bo)
}

func (s *Session) confirm(ctx context.Context, fileName, md5hex string) error {
	body, err := json.Marshal(confirmBody{FileName: fileName, Md5: md5hex})
	if err != nil {
		return err
	}
	resp, err := s.SendAndAwait(ctx, protocol.CmdTransported, body, s.opts.CommandTimeout)
	if err != nil {
		return err
	}
	return checkResponse(protocol.CmdTransported, resp)
}

// lockedTransport routes transfer block writes through the session write
// lock so they cannot interleave with command frames
type lockedTransport struct {
	s *Session
}

func (lt *lockedTransport) Write(data []byte) (int, error) {
	lt.s.writeMu.Lock()
	defer lt.s.writeMu.Unlock()
	return lt.s.tr.Write(data)
}

func (lt *lockedTransport) Read(buf []byte, timeout time.Duration) (int, error) {
	return lt.s.tr.Read(buf, timeout)
}

func (lt *lockedTransport) GetFeatureReport(reportID byte, size int) ([]byte, error) {
	return lt.s.tr.GetFeatureReport(reportID, size)
}

func (lt *lockedTransport) Path() string { return lt.s.tr.Path() }
func (lt *lockedTransport) Close() error { return nil }

// SendBackground pushes a real-time background image or video
func (s *Session) SendBackground(ctx context.Context, fileName string, data []byte, onProgress transfer.ProgressFunc) error {
	return s.PushMedia(ctx, transfer.MediaBackground, transferIDBackground, fileName, data, onProgress)
}

// SendOsd pushes an on-screen display overlay
func (s *Session) SendOsd(ctx context.Context, fileName string, data []byte, onProgress transfer.ProgressFunc) error {
	return s.PushMedia(ctx, transfer.MediaOsd, transferIDOsd, fileName, data, onProgress)
}

// SendPowerupLogo pushes the logo shown at power-on
func (s *Session) SendPowerupLogo(ctx context.Context, fileName string, data []byte, onProgress transfer.ProgressFunc) error {
	return s.PushMedia(ctx, transfer.MediaPowerupLogo, transferIDPowerupLogo, fileName, data, onProgress)
}

// UpgradeFirmware pushes a firmware image. The device validates and applies
// the image after the confirmation step; it reboots on its own when the
// upgrade succeeds.
func (s *Session) UpgradeFirmware(ctx context.Context, fileName string, data []byte, onProgress transfer.ProgressFunc) error {
	return s.PushMedia(ctx, transfer.MediaFirmware, transferIDFirmware, fileName, data, onProgress)
}

// PushSuspendSlot pushes media into one suspend-mode slot. Slot indices are
// validated against the device-reported slot count when capabilities are
// available, falling back to the protocol maximum.
func (s *Session) PushSuspendSlot(ctx context.Context, slot int, fileName string, data []byte, onProgress transfer.ProgressFunc) error {
	limit := MaxSuspendSlots
	if caps := s.Capabilities(); caps != nil && caps.SuspendSlotCount > 0 {
		limit = int(caps.SuspendSlotCount)
	}
	if slot < 0 || slot >= limit {
		return protocol.NewValidationError(fmt.Sprintf("suspend slot %d out of range [0, %d)", slot, limit))
	}
	return s.PushMedia(ctx, transfer.MediaSuspendSlot, suspendTransferBase+slot, fileName, data, onProgress)
}

// EnterSuspendMode switches the panel to suspend display mode by disabling
// real-time display. Populate slots with PushSuspendSlot afterwards.
func (s *Session) EnterSuspendMode(ctx context.Context) error {
	return s.SetRealtimeDisplay(ctx, false)
}

// ExitSuspendMode clears all suspend media (the device interprets the file
// name "all" as a wildcard) and restores real-time display
func (s *Session) ExitSuspendMode(ctx context.Context) error {
	if err := s.DeleteSuspendMedia(ctx, "all"); err != nil {
		return err
	}
	return s.SetRealtimeDisplay(ctx, true)
}

// DeleteSuspendMedia deletes one suspend media file by name, or every file
// when name is "all"
func (s *Session) DeleteSuspendMedia(ctx context.Context, fileName string) error {
	if fileName == "" {
		return protocol.NewValidationError("file name required")
	}
	body, err := json.Marshal(deleteBody{FileName: fileName})
	if err != nil {
		return err
	}
	resp, err := s.SendAndAwait(ctx, protocol.CmdDeleteSuspend, body, s.opts.CommandTimeout)
	if err != nil {
		return err
	}
	return checkResponse(protocol.CmdDeleteSuspend, resp)
}
