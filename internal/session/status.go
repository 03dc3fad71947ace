package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openpanel/panellink/internal/protocol"
)

// MaxSuspendSlots is the largest slot count any panel revision reports
const MaxSuspendSlots = 5

// DeviceStatus is a live snapshot of the panel state. A new value is built
// on every query; snapshots are never mutated in place.
type DeviceStatus struct {
	Brightness              int  // 0-100
	RotationDegrees         int  // one of 0, 90, 180, 270
	OsdActive               bool // overlay currently shown
	KeepAliveTimeoutSeconds int
	MaxSuspendSlots         int
	DisplayInSleep          bool
	SuspendSlotActive       [MaxSuspendSlots]bool
}

// statusBody is the wire shape of the getstatus response
type statusBody struct {
	Brightness   int    `json:"brightness"`
	Rotate       int    `json:"rotate"`
	Osd          bool   `json:"osd"`
	KeepAlive    int    `json:"keepalive"`
	MaxSlots     int    `json:"maxslots"`
	DisplaySleep bool   `json:"displaysleep"`
	Slots        []bool `json:"slots"`
}

// ParseStatus decodes the JSON body of a getstatus response
func ParseStatus(body []byte) (*DeviceStatus, error) {
	var wire statusBody
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse status body: %w", err)
	}

	status := &DeviceStatus{
		Brightness:              wire.Brightness,
		RotationDegrees:         wire.Rotate,
		OsdActive:               wire.Osd,
		KeepAliveTimeoutSeconds: wire.KeepAlive,
		MaxSuspendSlots:         wire.MaxSlots,
		DisplayInSleep:          wire.DisplaySleep,
	}
	for i, active := range wire.Slots {
		if i >= MaxSuspendSlots {
			break
		}
		status.SuspendSlotActive[i] = active
	}
	return status, nil
}

// Status polls the panel for a fresh state snapshot
func (s *Session) Status(ctx context.Context) (*DeviceStatus, error) {
	resp, err := s.SendAndAwait(ctx, protocol.CmdGetStatus, nil, s.opts.CommandTimeout)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(protocol.CmdGetStatus, resp); err != nil {
		return nil, err
	}
	return ParseStatus(resp.Body)
}
