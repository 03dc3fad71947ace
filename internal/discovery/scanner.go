package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sstallion/go-hid"
	"go.uber.org/zap"

	"github.com/openpanel/panellink/internal/logging"
)

const (
	// DefaultWaitTimeout bounds WaitForDevice when the caller passes no
	// explicit timeout
	DefaultWaitTimeout = 30 * time.Second
)

// Scanner enumerates panels on the USB bus
type Scanner struct {
	// Models is the set of USB identities recognized as panels
	Models []Model
}

// NewScanner creates a scanner matching every supported panel model
func NewScanner() *Scanner {
	return &Scanner{
		Models: SupportedModels,
	}
}

// match finds the model entry for a USB identity
func (s *Scanner) match(vendorID, productID uint16) (Model, bool) {
	for _, m := range s.Models {
		if m.VendorID == vendorID && m.ProductID == productID {
			return m, true
		}
	}
	return Model{}, false
}

// Scan enumerates the bus once and returns every attached panel. An empty
// result with a nil error means no panel is plugged in.
func (s *Scanner) Scan() ([]*Device, error) {
	var devices []*Device
	err := hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		model, ok := s.match(info.VendorID, info.ProductID)
		if !ok {
			return nil
		}
		devices = append(devices, &Device{
			Model:        model,
			Path:         info.Path,
			Serial:       info.SerialNbr,
			Product:      info.ProductStr,
			Manufacturer: info.MfrStr,
			ReleaseBCD:   info.ReleaseNbr,
			DiscoveredAt: time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate HID devices: %w", err)
	}

	logging.Debug("Bus scan finished", zap.Int("panels", len(devices)))
	return devices, nil
}

// FindBySerial scans the bus for the panel with the given USB serial. With an
// empty serial it returns the first panel found.
func (s *Scanner) FindBySerial(serial string) (*Device, error) {
	devices, err := s.Scan()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if serial == "" || d.Serial == serial {
			return d, nil
		}
	}
	if serial == "" {
		return nil, fmt.Errorf("no panel attached")
	}
	return nil, fmt.Errorf("no panel with serial %s attached", serial)
}

// WaitForDevice polls the bus until the panel with the given serial appears,
// retrying with backoff. Used after reboots and firmware upgrades, when the
// device drops off the bus and re-enumerates. An empty serial waits for any
// panel.
func (s *Scanner) WaitForDevice(ctx context.Context, serial string, timeout time.Duration) (*Device, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = timeout

	var found *Device
	op := func() error {
		device, err := s.FindBySerial(serial)
		if err != nil {
			return err
		}
		found = device
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("panel did not appear within %s: %w", timeout, err)
	}
	logging.LogDeviceEvent(found.Path, "device_appeared")
	return found, nil
}

// Scan is a convenience function enumerating with the default model table
func Scan() ([]*Device, error) {
	return NewScanner().Scan()
}

// FindDevice searches for a specific panel by USB serial with the default
// model table
func FindDevice(serial string) (*Device, error) {
	return NewScanner().FindBySerial(serial)
}
