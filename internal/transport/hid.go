package transport

import (
	"time"

	"github.com/sstallion/go-hid"

	"github.com/openpanel/panellink/internal/logging"
	"github.com/openpanel/panellink/internal/protocol"
)

// DefaultReadTimeout bounds a single listener poll so session shutdown is
// observed within one interval
const DefaultReadTimeout = 1 * time.Second

// MaxReportSize is the largest report the panels exchange on any channel:
// file-transfer blocks carry up to 1000 payload bytes plus framing.
const MaxReportSize = 1100

// Transport is the report-level I/O surface the engine needs from a device
// handle. Exactly one session owns a Transport at a time.
type Transport interface {
	// Write sends a single output report. The first byte of data is the
	// report id.
	Write(data []byte) (int, error)

	// Read reads a single input report into buf, waiting at most timeout.
	// A return of (0, nil) means the timeout elapsed with nothing to read.
	Read(buf []byte, timeout time.Duration) (int, error)

	// GetFeatureReport reads the feature report with the given id. The
	// returned buffer includes the leading report id byte.
	GetFeatureReport(reportID byte, size int) ([]byte, error)

	// Path identifies the underlying device for logging
	Path() string

	Close() error
}

// HID is a Transport backed by a hidapi device handle
type HID struct {
	dev  *hid.Device
	path string
}

// Open opens the first HID device matching the vendor/product pair. An empty
// serial matches any unit; pass a serial number to pin a specific panel when
// several identical ones are attached.
func Open(vendorID, productID uint16, serial string) (*HID, error) {
	var (
		dev *hid.Device
		err error
	)
	if serial == "" {
		dev, err = hid.OpenFirst(vendorID, productID)
	} else {
		dev, err = hid.Open(vendorID, productID, serial)
	}
	if err != nil {
		return nil, protocol.NewTransportError("failed to open HID device", err)
	}

	h := &HID{dev: dev}
	if info, err := dev.GetDeviceInfo(); err == nil {
		h.path = info.Path
	}
	logging.LogDeviceEvent(h.path, "opened")
	return h, nil
}

// OpenPath opens a HID device by its platform-specific path, as returned by
// enumeration
func OpenPath(path string) (*HID, error) {
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, protocol.NewTransportError("failed to open HID device path", err)
	}
	logging.LogDeviceEvent(path, "opened")
	return &HID{dev: dev, path: path}, nil
}

// Write sends a single output report
func (h *HID) Write(data []byte) (int, error) {
	n, err := h.dev.Write(data)
	if err != nil {
		return n, protocol.NewTransportError("HID write failed", err)
	}
	if len(data) > 0 {
		logging.LogReport(h.path, "sent", data[0], data)
	}
	return n, nil
}

// Read reads one input report with a bounded wait. hidapi reports a timeout
// as a zero-length read; that surfaces here as (0, nil).
func (h *HID) Read(buf []byte, timeout time.Duration) (int, error) {
	n, err := h.dev.ReadWithTimeout(buf, timeout)
	if err != nil {
		return n, protocol.NewTransportError("HID read failed", err)
	}
	if n > 0 {
		logging.LogReport(h.path, "received", buf[0], buf[:n])
	}
	return n, nil
}

// GetFeatureReport reads a feature report by id
func (h *HID) GetFeatureReport(reportID byte, size int) ([]byte, error) {
	buf := make([]byte, size)
	buf[0] = reportID
	n, err := h.dev.GetFeatureReport(buf)
	if err != nil {
		return nil, protocol.NewTransportError("HID feature report read failed", err)
	}
	logging.LogReport(h.path, "received", reportID, buf[:n])
	return buf[:n], nil
}

// Path identifies the device for logging
func (h *HID) Path() string {
	return h.path
}

// Close releases the device handle
func (h *HID) Close() error {
	logging.LogDeviceEvent(h.path, "closed")
	if err := h.dev.Close(); err != nil {
		return protocol.NewTransportError("HID close failed", err)
	}
	return nil
}
