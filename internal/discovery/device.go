package discovery

import (
	"fmt"
	"time"

	"github.com/openpanel/panellink/internal/transport"
)

// Model identifies one supported panel hardware revision by its USB identity
type Model struct {
	VendorID  uint16
	ProductID uint16
	Name      string
}

// SupportedModels lists every panel revision this library speaks the
// protocol of. Scanners match against this table by default; callers with
// engineering samples can extend a Scanner's Models instead.
var SupportedModels = []Model{
	{VendorID: 0x0416, ProductID: 0x5302, Name: "panel-2.8"},
	{VendorID: 0x0416, ProductID: 0x5304, Name: "panel-5.0"},
	{VendorID: 0x0416, ProductID: 0x8001, Name: "panel-ultra"},
}

// Device represents a discovered panel on the USB bus
type Device struct {
	// Model is the matched hardware revision
	Model Model

	// Path is the platform-specific HID path used to open the device
	Path string

	// Serial is the USB serial number string (may be empty on some
	// platforms or firmware revisions)
	Serial string

	// Product is the USB product string reported by the device
	Product string

	// Manufacturer is the USB manufacturer string
	Manufacturer string

	// ReleaseBCD is the binary-coded-decimal device release number
	ReleaseBCD uint16

	// DiscoveredAt is when the device was enumerated
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	serial := d.Serial
	if serial == "" {
		serial = "no-serial"
	}
	return fmt.Sprintf("Panel %s (%s) at %s", d.Model.Name, serial, d.Path)
}

// Open opens the device's HID transport. The caller owns the returned
// transport and must close it (or hand it to a session, which closes it).
func (d *Device) Open() (*transport.HID, error) {
	return transport.OpenPath(d.Path)
}
