package protocol

import "encoding/binary"

// Capability TLV tags. Each tag maps to one field of Capabilities; unknown
// tags are skipped without error so newer firmware stays parseable.
const (
	tagDisplayModes   = 0x01
	tagVideoInterface = 0x02
	tagSsrVsWidth     = 0x03
	tagSsrVsHeight    = 0x04
	tagRotateSupport  = 0x05
	tagOverlaySupport = 0x06
	tagSuspendSlots   = 0x07
	tagBrightnessCtl  = 0x08
	tagMaxFileSize    = 0x09
	tagMaxFps         = 0x0A
	tagDecodeFormats  = 0x0B
	tagHardwareDecode = 0x0C
	tagPowerupLogo    = 0x0D
)

// Display mode flag bits packed into the tagDisplayModes value at offset 1
const (
	modeFlagOff = 0x01
	modeFlagSsr = 0x02
)

// Capabilities is the decoded capability record of a panel. It is read once
// at session start from the capability feature report and replaced wholesale
// on explicit refresh; it is never mutated in place.
type Capabilities struct {
	OffModeSupported     bool   // Panel can be switched fully off
	SsrModeSupported     bool   // Panel supports suspend static rendering mode
	VideoInterface       uint8  // Video interface type identifier
	SsrVsWidth           uint16 // Horizontal resolution in pixels
	SsrVsHeight          uint16 // Vertical resolution in pixels
	RotateSupported      bool
	OverlaySupported     bool
	SuspendSlotCount     uint8 // Device-reported suspend media slots
	BrightnessControl    bool
	MaxFileSize          uint32 // Largest accepted media file in bytes
	MaxFps               uint16
	DecodeFormats        uint16 // Bitmask of supported media decode formats
	HardwareDecode       bool
	PowerupLogoSupported bool
}

// ParseCapabilities decodes the capability TLV block of a feature report.
// The buffer starts with the report id byte; the TLV region follows it as
// repeated {tag:1B, length:1B, value:lengthB} records. The loop ends when
// fewer than two bytes remain or a declared value length would overrun the
// buffer.
//
// Multi-byte numeric values are little-endian, with one firmware quirk: the
// decode-format bitmask (tag 0x0B) is big-endian. The device is the
// authority here; do not "fix" it.
func ParseCapabilities(buf []byte) *Capabilities {
	caps := &Capabilities{}

	offset := 1 // skip the report id byte
	for len(buf)-offset >= 2 {
		tag := buf[offset]
		length := int(buf[offset+1])
		offset += 2
		if offset+length > len(buf) {
			break
		}
		value := buf[offset : offset+length]
		offset += length

		switch tag {
		case tagDisplayModes:
			if len(value) >= 2 {
				caps.OffModeSupported = value[1]&modeFlagOff != 0
				caps.SsrModeSupported = value[1]&modeFlagSsr != 0
			}
		case tagVideoInterface:
			if len(value) >= 1 {
				caps.VideoInterface = value[0]
			}
		case tagSsrVsWidth:
			if len(value) >= 2 {
				caps.SsrVsWidth = binary.LittleEndian.Uint16(value[0:2])
			}
		case tagSsrVsHeight:
			if len(value) >= 2 {
				caps.SsrVsHeight = binary.LittleEndian.Uint16(value[0:2])
			}
		case tagRotateSupport:
			if len(value) >= 1 {
				caps.RotateSupported = value[0] != 0
			}
		case tagOverlaySupport:
			if len(value) >= 1 {
				caps.OverlaySupported = value[0] != 0
			}
		case tagSuspendSlots:
			if len(value) >= 1 {
				caps.SuspendSlotCount = value[0]
			}
		case tagBrightnessCtl:
			if len(value) >= 1 {
				caps.BrightnessControl = value[0] != 0
			}
		case tagMaxFileSize:
			if len(value) >= 4 {
				caps.MaxFileSize = binary.LittleEndian.Uint32(value[0:4])
			}
		case tagMaxFps:
			if len(value) >= 2 {
				caps.MaxFps = binary.LittleEndian.Uint16(value[0:2])
			}
		case tagDecodeFormats:
			if len(value) >= 2 {
				caps.DecodeFormats = binary.BigEndian.Uint16(value[0:2])
			}
		case tagHardwareDecode:
			if len(value) >= 1 {
				caps.HardwareDecode = value[0] != 0
			}
		case tagPowerupLogo:
			if len(value) >= 1 {
				caps.PowerupLogoSupported = value[0] != 0
			}
		}
	}

	return caps
}

// versionUnavailable is the per-field wire sentinel for "not reported".
// It never leaves the decode step; absent components surface as nil.
const versionUnavailable = 0xFF

// HardwareVersion is the panel's hardware revision
type HardwareVersion struct {
	Major uint8
	Minor uint8
}

// FirmwareVersion is the panel's firmware build identifier
type FirmwareVersion struct {
	Major    uint8
	Minor    uint8
	Revision uint8
	Build    uint8
}

// DeviceFirmwareInfo holds the decoded info feature report. A nil component
// means the device did not report it.
type DeviceFirmwareInfo struct {
	Hardware *HardwareVersion
	Firmware *FirmwareVersion
}

// ParseFirmwareInfo decodes the info feature report at fixed offsets:
// bytes 1-2 are hardware major/minor, bytes 3-6 firmware
// major/minor/revision/build. Buffers shorter than 7 bytes yield an empty
// record. A component whose major byte carries the 0xFF sentinel is absent.
func ParseFirmwareInfo(buf []byte) *DeviceFirmwareInfo {
	info := &DeviceFirmwareInfo{}
	if len(buf) < 7 {
		return info
	}

	if buf[1] != versionUnavailable {
		info.Hardware = &HardwareVersion{
			Major: buf[1],
			Minor: buf[2],
		}
	}
	if buf[3] != versionUnavailable {
		info.Firmware = &FirmwareVersion{
			Major:    buf[3],
			Minor:    buf[4],
			Revision: buf[5],
			Build:    buf[6],
		}
	}
	return info
}
