package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for panels and application preferences.
type Registry struct {
	Version     int               `yaml:"version"`
	Panels      map[string]*Panel `yaml:"panels,omitempty"` // Keyed by panel USB serial number
	Preferences *Preferences      `yaml:"preferences,omitempty"`
}

// Panel represents user-defined metadata for a single panel.
// This is keyed by the panel's USB serial number in the Registry.
type Panel struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	Model    string    `yaml:"model,omitempty"`     // Matched model name at last discovery
	LastPath string    `yaml:"last_path,omitempty"` // Last known HID path
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time

	// Applied settings, re-applied on connect when present. Pointers
	// distinguish "never set" from a zero value.
	Brightness       *int  `yaml:"brightness,omitempty"`        // 0-100
	RotationDegrees  *int  `yaml:"rotation_degrees,omitempty"`  // 0/90/180/270
	KeepAliveSeconds int   `yaml:"keepalive_seconds,omitempty"` // 0 = device default
	DisplayInSleep   *bool `yaml:"display_in_sleep,omitempty"`

	// Media holds the last pushed file per media kind (keyed by kind name,
	// e.g. "background", "powerup-logo"). Used to skip pushes when the
	// content is unchanged.
	Media map[string]*MediaMeta `yaml:"media,omitempty"`

	// SuspendSlots holds metadata for populated suspend slots (keyed by
	// slot index)
	SuspendSlots map[int]*SlotMeta `yaml:"suspend_slots,omitempty"`
}

// MediaMeta records the last file pushed for one media kind
type MediaMeta struct {
	FileName string    `yaml:"file_name"`
	Md5      string    `yaml:"md5"`
	PushedAt time.Time `yaml:"pushed_at"`
}

// SlotMeta represents user-defined metadata for one suspend slot
type SlotMeta struct {
	Label    string `yaml:"label,omitempty"` // User-defined label (e.g., "CPU temps")
	FileName string `yaml:"file_name"`
	Md5      string `yaml:"md5,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultSerial      string `yaml:"default_serial,omitempty"` // Panel used when --serial is omitted
	WaitTimeoutSeconds int    `yaml:"wait_timeout"`             // Re-enumeration wait after reboot/upgrade
	KeepAliveInterval  int    `yaml:"keepalive_interval"`       // Seconds between keep-alives while connected
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Panels:  make(map[string]*Panel),
		Preferences: &Preferences{
			WaitTimeoutSeconds: 30,
			KeepAliveInterval:  10,
		},
	}
}

// GetPanel retrieves panel metadata by serial number.
// Returns nil if the panel doesn't exist in the registry.
func (r *Registry) GetPanel(serial string) *Panel {
	return r.Panels[serial]
}

// EnsurePanel ensures a panel entry exists in the registry.
// If the panel doesn't exist, creates a new entry with default values.
// Returns the panel entry (existing or newly created).
func (r *Registry) EnsurePanel(serial string) *Panel {
	if r.Panels == nil {
		r.Panels = make(map[string]*Panel)
	}

	if panel, exists := r.Panels[serial]; exists {
		return panel
	}

	panel := &Panel{
		Media:        make(map[string]*MediaMeta),
		SuspendSlots: make(map[int]*SlotMeta),
	}
	r.Panels[serial] = panel
	return panel
}

// UpdatePanelLastSeen updates the last seen timestamp, HID path and model
// name for a panel.
func (r *Registry) UpdatePanelLastSeen(serial, path, model string) {
	panel := r.EnsurePanel(serial)
	panel.LastSeen = time.Now()
	panel.LastPath = path
	panel.Model = model
}

// SetPanelNickname sets a user-friendly nickname for a panel.
func (r *Registry) SetPanelNickname(serial, nickname string) {
	panel := r.EnsurePanel(serial)
	panel.Nickname = nickname
}

// RecordMediaPush records a completed media push for a panel.
func (r *Registry) RecordMediaPush(serial, kind, fileName, md5 string) {
	panel := r.EnsurePanel(serial)
	if panel.Media == nil {
		panel.Media = make(map[string]*MediaMeta)
	}
	panel.Media[kind] = &MediaMeta{
		FileName: fileName,
		Md5:      md5,
		PushedAt: time.Now(),
	}
}

// RecordSuspendSlot records a populated suspend slot for a panel.
func (r *Registry) RecordSuspendSlot(serial string, slot int, label, fileName, md5 string) {
	panel := r.EnsurePanel(serial)
	if panel.SuspendSlots == nil {
		panel.SuspendSlots = make(map[int]*SlotMeta)
	}
	panel.SuspendSlots[slot] = &SlotMeta{
		Label:    label,
		FileName: fileName,
		Md5:      md5,
	}
}

// ClearSuspendSlots removes every recorded suspend slot for a panel,
// mirroring a device-side wildcard delete.
func (r *Registry) ClearSuspendSlots(serial string) {
	if panel := r.GetPanel(serial); panel != nil {
		panel.SuspendSlots = make(map[int]*SlotMeta)
	}
}
