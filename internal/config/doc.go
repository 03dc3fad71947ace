// Package config provides user configuration management for panellink.
//
// This package manages a YAML-based configuration file that stores
// user-defined metadata for panels: nicknames, preferred settings, the last
// media pushed per panel, and application preferences. The configuration
// follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/panellink/config.yaml or $HOME/.config/panellink/config.yaml
//   - macOS: $HOME/.config/panellink/config.yaml
//   - Windows: %LOCALAPPDATA%\panellink\config.yaml
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Add or update panel metadata
//	registry.SetPanelNickname("PL24081234", "Front panel")
//	registry.RecordMediaPush("PL24081234", "background", "wave.mp4", md5hex)
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
