package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "panellink") {
		t.Errorf("GetConfigDir() = %v, should contain 'panellink'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Panels == nil {
		t.Error("NewRegistry().Panels should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.WaitTimeoutSeconds != 30 {
		t.Errorf("NewRegistry().Preferences.WaitTimeoutSeconds = %v, want 30", reg.Preferences.WaitTimeoutSeconds)
	}

	if reg.Preferences.KeepAliveInterval != 10 {
		t.Errorf("NewRegistry().Preferences.KeepAliveInterval = %v, want 10", reg.Preferences.KeepAliveInterval)
	}
}

func TestRegistryEnsurePanel(t *testing.T) {
	reg := NewRegistry()

	// First call should create the panel
	panel1 := reg.EnsurePanel("PL24081234")
	if panel1 == nil {
		t.Fatal("EnsurePanel() returned nil")
	}

	// Second call should return the same panel
	panel2 := reg.EnsurePanel("PL24081234")
	if panel1 != panel2 {
		t.Error("EnsurePanel() should return same instance for same serial")
	}

	// Different serial should create a new panel
	panel3 := reg.EnsurePanel("PL24085678")
	if panel1 == panel3 {
		t.Error("EnsurePanel() should create new instance for different serial")
	}
}

func TestRegistryUpdatePanelLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdatePanelLastSeen("PL24081234", "/dev/hidraw3", "panel-2.8")
	after := time.Now()

	panel := reg.GetPanel("PL24081234")
	if panel == nil {
		t.Fatal("Panel should exist after UpdatePanelLastSeen()")
	}

	if panel.LastPath != "/dev/hidraw3" {
		t.Errorf("LastPath = %v, want /dev/hidraw3", panel.LastPath)
	}

	if panel.Model != "panel-2.8" {
		t.Errorf("Model = %v, want panel-2.8", panel.Model)
	}

	if panel.LastSeen.Before(before) || panel.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", panel.LastSeen, before, after)
	}
}

func TestRegistrySetPanelNickname(t *testing.T) {
	reg := NewRegistry()

	reg.SetPanelNickname("PL24081234", "Front panel")

	panel := reg.GetPanel("PL24081234")
	if panel == nil {
		t.Fatal("Panel should exist after SetPanelNickname()")
	}

	if panel.Nickname != "Front panel" {
		t.Errorf("Nickname = %v, want 'Front panel'", panel.Nickname)
	}
}

func TestRegistryRecordMediaPush(t *testing.T) {
	reg := NewRegistry()

	reg.RecordMediaPush("PL24081234", "background", "wave.mp4", "d41d8cd98f00b204e9800998ecf8427e")

	panel := reg.GetPanel("PL24081234")
	if panel == nil {
		t.Fatal("Panel should exist after RecordMediaPush()")
	}

	media := panel.Media["background"]
	if media == nil {
		t.Fatal("Media entry 'background' should exist")
	}

	if media.FileName != "wave.mp4" {
		t.Errorf("FileName = %v, want wave.mp4", media.FileName)
	}

	if media.Md5 != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("Md5 = %v, want the recorded digest", media.Md5)
	}

	if media.PushedAt.IsZero() {
		t.Error("PushedAt should be set")
	}
}

func TestRegistrySuspendSlots(t *testing.T) {
	reg := NewRegistry()

	reg.RecordSuspendSlot("PL24081234", 0, "CPU temps", "cpu.png", "abc123")
	reg.RecordSuspendSlot("PL24081234", 2, "Clock", "clock.png", "def456")

	panel := reg.GetPanel("PL24081234")
	if panel == nil {
		t.Fatal("Panel should exist after RecordSuspendSlot()")
	}

	slot := panel.SuspendSlots[0]
	if slot == nil {
		t.Fatal("Slot 0 should exist")
	}
	if slot.Label != "CPU temps" || slot.FileName != "cpu.png" {
		t.Errorf("Slot 0 = %+v, want CPU temps/cpu.png", slot)
	}

	if panel.SuspendSlots[2] == nil {
		t.Fatal("Slot 2 should exist")
	}

	reg.ClearSuspendSlots("PL24081234")
	if len(panel.SuspendSlots) != 0 {
		t.Errorf("SuspendSlots after clear = %v, want empty", panel.SuspendSlots)
	}
}

func TestParseRegistry(t *testing.T) {
	doc := []byte(`version: 1
panels:
  "PL24081234":
    nickname: "Front panel"
    model: "panel-2.8"
    brightness: 70
    media:
      background:
        file_name: "wave.mp4"
        md5: "abc123"
    suspend_slots:
      0:
        label: "CPU temps"
        file_name: "cpu.png"
preferences:
  default_serial: "PL24081234"
  wait_timeout: 45
  keepalive_interval: 5
`)

	reg, err := parseRegistry(doc)
	if err != nil {
		t.Fatalf("parseRegistry() error = %v", err)
	}

	panel := reg.GetPanel("PL24081234")
	if panel == nil {
		t.Fatal("Panel should exist in parsed registry")
	}

	if panel.Nickname != "Front panel" {
		t.Errorf("Nickname = %v, want 'Front panel'", panel.Nickname)
	}

	if panel.Brightness == nil || *panel.Brightness != 70 {
		t.Errorf("Brightness = %v, want 70", panel.Brightness)
	}

	if panel.RotationDegrees != nil {
		t.Error("RotationDegrees should be nil when absent from the file")
	}

	if media := panel.Media["background"]; media == nil || media.FileName != "wave.mp4" {
		t.Errorf("Media[background] = %+v, want wave.mp4", media)
	}

	if slot := panel.SuspendSlots[0]; slot == nil || slot.Label != "CPU temps" {
		t.Errorf("SuspendSlots[0] = %+v, want CPU temps", slot)
	}

	if reg.Preferences.DefaultSerial != "PL24081234" {
		t.Errorf("DefaultSerial = %v, want PL24081234", reg.Preferences.DefaultSerial)
	}

	if reg.Preferences.WaitTimeoutSeconds != 45 {
		t.Errorf("WaitTimeoutSeconds = %v, want 45", reg.Preferences.WaitTimeoutSeconds)
	}
}

func TestParseRegistryRejectsUnknownVersion(t *testing.T) {
	if _, err := parseRegistry([]byte("version: 2\n")); err == nil {
		t.Error("version 2 should be rejected")
	}
}

func TestParseRegistryFillsDefaults(t *testing.T) {
	reg, err := parseRegistry([]byte("version: 1\n"))
	if err != nil {
		t.Fatalf("parseRegistry() error = %v", err)
	}

	if reg.Panels == nil {
		t.Error("Panels map should be initialized")
	}
	if reg.Preferences == nil || reg.Preferences.WaitTimeoutSeconds != 30 {
		t.Errorf("Preferences = %+v, want defaults", reg.Preferences)
	}
}

// Benchmark tests

func BenchmarkEnsurePanel(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsurePanel("PL24081234")
	}
}
