package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openpanel/panellink/internal/config"
	"github.com/openpanel/panellink/internal/discovery"
	"github.com/openpanel/panellink/internal/session"
)

// Common command flags
var (
	serialFlag  string
	timeoutFlag int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serialFlag, "serial", "", "Panel USB serial number (default: registry preference or sole attached panel)")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 5, "Command timeout in seconds")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(brightnessCmd)
	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(sleepCmd)
	rootCmd.AddCommand(keepaliveCmd)
	rootCmd.AddCommand(skuColorCmd)
	rootCmd.AddCommand(serialCmd)
	rootCmd.AddCommand(nicknameCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(factoryResetCmd)
}

// openSession discovers the target panel and opens a session on it. The
// returned serial identifies the panel in the registry.
func openSession(cmd *cobra.Command) (*session.Session, string, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, "", err
	}

	serial := serialFlag
	if serial == "" && registry.Preferences != nil {
		serial = registry.Preferences.DefaultSerial
	}

	device, err := discovery.FindDevice(serial)
	if err != nil {
		return nil, "", err
	}

	tr, err := device.Open()
	if err != nil {
		return nil, "", err
	}

	s := session.Open(tr, session.Options{
		CommandTimeout: time.Duration(timeoutFlag) * time.Second,
	})
	if registry.Preferences != nil && registry.Preferences.KeepAliveInterval > 0 {
		s.StartKeepAlive(time.Duration(registry.Preferences.KeepAliveInterval) * time.Second)
	}

	registry.UpdatePanelLastSeen(device.Serial, device.Path, device.Model.Name)
	if err := registry.Save(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to save registry: %v\n", err)
	}

	return s, device.Serial, nil
}

// listCmd enumerates panels on the USB bus
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached panels",
	Long: `Enumerate the USB bus and list every attached panel.

Nicknames from the local registry are shown next to each panel.`,
	Example: `  panellink list`,
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	devices, err := discovery.Scan()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No panels found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the panel's USB cable is connected")
		fmt.Println("  - On Linux, check the udev rules grant hidraw access")
		fmt.Println("  - Unplug and replug the panel to force re-enumeration")
		return nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	fmt.Printf("Found %d panel(s):\n\n", len(devices))
	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Model.Name)
		fmt.Printf("   Serial:  %s\n", device.Serial)
		fmt.Printf("   Path:    %s\n", device.Path)
		if device.Product != "" {
			fmt.Printf("   Product: %s\n", device.Product)
		}
		if panel := registry.GetPanel(device.Serial); panel != nil && panel.Nickname != "" {
			fmt.Printf("   Name:    %s\n", panel.Nickname)
		}
		fmt.Println()
	}

	return nil
}

// infoCmd shows firmware and capability information
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show panel firmware and capabilities",
	Long: `Connect to a panel and display its hardware revision, firmware
version and the capability record it reports.`,
	Example: `  panellink info
  panellink info --serial PL24081234`,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Panel %s\n\n", serial)

	if info := s.FirmwareInfo(); info != nil {
		if info.Hardware != nil {
			fmt.Printf("  Hardware: %d.%d\n", info.Hardware.Major, info.Hardware.Minor)
		} else {
			fmt.Println("  Hardware: not reported")
		}
		if info.Firmware != nil {
			fmt.Printf("  Firmware: %d.%d.%d (build %d)\n",
				info.Firmware.Major, info.Firmware.Minor, info.Firmware.Revision, info.Firmware.Build)
		} else {
			fmt.Println("  Firmware: not reported")
		}
	} else {
		fmt.Println("  Version info unavailable")
	}

	caps := s.Capabilities()
	if caps == nil {
		fmt.Println("\n  Capability record unavailable")
		return nil
	}

	fmt.Println("\nCapabilities:")
	fmt.Printf("  Display:         %dx%d\n", caps.SsrVsWidth, caps.SsrVsHeight)
	fmt.Printf("  Off mode:        %v\n", caps.OffModeSupported)
	fmt.Printf("  SSR mode:        %v\n", caps.SsrModeSupported)
	fmt.Printf("  Rotate:          %v\n", caps.RotateSupported)
	fmt.Printf("  Overlay:         %v\n", caps.OverlaySupported)
	fmt.Printf("  Suspend slots:   %d\n", caps.SuspendSlotCount)
	fmt.Printf("  Brightness ctl:  %v\n", caps.BrightnessControl)
	fmt.Printf("  Max file size:   %d bytes\n", caps.MaxFileSize)
	fmt.Printf("  Max FPS:         %d\n", caps.MaxFps)
	fmt.Printf("  Decode formats:  0x%04x\n", caps.DecodeFormats)
	fmt.Printf("  Hardware decode: %v\n", caps.HardwareDecode)
	fmt.Printf("  Powerup logo:    %v\n", caps.PowerupLogoSupported)

	return nil
}

// statusCmd polls the live device state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show live panel status",
	Example: `  panellink status
  panellink status --serial PL24081234`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	status, err := s.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status query failed: %w", err)
	}

	fmt.Printf("Panel %s\n\n", serial)
	fmt.Printf("  Brightness:       %d%%\n", status.Brightness)
	fmt.Printf("  Rotation:         %d°\n", status.RotationDegrees)
	fmt.Printf("  OSD active:       %v\n", status.OsdActive)
	fmt.Printf("  Display in sleep: %v\n", status.DisplayInSleep)
	fmt.Printf("  Keep-alive:       %ds\n", status.KeepAliveTimeoutSeconds)

	if status.MaxSuspendSlots > 0 {
		var active []string
		for i, on := range status.SuspendSlotActive {
			if i >= status.MaxSuspendSlots {
				break
			}
			if on {
				active = append(active, strconv.Itoa(i))
			}
		}
		if len(active) == 0 {
			fmt.Printf("  Suspend slots:    0/%d populated\n", status.MaxSuspendSlots)
		} else {
			fmt.Printf("  Suspend slots:    %d/%d populated (%s)\n",
				len(active), status.MaxSuspendSlots, strings.Join(active, ", "))
		}
	}

	return nil
}

// brightnessCmd sets the panel brightness
var brightnessCmd = &cobra.Command{
	Use:   "brightness <0-100>",
	Short: "Set panel brightness",
	Example: `  panellink brightness 80
  panellink brightness 0   # backlight off`,
	Args: cobra.ExactArgs(1),
	RunE: runBrightness,
}

func runBrightness(cmd *cobra.Command, args []string) error {
	percent, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid brightness value: %w", err)
	}

	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetBrightness(cmd.Context(), percent); err != nil {
		return err
	}
	fmt.Printf("✓ Brightness set to %d%%\n", percent)

	rememberPanelSetting(serial, func(panel *config.Panel) {
		panel.Brightness = &percent
	})
	return nil
}

// rotateCmd sets the display rotation
var rotateCmd = &cobra.Command{
	Use:     "rotate <0|90|180|270>",
	Short:   "Set display rotation",
	Example: `  panellink rotate 180`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRotate,
}

func runRotate(cmd *cobra.Command, args []string) error {
	degrees, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid rotation value: %w", err)
	}

	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetRotation(cmd.Context(), degrees); err != nil {
		return err
	}
	fmt.Printf("✓ Rotation set to %d°\n", degrees)

	rememberPanelSetting(serial, func(panel *config.Panel) {
		panel.RotationDegrees = &degrees
	})
	return nil
}

// sleepCmd controls display-while-host-sleeps behavior
var sleepCmd = &cobra.Command{
	Use:   "sleep <on|off>",
	Short: "Keep displaying while the host sleeps",
	Long: `Control whether the panel keeps displaying when the host machine
goes to sleep. "on" keeps the display running; "off" blanks it.`,
	Example: `  panellink sleep on
  panellink sleep off`,
	Args: cobra.ExactArgs(1),
	RunE: runSleep,
}

func runSleep(cmd *cobra.Command, args []string) error {
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}

	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetDisplayInSleep(cmd.Context(), enabled); err != nil {
		return err
	}
	fmt.Printf("✓ Display in sleep: %v\n", enabled)

	rememberPanelSetting(serial, func(panel *config.Panel) {
		panel.DisplayInSleep = &enabled
	})
	return nil
}

// keepaliveCmd sets the device keep-alive timeout
var keepaliveCmd = &cobra.Command{
	Use:   "keepalive <seconds>",
	Short: "Set the keep-alive timeout",
	Long: `Set how long the panel waits for host keep-alives before blanking.
The host side sends keep-alives automatically while connected.`,
	Example: `  panellink keepalive 30`,
	Args:    cobra.ExactArgs(1),
	RunE:    runKeepalive,
}

func runKeepalive(cmd *cobra.Command, args []string) error {
	seconds, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid timeout value: %w", err)
	}

	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetKeepAliveTimeout(cmd.Context(), seconds); err != nil {
		return err
	}
	fmt.Printf("✓ Keep-alive timeout set to %ds\n", seconds)

	rememberPanelSetting(serial, func(panel *config.Panel) {
		panel.KeepAliveSeconds = seconds
	})
	return nil
}

// skuColorCmd sets the SKU accent color
var skuColorCmd = &cobra.Command{
	Use:   "sku-color <RRGGBB>",
	Short: "Set the SKU accent color",
	Example: `  panellink sku-color FF8800
  panellink sku-color "#3366cc"`,
	Args: cobra.ExactArgs(1),
	RunE: runSkuColor,
}

func runSkuColor(cmd *cobra.Command, args []string) error {
	hex := strings.TrimPrefix(args[0], "#")
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q (expected RRGGBB hex): %w", args[0], err)
	}

	s, _, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetSkuColor(cmd.Context(), uint32(rgb)); err != nil {
		return err
	}
	fmt.Printf("✓ SKU color set to #%06X\n", rgb)
	return nil
}

// serialCmd queries the device-side serial number
var serialCmd = &cobra.Command{
	Use:     "serial",
	Short:   "Query the panel's device serial number",
	Example: `  panellink serial`,
	RunE:    runSerial,
}

func runSerial(cmd *cobra.Command, args []string) error {
	s, _, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	sn, err := s.SerialNumber(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(sn)
	return nil
}

// nicknameCmd sets a local nickname for a panel
var nicknameCmd = &cobra.Command{
	Use:     "nickname <name>",
	Short:   "Set a local nickname for the panel",
	Long:    `Store a user-friendly name for the panel in the local registry.`,
	Example: `  panellink nickname "Front panel" --serial PL24081234`,
	Args:    cobra.ExactArgs(1),
	RunE:    runNickname,
}

func runNickname(cmd *cobra.Command, args []string) error {
	serial := serialFlag
	if serial == "" {
		device, err := discovery.FindDevice("")
		if err != nil {
			return err
		}
		serial = device.Serial
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}
	registry.SetPanelNickname(serial, args[0])
	if err := registry.Save(); err != nil {
		return err
	}
	fmt.Printf("✓ Panel %s is now %q\n", serial, args[0])
	return nil
}

// rebootCmd restarts the panel
var rebootCmd = &cobra.Command{
	Use:     "reboot",
	Short:   "Restart the panel",
	Example: `  panellink reboot`,
	RunE:    runReboot,
}

func runReboot(cmd *cobra.Command, args []string) error {
	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Reboot(); err != nil {
		return err
	}
	fmt.Printf("✓ Reboot sent to panel %s (it will re-enumerate shortly)\n", serial)
	return nil
}

// factoryResetCmd restores factory defaults
var factoryResetCmd = &cobra.Command{
	Use:   "factory-reset",
	Short: "Restore factory defaults",
	Long: `Restore the panel to factory defaults. All pushed media, the powerup
logo and every setting are erased. Requires --yes.`,
	Example: `  panellink factory-reset --yes`,
	RunE:    runFactoryReset,
}

var factoryResetYes bool

func init() {
	factoryResetCmd.Flags().BoolVar(&factoryResetYes, "yes", false, "Confirm the reset")
}

func runFactoryReset(cmd *cobra.Command, args []string) error {
	if !factoryResetYes {
		return fmt.Errorf("factory reset erases all media and settings; re-run with --yes to confirm")
	}

	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.FactoryReset(); err != nil {
		return err
	}
	fmt.Printf("✓ Factory reset sent to panel %s\n", serial)
	return nil
}

// rememberPanelSetting persists an applied setting in the registry. Failures
// are non-fatal; the device already accepted the change.
func rememberPanelSetting(serial string, update func(*config.Panel)) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return
	}
	update(registry.EnsurePanel(serial))
	_ = registry.Save()
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid value %q (expected on/off)", arg)
	}
}
