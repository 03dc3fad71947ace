package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/openpanel/panellink/internal/config"
	"github.com/openpanel/panellink/internal/discovery"
	"github.com/openpanel/panellink/internal/session"
	"github.com/openpanel/panellink/internal/transfer"
	"github.com/openpanel/panellink/internal/ui"
)

var (
	pushForce       bool
	upgradeWait     int
	suspendSlotName string
)

func init() {
	pushCmd.PersistentFlags().BoolVar(&pushForce, "force", false, "Push even when the registry says the content is unchanged")
	upgradeCmd.Flags().IntVar(&upgradeWait, "wait", 60, "Seconds to wait for the panel to re-enumerate after the upgrade")
	suspendSlotCmd.Flags().StringVar(&suspendSlotName, "label", "", "Label stored for the slot in the local registry")

	pushCmd.AddCommand(pushBackgroundCmd)
	pushCmd.AddCommand(pushOsdCmd)
	pushCmd.AddCommand(pushLogoCmd)

	suspendCmd.AddCommand(suspendEnterCmd)
	suspendCmd.AddCommand(suspendExitCmd)
	suspendCmd.AddCommand(suspendSlotCmd)

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(suspendCmd)
	rootCmd.AddCommand(upgradeCmd)
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push media files to the panel",
	Long: `Push media files to the panel over the chunked transfer channel.

Each push announces the transfer, streams the file in blocks, and confirms
completion with an MD5 digest the firmware verifies.`,
}

var pushBackgroundCmd = &cobra.Command{
	Use:   "background <file>",
	Short: "Push a background image or video",
	Example: `  panellink push background wave.mp4
  panellink push background static.png --serial PL24081234`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPush(cmd, args[0], "background", func(ctx context.Context, s *session.Session, name string, data []byte, onProgress transfer.ProgressFunc) error {
			return s.SendBackground(ctx, name, data, onProgress)
		})
	},
}

var pushOsdCmd = &cobra.Command{
	Use:     "osd <file>",
	Short:   "Push an on-screen display overlay",
	Example: `  panellink push osd badge.png`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPush(cmd, args[0], "osd", func(ctx context.Context, s *session.Session, name string, data []byte, onProgress transfer.ProgressFunc) error {
			return s.SendOsd(ctx, name, data, onProgress)
		})
	},
}

var pushLogoCmd = &cobra.Command{
	Use:     "logo <file>",
	Short:   "Push the power-on logo",
	Example: `  panellink push logo boot.png`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPush(cmd, args[0], "powerup-logo", func(ctx context.Context, s *session.Session, name string, data []byte, onProgress transfer.ProgressFunc) error {
			return s.SendPowerupLogo(ctx, name, data, onProgress)
		})
	},
}

type pushFunc func(ctx context.Context, s *session.Session, name string, data []byte, onProgress transfer.ProgressFunc) error

// runPush loads the file, skips the push when the registry shows unchanged
// content, and renders header/progress/result around the workflow.
func runPush(cmd *cobra.Command, path, kind string, push pushFunc) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	fileName := filepath.Base(path)
	sum := md5.Sum(data)
	digest := hex.EncodeToString(sum[:])

	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}
	if !pushForce {
		if panel := registry.GetPanel(serial); panel != nil {
			if last := panel.Media[kind]; last != nil && last.Md5 == digest {
				fmt.Printf("Panel already has %s (%s unchanged); use --force to push anyway.\n", fileName, kind)
				return nil
			}
		}
	}

	fmt.Println(ui.RenderCommandHeader(ui.HeaderConfig{
		Title:   "MEDIA PUSH",
		Command: "panellink push " + kind,
		Params: map[string]string{
			"Panel": serial,
			"File":  fmt.Sprintf("%s (%d bytes)", fileName, len(data)),
		},
	}))

	prog := ui.NewProgress("Pushing "+fileName+"...", 3).
		SetStepNames([]string{"Announce transfer", "Send blocks", "Confirm digest"})
	prog.StartStep(1, "")

	onProgress := func(blockIndex, totalBlocks int) {
		prog.CompleteStep(1, "")
		prog.StartStep(2, fmt.Sprintf("block %d/%d", blockIndex+1, totalBlocks))
		prog.SetPercent(float64(blockIndex+1) / float64(totalBlocks))
		fmt.Printf("\r  %s", prog.Steps[1].Message)
	}

	err = push(cmd.Context(), s, fileName, data, onProgress)
	fmt.Println()
	if err != nil {
		fmt.Println(ui.RenderFailure("Media push failed", err, []string{
			"Check the file fits the panel's reported size limit ('panellink info')",
			"Unplug and replug the panel, then retry",
		}))
		return err
	}

	fmt.Println(ui.RenderSuccess("Media push complete", map[string]string{
		"File": fileName,
		"MD5":  digest,
	}))

	registry.RecordMediaPush(serial, kind, fileName, digest)
	if err := registry.Save(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to save registry: %v\n", err)
	}
	return nil
}

var suspendCmd = &cobra.Command{
	Use:   "suspend",
	Short: "Manage suspend display mode",
	Long: `Manage the panel's suspend mode: static media shown while the host
is asleep or the real-time feed is off.`,
}

var suspendEnterCmd = &cobra.Command{
	Use:     "enter",
	Short:   "Switch the panel to suspend mode",
	Example: `  panellink suspend enter`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, serial, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.EnterSuspendMode(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("✓ Panel %s is in suspend mode\n", serial)
		return nil
	},
}

var suspendExitCmd = &cobra.Command{
	Use:     "exit",
	Short:   "Leave suspend mode and clear suspend media",
	Example: `  panellink suspend exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, serial, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.ExitSuspendMode(cmd.Context()); err != nil {
			return err
		}

		if registry, err := config.LoadRegistry(); err == nil {
			registry.ClearSuspendSlots(serial)
			_ = registry.Save()
		}

		fmt.Printf("✓ Panel %s left suspend mode; suspend media cleared\n", serial)
		return nil
	},
}

var suspendSlotCmd = &cobra.Command{
	Use:   "slot <index> <file>",
	Short: "Push media into a suspend slot",
	Example: `  panellink suspend slot 0 cpu-temps.png
  panellink suspend slot 1 clock.png --label "Clock"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid slot index: %w", err)
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[1], err)
		}
		fileName := filepath.Base(args[1])

		s, serial, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.PushSuspendSlot(cmd.Context(), slot, fileName, data, nil); err != nil {
			return err
		}

		sum := md5.Sum(data)
		if registry, err := config.LoadRegistry(); err == nil {
			registry.RecordSuspendSlot(serial, slot, suspendSlotName, fileName, hex.EncodeToString(sum[:]))
			_ = registry.Save()
		}

		fmt.Printf("✓ Slot %d loaded with %s\n", slot, fileName)
		return nil
	},
}

var upgradeCmd = &cobra.Command{
	Use:     "upgrade <firmware-file>",
	Aliases: []string{"firmware"},
	Short:   "Upgrade the panel firmware",
	Long: `Push a firmware image to the panel. The firmware validates the image
after the transfer confirmation and reboots on its own to apply it; the
command then waits for the panel to re-enumerate.`,
	Example: `  panellink upgrade panel-fw-3.6.0.bin`,
	Args:    cobra.ExactArgs(1),
	RunE:    runUpgrade,
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	fileName := filepath.Base(args[0])

	s, serial, err := openSession(cmd)
	if err != nil {
		return err
	}

	fmt.Println(ui.RenderCommandHeader(ui.HeaderConfig{
		Title:   "FIRMWARE UPGRADE",
		Command: "panellink upgrade",
		Params: map[string]string{
			"Panel": serial,
			"Image": fmt.Sprintf("%s (%d bytes)", fileName, len(data)),
		},
	}))

	onProgress := func(blockIndex, totalBlocks int) {
		fmt.Printf("\r  block %d/%d", blockIndex+1, totalBlocks)
	}

	err = s.UpgradeFirmware(cmd.Context(), fileName, data, onProgress)
	fmt.Println()
	s.Close()
	if err != nil {
		fmt.Println(ui.RenderFailure("Firmware upgrade failed", err, []string{
			"The panel keeps its old firmware when a transfer fails mid-way",
			"Verify the image matches the panel model ('panellink list')",
		}))
		return err
	}

	fmt.Println("Image transferred; waiting for the panel to apply it and re-enumerate...")

	scanner := discovery.NewScanner()
	device, err := scanner.WaitForDevice(cmd.Context(), serial, time.Duration(upgradeWait)*time.Second)
	if err != nil {
		fmt.Println(ui.RenderWarning("Panel did not reappear", map[string]string{
			"Panel": serial,
			"Hint":  "It may still be flashing; check 'panellink list' in a minute",
		}))
		return nil
	}

	tr, err := device.Open()
	if err != nil {
		return err
	}
	ns := session.Open(tr, session.Options{})
	defer ns.Close()

	details := map[string]string{"Panel": serial}
	if info := ns.FirmwareInfo(); info != nil && info.Firmware != nil {
		details["Firmware"] = fmt.Sprintf("%d.%d.%d (build %d)",
			info.Firmware.Major, info.Firmware.Minor, info.Firmware.Revision, info.Firmware.Build)
	}
	fmt.Println(ui.RenderSuccess("Firmware upgrade complete", details))
	return nil
}
