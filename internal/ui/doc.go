// Package ui provides terminal UI components for the panellink CLI.
//
// This package uses Bubbles and Lipgloss to render polished terminal output
// for device commands. The components follow a "run once and exit" pattern:
// they render output compellingly but don't require user interaction.
//
// # Architecture
//
// The UI package provides three main component types:
//
//   - Header: Command banner showing operation name and parameters
//   - Progress: Progress bar with step list showing real-time status
//   - Result: Success/failure boxes with styled information
//
// Long-running commands (media pushes, firmware upgrades) render a Header,
// repaint a Progress while blocks stream to the device, and finish with a
// Result box.
//
// Example:
//
//	prog := ui.NewProgress("Pushing wave.mp4...", 3).
//	    SetStepNames([]string{"Announce transfer", "Send blocks", "Confirm"})
//	prog.StartStep(2, "block 12/40")
//	prog.SetPercent(float64(12) / 40)
//	fmt.Println(prog.Render())
//
// # Logging Integration
//
// This package expects logging to be controlled via the PANELLINK_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly. Set PANELLINK_LOG_LEVEL to
// "debug", "info", "warn", or "error" to enable logging output.
package ui
