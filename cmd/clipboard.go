package cmd

import (
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
)

// ClipboardReadResult is the output of clipboard read and grab. Text is
// always present, so an empty clipboard is distinguishable from a
// failed read.
type ClipboardReadResult struct {
	OK     bool   `yaml:"ok"     json:"ok"`
	Action string `yaml:"action" json:"action"`
	Text   string `yaml:"text"   json:"text"`
}

var clipboardCmd = &cobra.Command{
	Use:   "clipboard",
	Short: "Read, write, or clear the system clipboard",
}

var clipboardReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Print the current clipboard text",
	RunE:  runClipboardRead,
}

var clipboardWriteCmd = &cobra.Command{
	Use:   "write <text>",
	Short: "Write text to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runClipboardWrite,
}

var clipboardClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the clipboard",
	RunE:  runClipboardClear,
}

var clipboardGrabCmd = &cobra.Command{
	Use:   "grab",
	Short: "Copy an application's selection and print it",
	Long: `Bring the application forward, select all, copy, and print the
clipboard. A blunt way to read text out of applications whose
accessibility tree does not expose values.`,
	RunE: runClipboardGrab,
}

func init() {
	rootCmd.AddCommand(clipboardCmd)
	clipboardCmd.AddCommand(clipboardReadCmd)
	clipboardCmd.AddCommand(clipboardWriteCmd)
	clipboardCmd.AddCommand(clipboardClearCmd)
	clipboardCmd.AddCommand(clipboardGrabCmd)
	clipboardGrabCmd.Flags().String("app", "", "Application to grab from")
}

func runClipboardRead(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}
	text, err := desk.Clipboard().GetText(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(ClipboardReadResult{OK: true, Action: "clipboard-read", Text: text})
}

func runClipboardWrite(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}
	return printAction("clipboard-write", "", desk.Clipboard().SetText(cmd.Context(), args[0]))
}

func runClipboardClear(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}
	return printAction("clipboard-clear", "", desk.Clipboard().Clear(cmd.Context()))
}

func runClipboardGrab(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	if app, _ := cmd.Flags().GetString("app"); app != "" {
		if err := desk.ActivateApplication(cmd.Context(), app); err != nil {
			return err
		}
		// let the window come forward before the chords land
		time.Sleep(300 * time.Millisecond)
	}

	mod := "ctrl"
	if runtime.GOOS == "darwin" {
		mod = "cmd"
	}
	if err := desk.PressKeyGlobal(cmd.Context(), mod+"+a"); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	if err := desk.PressKeyGlobal(cmd.Context(), mod+"+c"); err != nil {
		return err
	}
	time.Sleep(200 * time.Millisecond)

	text, err := desk.Clipboard().GetText(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(ClipboardReadResult{OK: true, Action: "clipboard-grab", Text: text})
}
