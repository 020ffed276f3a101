package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var typeCmd = &cobra.Command{
	Use:   "type <text>",
	Short: "Type text into an element or whatever has focus",
	Long: `Type text with synthetic key events. Without --into the text goes
to whatever currently has keyboard focus; with --into the element is
resolved and focused first. --clipboard pastes through the clipboard
instead, which is much faster for long text.`,
	Args: cobra.ExactArgs(1),
	RunE: runType,
}

func init() {
	rootCmd.AddCommand(typeCmd)
	addFindFlags(typeCmd)
	typeCmd.Flags().String("into", "", "Selector of the element to focus and type into")
	typeCmd.Flags().Bool("clipboard", false, "Paste via the clipboard instead of per-key events")
	typeCmd.Flags().Int("delay", 0, "Delay between keystrokes in milliseconds")
	typeCmd.Flags().Bool("click", false, "Click the element to focus it instead of the focus call")
	typeCmd.Flags().Bool("restore-focus", false, "Refocus the previously focused element afterward")
}

func runType(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	text := args[0]
	delayMs, _ := cmd.Flags().GetInt("delay")
	opts := platform.TypeOptions{Delay: time.Duration(delayMs) * time.Millisecond}
	opts.UseClipboard, _ = cmd.Flags().GetBool("clipboard")
	opts.TryClickBefore, _ = cmd.Flags().GetBool("click")
	opts.RestoreFocus, _ = cmd.Flags().GetBool("restore-focus")

	into, _ := cmd.Flags().GetString("into")
	if into == "" {
		if opts.TryClickBefore {
			return platform.InvalidArgument("--click needs --into")
		}
		return printAction("type", "", desk.Dispatcher().TypeText(cmd.Context(), nil, text, opts))
	}

	el, err := desk.FindElement(cmd.Context(), into, findOptions(cmd))
	if err != nil {
		return err
	}
	if !opts.TryClickBefore {
		opts.TryFocusBefore = true
	}
	return printAction("type", into, desk.Dispatcher().TypeText(cmd.Context(), el, text, opts))
}
