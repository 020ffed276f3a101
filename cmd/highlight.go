package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight <selector>",
	Short: "Flash a frame around an element on screen",
	Long: `Draw a border around the element's bounds for --duration
milliseconds, to confirm visually which element a selector resolves to.
Backends without an overlay report the operation as unsupported.`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

func init() {
	rootCmd.AddCommand(highlightCmd)
	addFindFlags(highlightCmd)
	highlightCmd.Flags().Int("duration", 2000, "How long to show the frame, in milliseconds")
}

func runHighlight(cmd *cobra.Command, args []string) error {
	desk, el, err := resolveTarget(cmd, args[0])
	if err != nil {
		return err
	}

	bounds, err := el.Bounds(cmd.Context())
	if err != nil {
		return printAction("highlight", args[0], err)
	}

	durationMs, _ := cmd.Flags().GetInt("duration")
	d := time.Duration(durationMs) * time.Millisecond
	return printAction("highlight", args[0], desk.Overlay().Highlight(cmd.Context(), bounds, d))
}
