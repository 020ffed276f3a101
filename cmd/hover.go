package cmd

import (
	"github.com/spf13/cobra"
)

var hoverCmd = &cobra.Command{
	Use:   "hover <selector>",
	Short: "Move the pointer over an element",
	Long:  "Move the pointer to the element's center without clicking, for tooltips and hover states.",
	Args:  cobra.ExactArgs(1),
	RunE:  runHover,
}

func init() {
	rootCmd.AddCommand(hoverCmd)
	addFindFlags(hoverCmd)
}

func runHover(cmd *cobra.Command, args []string) error {
	desk, el, err := resolveTarget(cmd, args[0])
	if err != nil {
		return err
	}
	return printAction("hover", args[0], desk.Dispatcher().Hover(cmd.Context(), el))
}
