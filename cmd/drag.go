package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var dragCmd = &cobra.Command{
	Use:   "drag [selector]",
	Short: "Drag from an element or point to a point",
	Long: `Press the left button at the start, move to --to-x/--to-y, and
release. The start is the selector's element center, or --from-x and
--from-y when no selector is given. The drag is three discrete events
with no intermediate motion.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrag,
}

func init() {
	rootCmd.AddCommand(dragCmd)
	addFindFlags(dragCmd)
	dragCmd.Flags().Int("from-x", 0, "Drag start X (without a selector)")
	dragCmd.Flags().Int("from-y", 0, "Drag start Y (without a selector)")
	dragCmd.Flags().Int("to-x", 0, "Drag end X")
	dragCmd.Flags().Int("to-y", 0, "Drag end Y")
}

func runDrag(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("to-x") || !cmd.Flags().Changed("to-y") {
		return platform.InvalidArgument("need both --to-x and --to-y")
	}
	toX, _ := cmd.Flags().GetInt("to-x")
	toY, _ := cmd.Flags().GetInt("to-y")

	if len(args) > 0 {
		selector := args[0]
		el, err := desk.FindElement(cmd.Context(), selector, findOptions(cmd))
		if err != nil {
			return err
		}
		return printAction("drag", selector, desk.Dispatcher().DragFromElement(cmd.Context(), el, toX, toY))
	}

	if !cmd.Flags().Changed("from-x") || !cmd.Flags().Changed("from-y") {
		return platform.InvalidArgument("need a selector argument or both --from-x and --from-y")
	}
	fromX, _ := cmd.Flags().GetInt("from-x")
	fromY, _ := cmd.Flags().GetInt("from-y")
	target := fmt.Sprintf("%d,%d to %d,%d", fromX, fromY, toX, toY)
	return printAction("drag", target, desk.Dispatcher().Drag(cmd.Context(), fromX, fromY, toX, toY))
}
