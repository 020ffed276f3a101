package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var scrollCmd = &cobra.Command{
	Use:   "scroll <direction>",
	Short: "Scroll within an element or at a screen coordinate",
	Long: `Scroll up, down, left, or right by --amount wheel notches, either
within the element resolved by --in or at the screen point --x/--y.`,
	Args: cobra.ExactArgs(1),
	RunE: runScroll,
}

func init() {
	rootCmd.AddCommand(scrollCmd)
	addFindFlags(scrollCmd)
	scrollCmd.Flags().String("in", "", "Selector of the element to scroll within")
	scrollCmd.Flags().Float64("amount", 3, "Wheel notches to scroll")
	scrollCmd.Flags().Int("x", 0, "Absolute X screen coordinate")
	scrollCmd.Flags().Int("y", 0, "Absolute Y screen coordinate")
}

func runScroll(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	direction := args[0]
	amount, _ := cmd.Flags().GetFloat64("amount")

	if in, _ := cmd.Flags().GetString("in"); in != "" {
		el, err := desk.FindElement(cmd.Context(), in, findOptions(cmd))
		if err != nil {
			return err
		}
		return printAction("scroll", in, desk.Dispatcher().Scroll(cmd.Context(), el, direction, amount))
	}

	if !cmd.Flags().Changed("x") || !cmd.Flags().Changed("y") {
		return platform.InvalidArgument("need --in or both --x and --y")
	}
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	target := fmt.Sprintf("%d,%d", x, y)
	return printAction("scroll", target, desk.Dispatcher().ScrollAtPoint(cmd.Context(), x, y, direction, amount))
}
