package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var clickCmd = &cobra.Command{
	Use:   "click [selector]",
	Short: "Click an element or a screen coordinate",
	Long: `Click the center of the element resolved by the selector, or raw
screen coordinates given with --x and --y.

  deskdriver click 'role:button|name:OK' --process Notes
  deskdriver click --x 640 --y 400 --button right`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClick,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	addFindFlags(clickCmd)
	clickCmd.Flags().Int("x", 0, "Absolute X screen coordinate")
	clickCmd.Flags().Int("y", 0, "Absolute Y screen coordinate")
	clickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	clickCmd.Flags().Bool("double", false, "Double-click")
	clickCmd.Flags().Bool("focus", false, "Focus the element before clicking")
	clickCmd.Flags().Bool("restore-cursor", false, "Put the pointer back afterward")
}

func runClick(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	buttonStr, _ := cmd.Flags().GetString("button")
	button, err := platform.ParseMouseButton(buttonStr)
	if err != nil {
		return err
	}
	opts := platform.ClickOptions{Button: button, Count: 1}
	if double, _ := cmd.Flags().GetBool("double"); double {
		opts.Count = 2
	}
	opts.TryFocusBefore, _ = cmd.Flags().GetBool("focus")
	opts.RestoreCursor, _ = cmd.Flags().GetBool("restore-cursor")

	if len(args) == 0 {
		if !cmd.Flags().Changed("x") || !cmd.Flags().Changed("y") {
			return platform.InvalidArgument("need a selector argument or both --x and --y")
		}
		x, _ := cmd.Flags().GetInt("x")
		y, _ := cmd.Flags().GetInt("y")
		target := fmt.Sprintf("%d,%d", x, y)
		return printAction("click", target, desk.Dispatcher().ClickAtPoint(cmd.Context(), x, y, opts))
	}

	selector := args[0]
	el, err := desk.FindElement(cmd.Context(), selector, findOptions(cmd))
	if err != nil {
		return err
	}
	return printAction("click", selector, desk.Dispatcher().Click(cmd.Context(), el, opts))
}
