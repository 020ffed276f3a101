package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/platform"
)

var focusCmd = &cobra.Command{
	Use:   "focus [selector]",
	Short: "Focus an element or bring an application forward",
	Long: `Give keyboard focus to the element resolved by the selector, or
bring an application's frontmost window to the foreground with --app.
--activate raises the element's window before focusing it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFocus,
}

func init() {
	rootCmd.AddCommand(focusCmd)
	addFindFlags(focusCmd)
	focusCmd.Flags().String("app", "", "Application to bring to the foreground")
	focusCmd.Flags().Bool("activate", false, "Raise the element's window first")
}

func runFocus(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		app, _ := cmd.Flags().GetString("app")
		if app == "" {
			return platform.InvalidArgument("need a selector argument or --app")
		}
		return printAction("focus", app, desk.ActivateApplication(cmd.Context(), app))
	}

	selector := args[0]
	el, err := desk.FindElement(cmd.Context(), selector, findOptions(cmd))
	if err != nil {
		return err
	}
	if activate, _ := cmd.Flags().GetBool("activate"); activate {
		if err := el.Activate(cmd.Context()); err != nil {
			return printAction("focus", selector, err)
		}
	}
	return printAction("focus", selector, el.Focus(cmd.Context()))
}
