package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
)

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List connected displays",
	Long: `List every display with its geometry, scale factor, and primary
flag. --active prints only the display under the pointer, --primary
only the primary one.`,
	RunE: runMonitors,
}

func init() {
	rootCmd.AddCommand(monitorsCmd)
	monitorsCmd.Flags().Bool("active", false, "Only the display under the pointer")
	monitorsCmd.Flags().Bool("primary", false, "Only the primary display")
}

func runMonitors(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	if active, _ := cmd.Flags().GetBool("active"); active {
		m, err := desk.ActiveMonitor(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(m)
	}
	if primary, _ := cmd.Flags().GetBool("primary"); primary {
		m, err := desk.PrimaryMonitor(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(m)
	}

	monitors, err := desk.Monitors(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(monitors)
}
