package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List applications visible to the accessibility layer",
	Long: `List the running applications that expose UI, with their pids and
executables. --windows adds per-application window counts, at the cost
of one extra native call per application.`,
	RunE: runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.Flags().Bool("windows", false, "Include per-application window counts")
}

func runApps(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	els, err := desk.Applications(cmd.Context())
	if err != nil {
		return err
	}

	withWindows, _ := cmd.Flags().GetBool("windows")
	apps := make([]model.Application, 0, len(els))
	for _, el := range els {
		name, err := el.Name(cmd.Context())
		if err != nil {
			// the app quit between enumeration and the name read
			continue
		}
		app := model.Application{Name: name, PID: el.PID, Exe: platform.ProcessExe(el.PID)}
		if withWindows {
			if wins, err := desk.Windows(cmd.Context(), el.PID); err == nil {
				app.Windows = len(wins)
			}
		}
		apps = append(apps, app)
	}
	return output.Print(apps)
}
