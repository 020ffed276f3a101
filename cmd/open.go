package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// OpenResult is the output of an open command.
type OpenResult struct {
	OK     bool                `yaml:"ok"            json:"ok"`
	Action string              `yaml:"action"        json:"action"`
	Target string              `yaml:"target"        json:"target"`
	App    *output.ElementInfo `yaml:"app,omitempty" json:"app,omitempty"`
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open an application, URL, or file",
	Long: `Open an application by name (waiting for its UI to appear), a URL
in a browser, or a file with its default handler. Opening an app prints
the application element so follow-up commands can target its pid.`,
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().String("app", "", "Application to open")
	openCmd.Flags().String("url", "", "URL to open")
	openCmd.Flags().String("file", "", "File path to open")
	openCmd.Flags().String("browser", "", "Browser for --url (default handler when empty)")
}

func runOpen(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	app, _ := cmd.Flags().GetString("app")
	url, _ := cmd.Flags().GetString("url")
	file, _ := cmd.Flags().GetString("file")

	switch {
	case url != "":
		browser, _ := cmd.Flags().GetString("browser")
		return printAction("open", url, desk.OpenURL(cmd.Context(), url, browser))
	case file != "":
		return printAction("open", file, desk.OpenFile(cmd.Context(), file))
	case app != "":
		el, err := desk.OpenApplication(cmd.Context(), app)
		if err != nil {
			return printAction("open", app, err)
		}
		info := describeElement(cmd.Context(), el)
		return output.Print(OpenResult{OK: true, Action: "open", Target: app, App: &info})
	default:
		return platform.InvalidArgument("need one of --app, --url, or --file")
	}
}
