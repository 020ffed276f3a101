package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
)

// VersionResult is the output of the version command.
type VersionResult struct {
	Version   string `yaml:"version"    json:"version"`
	Commit    string `yaml:"commit"     json:"commit"`
	BuildDate string `yaml:"build_date" json:"build_date"`
	Platform  string `yaml:"platform"   json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	return output.Print(VersionResult{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	})
}
