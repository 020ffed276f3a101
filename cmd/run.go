package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

var runCmd = &cobra.Command{
	Use:   "run <command...>",
	Short: "Run a shell command and capture its output",
	Long: `Run a command through /bin/sh -c (cmd /C on Windows) and print its
stdout, stderr, and exit status. A null exit status means the process
was killed by a signal. A non-zero exit is a result, not an error;
only failures to run the command at all exit non-zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("windows-command", "", "Command used on Windows instead of the positional one")
	runCmd.Flags().Int("timeout", 30, "Kill the command after this many seconds")
}

func runShell(cmd *cobra.Command, args []string) error {
	command := strings.Join(args, " ")
	windowsCmd, _ := cmd.Flags().GetString("windows-command")
	if windowsCmd == "" {
		windowsCmd = command
	}

	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	out, err := platform.RunCommand(ctx, windowsCmd, command)
	if err != nil {
		return err
	}
	return output.Print(out)
}
