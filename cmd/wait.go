package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// WaitResult is the output of a wait command.
type WaitResult struct {
	OK       bool                `yaml:"ok"                  json:"ok"`
	Action   string              `yaml:"action"              json:"action"`
	Selector string              `yaml:"selector"            json:"selector"`
	Elapsed  string              `yaml:"elapsed"             json:"elapsed"`
	Match    *output.ElementInfo `yaml:"match,omitempty"     json:"match,omitempty"`
	TimedOut bool                `yaml:"timed_out,omitempty" json:"timed_out,omitempty"`
}

var waitCmd = &cobra.Command{
	Use:   "wait <selector>",
	Short: "Wait until a selector resolves",
	Long: `Poll until the selector resolves to an element or the timeout
elapses. Timing out exits non-zero, so scripts can gate on UI state:

  deskdriver open --app Notes && deskdriver wait 'window' --process Notes`,
	Args: cobra.ExactArgs(1),
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("process", "", "Application name or pid when the selector has no process: segment")
	waitCmd.Flags().String("in", "", "Selector of a scope element to wait under")
	waitCmd.Flags().Int("timeout", 30, "Max seconds to wait")
}

func runWait(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	selector := args[0]
	process, _ := cmd.Flags().GetString("process")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	timeout := time.Duration(timeoutSec) * time.Second

	start := time.Now()
	var el *platform.Element
	if in, _ := cmd.Flags().GetString("in"); in != "" {
		var scope *platform.Element
		scope, err = desk.FindElement(cmd.Context(), in, platform.FindOptions{ProcessHint: process})
		if err != nil {
			return err
		}
		el, err = scope.WaitFor(cmd.Context(), selector, timeout)
	} else {
		el, err = desk.FindElement(cmd.Context(), selector, platform.FindOptions{
			ProcessHint: process,
			Timeout:     timeout,
		})
	}
	elapsed := fmt.Sprintf("%.1fs", time.Since(start).Seconds())

	if err != nil {
		// Print the result, then return the error for a non-zero exit
		_ = output.Print(WaitResult{
			Action:   "wait",
			Selector: selector,
			Elapsed:  elapsed,
			TimedOut: platform.IsCode(err, platform.ErrCodeElementNotFound),
		})
		return err
	}

	info := describeElement(cmd.Context(), el)
	return output.Print(WaitResult{
		OK:       true,
		Action:   "wait",
		Selector: selector,
		Elapsed:  elapsed,
		Match:    &info,
	})
}
