package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// getDesktop returns the process-wide desktop, constructed on first use
// with the configured logger.
func getDesktop() (*platform.Desktop, error) {
	return platform.Get(platform.WithLogger(logger))
}

// addFindFlags registers the flags shared by every selector-resolving
// command.
func addFindFlags(cmd *cobra.Command) {
	cmd.Flags().String("process", "", "Application name or pid when the selector has no process: segment")
	cmd.Flags().Int("timeout", 0, "Retry resolving for up to this many milliseconds (0 = single attempt)")
}

// findOptions reads the shared resolution flags back off the command.
func findOptions(cmd *cobra.Command) platform.FindOptions {
	process, _ := cmd.Flags().GetString("process")
	timeoutMs, _ := cmd.Flags().GetInt("timeout")
	return platform.FindOptions{
		ProcessHint: process,
		Timeout:     time.Duration(timeoutMs) * time.Millisecond,
	}
}

// resolveTarget resolves a selector argument for an action command.
func resolveTarget(cmd *cobra.Command, selector string) (*platform.Desktop, *platform.Element, error) {
	desk, err := getDesktop()
	if err != nil {
		return nil, nil, err
	}
	el, err := desk.FindElement(cmd.Context(), selector, findOptions(cmd))
	if err != nil {
		return nil, nil, err
	}
	return desk, el, nil
}

// printAction renders the uniform action envelope. A failed action is
// printed and then returned, so the exit code reflects it.
func printAction(action, target string, err error) error {
	result := output.ActionResult{OK: err == nil, Action: action, Target: target}
	if err != nil {
		result.Error = err.Error()
		_ = output.Print(result)
		return err
	}
	return output.Print(result)
}

// describeElement reads the attributes that identify an element in
// command output. A handle that dies mid-read still reports its ids.
func describeElement(ctx context.Context, el *platform.Element) output.ElementInfo {
	info := output.ElementInfo{ID: el.ObjectID, PID: el.PID}
	if attrs, err := el.Attributes(ctx, platform.PropertyModeComplete); err == nil {
		info.Role = attrs.Role
		info.Name = attrs.Name
		info.Value = attrs.Value
		info.Bounds = attrs.Bounds
	}
	return info
}
