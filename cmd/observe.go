package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

var observeCmd = &cobra.Command{
	Use:   "observe <process>",
	Short: "Watch a window and stream tree changes as JSONL",
	Long: `Poll the window's tree and emit one JSON line per poll that found
changes: nodes added, removed, or changed since the previous poll,
matched by content hash. Nothing is printed while the UI is stable.
Output is always JSONL regardless of --format, one event per line, so
it can be piped into jq or tailed by an agent.`,
	Args: cobra.ExactArgs(1),
	RunE: runObserve,
}

func init() {
	rootCmd.AddCommand(observeCmd)
	observeCmd.Flags().String("window", "", "Window title substring (first window when empty)")
	observeCmd.Flags().String("mode", "", "Property capture mode: fast, complete, smart")
	observeCmd.Flags().Int("interval", 1000, "Polling interval in milliseconds")
	observeCmd.Flags().Int("duration", 0, "Max seconds to observe (0 = until interrupted)")
}

func runObserve(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	build, err := treeConfig(cmd)
	if err != nil {
		return err
	}

	pid, err := platform.ResolvePID(args[0])
	if err != nil {
		return err
	}
	window, _ := cmd.Flags().GetString("window")
	intervalMs, _ := cmd.Flags().GetInt("interval")
	durationSec, _ := cmd.Flags().GetInt("duration")

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)

	interval := time.Duration(intervalMs) * time.Millisecond
	var deadline time.Time
	if durationSec > 0 {
		deadline = time.Now().Add(time.Duration(durationSec) * time.Second)
	}
	start := time.Now()

	tree, err := desk.WindowTree(cmd.Context(), pid, window, build)
	if err != nil {
		return fmt.Errorf("initial capture failed: %w", err)
	}
	prev := model.Flatten(tree)

	enc.Encode(map[string]interface{}{
		"type":  "snapshot",
		"ts":    time.Now().Unix(),
		"count": len(prev),
	})

	events := 0
	for {
		if durationSec > 0 && time.Now().After(deadline) {
			break
		}
		time.Sleep(interval)

		tree, err := desk.WindowTree(cmd.Context(), pid, window, build)
		if err != nil {
			// the window may be mid-transition; keep polling
			enc.Encode(map[string]interface{}{
				"type":  "error",
				"ts":    time.Now().Unix(),
				"error": err.Error(),
			})
			continue
		}
		curr := model.Flatten(tree)

		diff := model.DiffTrees(prev, curr)
		if !diff.Empty() {
			enc.Encode(map[string]interface{}{
				"type":    "diff",
				"ts":      time.Now().Unix(),
				"added":   diff.Added,
				"removed": diff.Removed,
				"changed": diff.Changed,
			})
			events++
		}
		prev = curr
	}

	enc.Encode(map[string]interface{}{
		"type":    "done",
		"ts":      time.Now().Unix(),
		"elapsed": fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
		"events":  events,
	})
	return nil
}
