package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// snapshotMaxAge bounds how long tree snapshots are kept for --diff.
const snapshotMaxAge = time.Hour

var treeCmd = &cobra.Command{
	Use:   "tree <process>",
	Short: "Capture the accessibility tree of an application window",
	Long: `Capture the element tree of one window, identified by application
name or pid and optionally a window title substring. The default output
is the nested tree; --flat and --interactive switch to flat listings
with breadcrumb paths, and --diff prints only what changed since the
previous capture of the same window.

--roles, --text, --within, and --prune narrow the printed tree. They do
not apply to --diff, which always compares full captures.`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().String("window", "", "Window title substring (first window when empty)")
	treeCmd.Flags().String("mode", "", "Property capture mode: fast, complete, smart")
	treeCmd.Flags().Int("depth", 0, "Max depth to capture (0 = root only; omit for unlimited)")
	treeCmd.Flags().String("from", "", "Selector scoping the capture to a subtree")
	treeCmd.Flags().Bool("flat", false, "Flat element list with breadcrumb paths")
	treeCmd.Flags().Bool("interactive", false, "Flat list of interactive elements only")
	treeCmd.Flags().Bool("all-bounds", false, "Attach bounds to every node, not only focusable ones")
	treeCmd.Flags().Int("settle", 0, "Sleep this many milliseconds before capturing")
	treeCmd.Flags().Bool("diff", false, "Print changes since the previous capture of this window")
	treeCmd.Flags().StringSlice("roles", nil, "Keep only these roles (meta roles like interactive expand)")
	treeCmd.Flags().String("text", "", "Keep only nodes whose text contains this, with their ancestors")
	treeCmd.Flags().String("within", "", "Keep only nodes intersecting this x,y,width,height screen region")
	treeCmd.Flags().Bool("prune", false, "Drop anonymous container nodes, promoting their children")
}

// treeConfig assembles the capture config from the config file defaults
// and the command flags. Flags the command does not define fall through
// to the file values, so observe shares this with tree.
func treeConfig(cmd *cobra.Command) (platform.TreeBuildConfig, error) {
	build, err := cfg.Capture.TreeConfig()
	if err != nil {
		return build, err
	}
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		m, err := platform.ParsePropertyMode(mode)
		if err != nil {
			return build, err
		}
		build.Mode = m
	}
	if cmd.Flags().Changed("depth") {
		depth, _ := cmd.Flags().GetInt("depth")
		build.MaxDepth = &depth
	}
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		build.FromSelector = from
	}
	if allBounds, _ := cmd.Flags().GetBool("all-bounds"); allBounds {
		build.IncludeAllBounds = true
	}
	if settle, _ := cmd.Flags().GetInt("settle"); settle > 0 {
		build.SettleDelay = time.Duration(settle) * time.Millisecond
	}
	return build, nil
}

func runTree(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	build, err := treeConfig(cmd)
	if err != nil {
		return err
	}
	var within *model.Rect
	if spec, _ := cmd.Flags().GetString("within"); spec != "" {
		if within, err = platform.ParseBBox(spec); err != nil {
			return err
		}
	}

	pid, err := platform.ResolvePID(args[0])
	if err != nil {
		return err
	}
	window, _ := cmd.Flags().GetString("window")

	tree, err := desk.WindowTree(cmd.Context(), pid, window, build)
	if err != nil {
		return err
	}

	name, _ := platform.ProcessName(pid)
	ts := time.Now().Unix()

	if diff, _ := cmd.Flags().GetBool("diff"); diff {
		return printTreeDiff(name, pid, window, ts, tree)
	}
	tree = applyTreeFilters(cmd, tree, within)

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return output.Print(output.FlatTreeResult{
			App: name, PID: pid, Window: window, TS: ts,
			Elements: model.InteractiveOnly(tree),
		})
	}
	if flat, _ := cmd.Flags().GetBool("flat"); flat {
		return output.Print(output.FlatTreeResult{
			App: name, PID: pid, Window: window, TS: ts,
			Elements: model.Flatten(tree),
		})
	}
	return output.Print(output.TreeResult{
		App: name, PID: pid, Window: window, TS: ts,
		Nodes: tree.Count(), Tree: tree,
	})
}

// printTreeDiff diffs the capture against the last saved snapshot of the
// same window, then saves this capture for the next run. With no prior
// snapshot every node reports as added.
func printTreeDiff(name string, pid int32, window string, ts int64, tree *model.UINode) error {
	scope := fmt.Sprintf("%s-%d-%s", name, pid, window)
	flat := model.Flatten(tree)

	var prev []model.FlatNode
	if prevTS := model.LatestSnapshotTS(scope); prevTS > 0 {
		if loaded, err := model.LoadSnapshot(scope, prevTS); err == nil {
			prev = loaded
		}
	}
	diff := model.DiffTrees(prev, flat)

	if err := model.SaveSnapshot(scope, ts, flat); err != nil {
		return err
	}
	model.CleanSnapshots(scope, snapshotMaxAge)

	return output.Print(diff)
}

// applyTreeFilters narrows the captured tree per the filter flags. The
// window root always survives; filters act on its contents. Pruning runs
// first so the text filter keeps named ancestors rather than anonymous
// containers.
func applyTreeFilters(cmd *cobra.Command, tree *model.UINode, within *model.Rect) *model.UINode {
	roles, _ := cmd.Flags().GetStringSlice("roles")
	text, _ := cmd.Flags().GetString("text")
	prune, _ := cmd.Flags().GetBool("prune")
	if len(roles) == 0 && text == "" && within == nil && !prune {
		return tree
	}

	children := tree.Children
	if prune {
		children = model.PruneEmptyGroups(children)
	}
	children = model.FilterTree(children, roles, within)
	children = model.FilterByText(children, text)

	filtered := *tree
	filtered.Children = children
	return &filtered
}
