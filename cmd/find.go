package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deskdriver/deskdriver/internal/output"
)

// FindResult is the output of a find command.
type FindResult struct {
	Selector string               `yaml:"selector" json:"selector"`
	Matches  []output.ElementInfo `yaml:"matches"  json:"matches"`
}

var findCmd = &cobra.Command{
	Use:   "find <selector>",
	Short: "Resolve a selector to matching elements",
	Long: `Resolve a selector against the live UI and print the match.

Selectors are segments separated by '>>', each segment matching a
descendant of the previous match. Criteria within a segment are joined
with '|' and must all hold:

  process:<name-or-pid>   owning application (first segment only)
  role:<role>             normalized role, e.g. button, input, list
  name:<name>             accessible name, exact
  text:<substring>        name, value, or description contains
  id:<object-id>          element id from earlier output
  nth:<index>             pick the n-th candidate (0-based)

A bare word is role shorthand: 'button' means 'role:button'.

  deskdriver find 'process:Notes >> role:button|name:New note'
  deskdriver find 'window >> text:Save' --process editor --all`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	addFindFlags(findCmd)
	findCmd.Flags().Bool("all", false, "Every match instead of the first")
	findCmd.Flags().Int("depth", 0, "Bound per-segment descent for --all (0 = unlimited)")
}

func runFind(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	selector := args[0]
	opts := findOptions(cmd)

	if all, _ := cmd.Flags().GetBool("all"); all {
		opts.Depth, _ = cmd.Flags().GetInt("depth")
		els, err := desk.FindElements(cmd.Context(), selector, opts)
		if err != nil {
			return err
		}
		matches := make([]output.ElementInfo, 0, len(els))
		for _, el := range els {
			matches = append(matches, describeElement(cmd.Context(), el))
		}
		return output.Print(FindResult{Selector: selector, Matches: matches})
	}

	el, err := desk.FindElement(cmd.Context(), selector, opts)
	if err != nil {
		return err
	}
	return output.Print(FindResult{
		Selector: selector,
		Matches:  []output.ElementInfo{describeElement(cmd.Context(), el)},
	})
}
