package cmd

import (
	"github.com/spf13/cobra"
)

var pressCmd = &cobra.Command{
	Use:   "press <combo>",
	Short: "Press a key combination",
	Long: `Press a key combination such as 'ctrl+c', 'cmd+shift+t', or
'enter'. Modifier aliases are normalized, so 'command', 'super', and
'win' all mean cmd. With --into the element is focused first; otherwise
the combo goes to whatever has focus.`,
	Args: cobra.ExactArgs(1),
	RunE: runPress,
}

func init() {
	rootCmd.AddCommand(pressCmd)
	addFindFlags(pressCmd)
	pressCmd.Flags().String("into", "", "Selector of the element to focus first")
}

func runPress(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	combo := args[0]
	into, _ := cmd.Flags().GetString("into")
	if into == "" {
		return printAction("press", combo, desk.PressKeyGlobal(cmd.Context(), combo))
	}

	el, err := desk.FindElement(cmd.Context(), into, findOptions(cmd))
	if err != nil {
		return err
	}
	return printAction("press", into, desk.Dispatcher().PressKey(cmd.Context(), el, combo))
}
