package cmd

import (
	"io"
	"testing"
)

func TestAllCommandsRegistered(t *testing.T) {
	expected := []string{
		"tree", "apps", "find", "click", "type", "press", "scroll",
		"drag", "hover", "focus", "highlight", "open", "run",
		"monitors", "screenshot", "wait", "observe", "do", "serve",
		"version", "clipboard",
	}
	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestClipboardSubcommands(t *testing.T) {
	subs := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		if c.Name() == "clipboard" {
			for _, sub := range c.Commands() {
				subs[sub.Name()] = true
			}
		}
	}
	if len(subs) == 0 {
		t.Fatal("clipboard command not registered")
	}
	for _, name := range []string{"read", "write", "clear", "grab"} {
		if !subs[name] {
			t.Errorf("clipboard subcommand %q not registered", name)
		}
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"--format", "xml", "version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err == nil {
		t.Error("--format xml should be rejected")
	}
}
