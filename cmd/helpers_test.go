package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestFindOptionsFromFlags(t *testing.T) {
	c := &cobra.Command{}
	addFindFlags(c)
	if err := c.Flags().Set("process", "editor"); err != nil {
		t.Fatal(err)
	}
	if err := c.Flags().Set("timeout", "250"); err != nil {
		t.Fatal(err)
	}

	opts := findOptions(c)
	if opts.ProcessHint != "editor" {
		t.Errorf("ProcessHint = %q, want editor", opts.ProcessHint)
	}
	if opts.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout = %v, want 250ms", opts.Timeout)
	}
}

func TestFindOptionsDefaults(t *testing.T) {
	c := &cobra.Command{}
	addFindFlags(c)

	opts := findOptions(c)
	if opts.ProcessHint != "" {
		t.Errorf("ProcessHint = %q, want empty", opts.ProcessHint)
	}
	if opts.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", opts.Timeout)
	}
}

func TestTreeConfigFlagOverrides(t *testing.T) {
	c := &cobra.Command{}
	c.Flags().String("mode", "", "")
	c.Flags().Int("depth", 0, "")
	c.Flags().String("from", "", "")
	c.Flags().Bool("all-bounds", false, "")
	c.Flags().Int("settle", 0, "")

	c.Flags().Set("mode", "smart")
	c.Flags().Set("depth", "0")
	c.Flags().Set("from", "role:toolbar")
	c.Flags().Set("settle", "100")

	build, err := treeConfig(c)
	if err != nil {
		t.Fatalf("treeConfig: %v", err)
	}
	if build.Mode.String() != "smart" {
		t.Errorf("Mode = %s, want smart", build.Mode)
	}
	if build.MaxDepth == nil || *build.MaxDepth != 0 {
		t.Errorf("MaxDepth = %v, want explicit 0", build.MaxDepth)
	}
	if build.FromSelector != "role:toolbar" {
		t.Errorf("FromSelector = %q", build.FromSelector)
	}
	if build.SettleDelay != 100*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 100ms", build.SettleDelay)
	}
}

func TestTreeConfigDepthUnsetMeansUnlimited(t *testing.T) {
	c := &cobra.Command{}
	c.Flags().String("mode", "", "")
	c.Flags().Int("depth", 0, "")

	build, err := treeConfig(c)
	if err != nil {
		t.Fatalf("treeConfig: %v", err)
	}
	if build.MaxDepth != nil {
		t.Errorf("MaxDepth = %v, want nil for unlimited", *build.MaxDepth)
	}
}

func TestTreeConfigRejectsBadMode(t *testing.T) {
	c := &cobra.Command{}
	c.Flags().String("mode", "", "")
	c.Flags().Set("mode", "turbo")

	if _, err := treeConfig(c); err == nil {
		t.Error("unknown mode should error")
	}
}
