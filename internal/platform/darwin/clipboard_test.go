//go:build darwin && cgo

package darwin

import (
	"context"
	"testing"
)

func TestClipboardRoundTrip(t *testing.T) {
	c := NewClipboard()
	ctx := context.Background()

	text := "hello clipboard test"
	if err := c.SetText(ctx, text); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	got, err := c.GetText(ctx)
	if err != nil {
		t.Fatalf("GetText: %v", err)
	}
	if got != text {
		t.Errorf("GetText = %q, want %q", got, text)
	}
}

func TestClipboardUnicode(t *testing.T) {
	c := NewClipboard()
	ctx := context.Background()

	text := "Hello 🌍 café ñ 中文"
	if err := c.SetText(ctx, text); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	got, err := c.GetText(ctx)
	if err != nil {
		t.Fatalf("GetText: %v", err)
	}
	if got != text {
		t.Errorf("GetText = %q, want %q", got, text)
	}
}

func TestClipboardWhitespace(t *testing.T) {
	c := NewClipboard()
	ctx := context.Background()

	text := "  line1\n\tline2\n  line3  "
	if err := c.SetText(ctx, text); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	got, err := c.GetText(ctx)
	if err != nil {
		t.Fatalf("GetText: %v", err)
	}
	if got != text {
		t.Errorf("GetText = %q, want %q", got, text)
	}
}

func TestClipboardClear(t *testing.T) {
	c := NewClipboard()
	ctx := context.Background()

	if err := c.SetText(ctx, "not empty"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	got, err := c.GetText(ctx)
	if err != nil {
		t.Fatalf("GetText: %v", err)
	}
	if got != "" {
		t.Errorf("after Clear, GetText = %q, want empty string", got)
	}
}

func TestClipboardEmptyString(t *testing.T) {
	c := NewClipboard()
	ctx := context.Background()

	if err := c.SetText(ctx, ""); err != nil {
		t.Fatalf("SetText empty: %v", err)
	}

	got, err := c.GetText(ctx)
	if err != nil {
		t.Fatalf("GetText: %v", err)
	}
	if got != "" {
		t.Errorf("GetText = %q, want empty string", got)
	}
}

func TestClipboardCancelledContext(t *testing.T) {
	c := NewClipboard()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.SetText(ctx, "never lands"); err == nil {
		t.Error("SetText with cancelled context succeeded, want error")
	}
}
