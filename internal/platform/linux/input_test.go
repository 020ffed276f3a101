//go:build linux

package linux

import (
	"testing"

	"github.com/deskdriver/deskdriver/internal/platform"
)

func TestResolveKeyCombo(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		sym  uint32
		mask uint32
		ok   bool
	}{
		{"single letter", []string{"a"}, 'a', 0, true},
		{"digit", []string{"7"}, '7', 0, true},
		{"enter", []string{"enter"}, 0xFF0D, 0, true},
		{"function key", []string{"f5"}, 0xFFC2, 0, true},
		{"ctrl combo", []string{"ctrl", "c"}, 'c', maskControl, true},
		{"stacked modifiers", []string{"ctrl", "shift", "alt", "t"}, 't', maskControl | maskShift | maskAlt, true},
		{"cmd is super", []string{"cmd", "l"}, 'l', maskSuper, true},
		{"case and whitespace", []string{" Ctrl ", "C"}, 'c', maskControl, true},
		{"unknown key", []string{"ctrl", "banana"}, 0, 0, false},
		{"only modifiers", []string{"ctrl", "shift"}, 0, 0, false},
		{"empty combo", nil, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, mask, err := resolveKeyCombo(tt.keys)
			if tt.ok != (err == nil) {
				t.Fatalf("resolveKeyCombo(%v) error = %v, want ok=%v", tt.keys, err, tt.ok)
			}
			if err != nil {
				return
			}
			if sym != tt.sym || mask != tt.mask {
				t.Errorf("resolveKeyCombo(%v) = (%#x, %#x), want (%#x, %#x)",
					tt.keys, sym, mask, tt.sym, tt.mask)
			}
		})
	}
}

func TestButtonEvent(t *testing.T) {
	if got := buttonEvent(platform.MouseLeft, "c"); got != "b1c" {
		t.Errorf("left click event = %q, want b1c", got)
	}
	if got := buttonEvent(platform.MouseRight, "p"); got != "b3p" {
		t.Errorf("right press event = %q, want b3p", got)
	}
	if got := buttonEvent(platform.MouseMiddle, "r"); got != "b2r" {
		t.Errorf("middle release event = %q, want b2r", got)
	}
}
