package platform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// ParseMouseButton converts a string flag value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, InvalidArgument(fmt.Sprintf("unknown mouse button: %q (expected left, right, or middle)", s))
	}
}

// String returns the flag spelling of the button.
func (b MouseButton) String() string {
	switch b {
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	default:
		return "left"
	}
}

// PropertyMode selects how many native properties a tree capture reads per
// node. Reading fewer properties means fewer native round-trips.
type PropertyMode int

const (
	// PropertyModeFast reads role and name only.
	PropertyModeFast PropertyMode = iota
	// PropertyModeComplete reads every available native property.
	PropertyModeComplete
	// PropertyModeSmart reads a role-dependent subset: toggles get state,
	// text fields get value, structural containers get role only.
	PropertyModeSmart
)

// ParsePropertyMode converts a string flag value to PropertyMode.
func ParsePropertyMode(s string) (PropertyMode, error) {
	switch strings.ToLower(s) {
	case "", "fast":
		return PropertyModeFast, nil
	case "complete":
		return PropertyModeComplete, nil
	case "smart":
		return PropertyModeSmart, nil
	default:
		return PropertyModeFast, InvalidArgument(fmt.Sprintf("unknown property mode: %q (expected fast, complete, or smart)", s))
	}
}

// String returns the flag spelling of the mode.
func (m PropertyMode) String() string {
	switch m {
	case PropertyModeComplete:
		return "complete"
	case PropertyModeSmart:
		return "smart"
	default:
		return "fast"
	}
}

// Default capture knobs.
const (
	DefaultPerOpTimeout = 50 * time.Millisecond
	DefaultYieldEvery   = 50
	DefaultBatchSize    = 50
)

// TreeBuildConfig controls one tree capture.
type TreeBuildConfig struct {
	// Mode selects the per-node property strategy.
	Mode PropertyMode

	// PerOpTimeout bounds each native call during traversal. A node whose
	// read times out is recorded with whatever was captured so far.
	PerOpTimeout time.Duration

	// YieldEvery yields the traversal goroutine to the scheduler after
	// this many nodes.
	YieldEvery int

	// BatchSize sizes child-fetch batches where the backend supports
	// batched retrieval.
	BatchSize int

	// MaxDepth bounds traversal depth. Nil means unlimited; 0 captures
	// only the root.
	MaxDepth *int

	// IncludeAllBounds attaches bounds to every node instead of only
	// keyboard-focusable ones.
	IncludeAllBounds bool

	// SettleDelay sleeps once before capture starts so transitions can
	// finish.
	SettleDelay time.Duration

	// FromSelector starts the capture at the first match of this selector
	// instead of the window root.
	FromSelector string
}

// DefaultTreeBuildConfig returns the documented capture defaults: fast
// property mode, 50ms per-call timeout, yield and batch every 50 elements,
// no depth limit, no settle delay.
func DefaultTreeBuildConfig() TreeBuildConfig {
	return TreeBuildConfig{
		Mode:         PropertyModeFast,
		PerOpTimeout: DefaultPerOpTimeout,
		YieldEvery:   DefaultYieldEvery,
		BatchSize:    DefaultBatchSize,
	}
}

// normalized fills unset knobs with defaults so backends never see zeros.
func (c TreeBuildConfig) normalized() TreeBuildConfig {
	if c.PerOpTimeout <= 0 {
		c.PerOpTimeout = DefaultPerOpTimeout
	}
	if c.YieldEvery <= 0 {
		c.YieldEvery = DefaultYieldEvery
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// Monitor is a value snapshot of one display. Ids are not stable across
// display topology changes; re-query rather than cache.
type Monitor struct {
	ID          string  `yaml:"id"         json:"id"`
	Name        string  `yaml:"name"       json:"name"`
	IsPrimary   bool    `yaml:"is_primary" json:"is_primary"`
	Width       int     `yaml:"width"      json:"width"`
	Height      int     `yaml:"height"     json:"height"`
	X           int     `yaml:"x"          json:"x"`
	Y           int     `yaml:"y"          json:"y"`
	ScaleFactor float64 `yaml:"scale"      json:"scale"`
}

// Bounds returns the monitor rectangle in logical screen coordinates.
func (m Monitor) Bounds() model.Rect {
	return model.Rect{X: float64(m.X), Y: float64(m.Y), Width: float64(m.Width), Height: float64(m.Height)}
}

// Contains reports whether the point lies on this monitor.
func (m Monitor) Contains(x, y int) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

// CommandOutput is the captured result of a run_command call.
type CommandOutput struct {
	// ExitStatus is nil when the process was killed by a signal.
	ExitStatus *int   `yaml:"exit_status" json:"exit_status"`
	Stdout     string `yaml:"stdout"      json:"stdout"`
	Stderr     string `yaml:"stderr"      json:"stderr"`
}

// ParseBBox parses a "x,y,w,h" string into a model.Rect.
func ParseBBox(s string) (*model.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, InvalidArgument(fmt.Sprintf("invalid bbox %q: expected x,y,w,h", s))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, InvalidArgument(fmt.Sprintf("invalid bbox %q: %v", s, err))
		}
		vals[i] = v
	}
	return &model.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}
