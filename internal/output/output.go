// Package output serializes command results to stdout as YAML or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deskdriver/deskdriver/internal/model"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's
// --format flag.
var OutputFormat = FormatYAML

// PrettyOutput enables indented JSON output.
var PrettyOutput bool

// TreeResult is the top-level output of the tree command.
type TreeResult struct {
	App    string        `yaml:"app,omitempty"    json:"app,omitempty"`
	PID    int32         `yaml:"pid,omitempty"    json:"pid,omitempty"`
	Window string        `yaml:"window,omitempty" json:"window,omitempty"`
	TS     int64         `yaml:"ts"               json:"ts"`
	Nodes  int           `yaml:"nodes"            json:"nodes"`
	Tree   *model.UINode `yaml:"tree"             json:"tree"`
}

// FlatTreeResult is the tree command's output with --flat.
type FlatTreeResult struct {
	App      string           `yaml:"app,omitempty"    json:"app,omitempty"`
	PID      int32            `yaml:"pid,omitempty"    json:"pid,omitempty"`
	Window   string           `yaml:"window,omitempty" json:"window,omitempty"`
	TS       int64            `yaml:"ts"               json:"ts"`
	Elements []model.FlatNode `yaml:"elements"         json:"elements"`
}

// ActionResult is the envelope mutating commands print.
type ActionResult struct {
	OK     bool   `yaml:"ok"               json:"ok"`
	Action string `yaml:"action"           json:"action"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
	Error  string `yaml:"error,omitempty"  json:"error,omitempty"`
}

// ElementInfo is the rendered form of one resolved element.
type ElementInfo struct {
	ID     int64       `yaml:"id"               json:"id"`
	PID    int32       `yaml:"pid"              json:"pid"`
	Role   string      `yaml:"role,omitempty"   json:"role,omitempty"`
	Name   string      `yaml:"name,omitempty"   json:"name,omitempty"`
	Value  string      `yaml:"value,omitempty"  json:"value,omitempty"`
	Bounds *model.Rect `yaml:"bounds,omitempty" json:"bounds,omitempty"`
}

// Print serializes v to stdout in the current output format.
func Print(v any) error {
	return Fprint(os.Stdout, v)
}

// Fprint serializes v to w in the current output format.
func Fprint(w io.Writer, v any) error {
	switch OutputFormat {
	case FormatJSON:
		return printJSON(w, v, PrettyOutput)
	case FormatYAML:
		return printYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

func printJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
