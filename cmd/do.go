package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// StepResult is the outcome of one step in a batch.
type StepResult struct {
	Step   int    `yaml:"step"             json:"step"`
	OK     bool   `yaml:"ok"               json:"ok"`
	Action string `yaml:"action"           json:"action"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
	Error  string `yaml:"error,omitempty"  json:"error,omitempty"`
}

// DoResult is the output of a do command.
type DoResult struct {
	OK        bool         `yaml:"ok"              json:"ok"`
	Action    string       `yaml:"action"          json:"action"`
	Steps     int          `yaml:"steps"           json:"steps"`
	Completed int          `yaml:"completed"       json:"completed"`
	Error     string       `yaml:"error,omitempty" json:"error,omitempty"`
	Results   []StepResult `yaml:"results"         json:"results"`
}

var doCmd = &cobra.Command{
	Use:   "do",
	Short: "Execute a batch of steps from YAML",
	Long: `Execute a YAML list of steps read from stdin or --file. Each step
is a map with exactly one action key naming its parameters. Steps run
sequentially and stop at the first failure unless --stop-on-error=false.

Steps: click, type, press, scroll, drag, hover, focus, set-value,
invoke, wait, open, run, sleep.

  deskdriver do --process TextEdit <<'EOF'
  - click: { selector: "role:button|name:New Document" }
  - type: { text: "hello world", into: "role:input" }
  - press: { key: "ctrl+s" }
  - wait: { selector: "text:Saved", timeout: 10 }
  EOF`,
	RunE: runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)
	doCmd.Flags().String("process", "", "Default process hint for steps that name none")
	doCmd.Flags().String("file", "", "Read steps from this file instead of stdin")
	doCmd.Flags().Bool("stop-on-error", true, "Stop at the first failed step")
}

func runDo(cmd *cobra.Command, args []string) error {
	desk, err := getDesktop()
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	var data []byte
	if file != "" {
		data, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read steps file: %w", err)
		}
	} else {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	steps, err := parseSteps(data)
	if err != nil {
		return err
	}

	process, _ := cmd.Flags().GetString("process")
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	runner := &stepRunner{desk: desk, process: process}

	results := make([]StepResult, 0, len(steps))
	completed := 0
	var firstErr string

	for i, st := range steps {
		result, err := runner.execute(cmd.Context(), st.action, st.params)
		result.Step = i + 1
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			if firstErr == "" {
				firstErr = fmt.Sprintf("step %d (%s): %s", result.Step, st.action, err.Error())
			}
			if stopOnError {
				break
			}
			continue
		}
		result.OK = true
		results = append(results, result)
		completed++
	}

	return output.Print(DoResult{
		OK:        completed == len(steps),
		Action:    "do",
		Steps:     len(steps),
		Completed: completed,
		Error:     firstErr,
		Results:   results,
	})
}

// step is one parsed batch entry: an action name and its parameters.
type step struct {
	action string
	params map[string]interface{}
}

// parseSteps decodes the YAML step list. Each entry must be a map with
// exactly one action key; a bare action with no parameters is allowed.
func parseSteps(data []byte) ([]step, error) {
	var raw []map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse steps: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no steps provided: pipe a YAML list of actions or use --file")
	}

	steps := make([]step, 0, len(raw))
	for i, entry := range raw {
		if len(entry) != 1 {
			return nil, fmt.Errorf("step %d: expected exactly one action key, got %d", i+1, len(entry))
		}
		for action, params := range entry {
			if params == nil {
				params = map[string]interface{}{}
			}
			steps = append(steps, step{action: action, params: params})
		}
	}
	return steps, nil
}

// stepRunner executes batch steps against the desktop, applying the do
// command's process hint to steps that name none.
type stepRunner struct {
	desk    *platform.Desktop
	process string
}

func (r *stepRunner) execute(ctx context.Context, action string, params map[string]interface{}) (StepResult, error) {
	switch action {
	case "click":
		return r.click(ctx, params)
	case "type":
		return r.typeText(ctx, params)
	case "press":
		return r.press(ctx, params)
	case "scroll":
		return r.scroll(ctx, params)
	case "drag":
		return r.drag(ctx, params)
	case "hover":
		return r.hover(ctx, params)
	case "focus":
		return r.focus(ctx, params)
	case "set-value":
		return r.setValue(ctx, params)
	case "invoke":
		return r.invoke(ctx, params)
	case "wait":
		return r.wait(ctx, params)
	case "open":
		return r.open(ctx, params)
	case "run":
		return r.run(ctx, params)
	case "sleep":
		return r.sleep(ctx, params)
	default:
		return StepResult{Action: action}, fmt.Errorf("unknown step type %q (supported: click, type, press, scroll, drag, hover, focus, set-value, invoke, wait, open, run, sleep)", action)
	}
}

// find resolves a step selector with the runner's process default.
func (r *stepRunner) find(ctx context.Context, selector string, params map[string]interface{}) (*platform.Element, error) {
	return r.desk.FindElement(ctx, selector, platform.FindOptions{
		ProcessHint: stringParam(params, "process", r.process),
		Timeout:     time.Duration(intParam(params, "timeout-ms", 0)) * time.Millisecond,
	})
}

func (r *stepRunner) click(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "click"}
	button, err := platform.ParseMouseButton(stringParam(params, "button", ""))
	if err != nil {
		return result, err
	}
	count := 1
	if boolParam(params, "double", false) {
		count = 2
	}

	if selector := stringParam(params, "selector", ""); selector != "" {
		result.Target = selector
		el, err := r.find(ctx, selector, params)
		if err != nil {
			return result, err
		}
		return result, r.desk.Dispatcher().Click(ctx, el, platform.ClickOptions{Button: button, Count: count})
	}

	if _, ok := params["x"]; !ok {
		return result, fmt.Errorf("need a selector or both x and y")
	}
	if _, ok := params["y"]; !ok {
		return result, fmt.Errorf("need a selector or both x and y")
	}
	x := intParam(params, "x", 0)
	y := intParam(params, "y", 0)
	result.Target = fmt.Sprintf("%d,%d", x, y)
	return result, r.desk.ClickAtCoordinatesWithType(ctx, x, y, button, count, false)
}

func (r *stepRunner) typeText(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "type"}
	text := stringParam(params, "text", "")
	if text == "" {
		return result, fmt.Errorf("text is required")
	}
	opts := platform.TypeOptions{
		UseClipboard: boolParam(params, "clipboard", false),
		Delay:        time.Duration(intParam(params, "delay-ms", 0)) * time.Millisecond,
	}

	into := stringParam(params, "into", "")
	if into == "" {
		return result, r.desk.Dispatcher().TypeText(ctx, nil, text, opts)
	}
	result.Target = into
	el, err := r.find(ctx, into, params)
	if err != nil {
		return result, err
	}
	opts.TryFocusBefore = true
	return result, r.desk.Dispatcher().TypeText(ctx, el, text, opts)
}

func (r *stepRunner) press(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "press"}
	key := stringParam(params, "key", "")
	if key == "" {
		return result, fmt.Errorf("key is required")
	}
	result.Detail = key

	into := stringParam(params, "into", "")
	if into == "" {
		return result, r.desk.PressKeyGlobal(ctx, key)
	}
	result.Target = into
	el, err := r.find(ctx, into, params)
	if err != nil {
		return result, err
	}
	return result, r.desk.Dispatcher().PressKey(ctx, el, key)
}

func (r *stepRunner) scroll(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "scroll"}
	direction := stringParam(params, "direction", "")
	if direction == "" {
		return result, fmt.Errorf("direction is required")
	}
	amount := floatParam(params, "amount", 3)

	if in := stringParam(params, "in", ""); in != "" {
		result.Target = in
		el, err := r.find(ctx, in, params)
		if err != nil {
			return result, err
		}
		return result, r.desk.Dispatcher().Scroll(ctx, el, direction, amount)
	}

	if _, ok := params["x"]; !ok {
		return result, fmt.Errorf("need in, or both x and y")
	}
	x := intParam(params, "x", 0)
	y := intParam(params, "y", 0)
	result.Target = fmt.Sprintf("%d,%d", x, y)
	return result, r.desk.Dispatcher().ScrollAtPoint(ctx, x, y, direction, amount)
}

func (r *stepRunner) drag(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "drag"}
	if _, ok := params["to-x"]; !ok {
		return result, fmt.Errorf("need both to-x and to-y")
	}
	if _, ok := params["to-y"]; !ok {
		return result, fmt.Errorf("need both to-x and to-y")
	}
	toX := intParam(params, "to-x", 0)
	toY := intParam(params, "to-y", 0)

	if selector := stringParam(params, "selector", ""); selector != "" {
		result.Target = selector
		el, err := r.find(ctx, selector, params)
		if err != nil {
			return result, err
		}
		return result, r.desk.Dispatcher().DragFromElement(ctx, el, toX, toY)
	}

	fromX := intParam(params, "from-x", 0)
	fromY := intParam(params, "from-y", 0)
	result.Target = fmt.Sprintf("%d,%d to %d,%d", fromX, fromY, toX, toY)
	return result, r.desk.Dispatcher().Drag(ctx, fromX, fromY, toX, toY)
}

func (r *stepRunner) hover(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "hover"}
	selector := stringParam(params, "selector", "")
	if selector == "" {
		return result, fmt.Errorf("selector is required")
	}
	result.Target = selector
	el, err := r.find(ctx, selector, params)
	if err != nil {
		return result, err
	}
	return result, r.desk.Dispatcher().Hover(ctx, el)
}

func (r *stepRunner) focus(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "focus"}
	if app := stringParam(params, "app", ""); app != "" {
		result.Target = app
		return result, r.desk.ActivateApplication(ctx, app)
	}
	selector := stringParam(params, "selector", "")
	if selector == "" {
		return result, fmt.Errorf("need a selector or app")
	}
	result.Target = selector
	el, err := r.find(ctx, selector, params)
	if err != nil {
		return result, err
	}
	return result, el.Focus(ctx)
}

func (r *stepRunner) setValue(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "set-value"}
	selector := stringParam(params, "selector", "")
	if selector == "" {
		return result, fmt.Errorf("selector is required")
	}
	if _, ok := params["value"]; !ok {
		return result, fmt.Errorf("value is required")
	}
	value := stringParam(params, "value", "")
	result.Target = selector
	el, err := r.find(ctx, selector, params)
	if err != nil {
		return result, err
	}
	return result, el.SetValue(ctx, value)
}

func (r *stepRunner) invoke(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "invoke"}
	selector := stringParam(params, "selector", "")
	if selector == "" {
		return result, fmt.Errorf("selector is required")
	}
	result.Target = selector
	el, err := r.find(ctx, selector, params)
	if err != nil {
		return result, err
	}
	return result, el.Invoke(ctx)
}

func (r *stepRunner) wait(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "wait"}
	selector := stringParam(params, "selector", "")
	if selector == "" {
		return result, fmt.Errorf("selector is required")
	}
	result.Target = selector

	timeoutSec := intParam(params, "timeout", 10)
	start := time.Now()
	_, err := r.desk.FindElement(ctx, selector, platform.FindOptions{
		ProcessHint: stringParam(params, "process", r.process),
		Timeout:     time.Duration(timeoutSec) * time.Second,
	})
	result.Detail = fmt.Sprintf("%.1fs", time.Since(start).Seconds())
	return result, err
}

func (r *stepRunner) open(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "open"}
	if url := stringParam(params, "url", ""); url != "" {
		result.Target = url
		return result, r.desk.OpenURL(ctx, url, stringParam(params, "browser", ""))
	}
	if file := stringParam(params, "file", ""); file != "" {
		result.Target = file
		return result, r.desk.OpenFile(ctx, file)
	}
	if app := stringParam(params, "app", ""); app != "" {
		result.Target = app
		_, err := r.desk.OpenApplication(ctx, app)
		return result, err
	}
	return result, fmt.Errorf("need one of app, url, or file")
}

func (r *stepRunner) run(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	result := StepResult{Action: "run"}
	command := stringParam(params, "command", "")
	if command == "" {
		return result, fmt.Errorf("command is required")
	}
	result.Target = command

	timeoutSec := intParam(params, "timeout", 30)
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	out, err := r.desk.RunCommand(runCtx, stringParam(params, "windows-command", command), command)
	if err != nil {
		return result, err
	}
	if out.ExitStatus == nil {
		result.Detail = "killed by signal"
	} else {
		result.Detail = fmt.Sprintf("exit %d", *out.ExitStatus)
	}
	return result, nil
}

func (r *stepRunner) sleep(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	ms := intParam(params, "ms", 0)
	result := StepResult{Action: "sleep", Detail: fmt.Sprintf("%dms", ms)}
	if ms <= 0 {
		return result, fmt.Errorf("ms is required")
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return result, nil
	case <-ctx.Done():
		return result, ctx.Err()
	}
}

// Tool arguments decoded from YAML or JSON need defaulted, coercing
// lookups: YAML hands back ints where JSON hands back float64.

func stringParam(params map[string]interface{}, key, fallback string) string {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	// Callers sometimes send pids and ids as numbers
	return fmt.Sprintf("%v", v)
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func boolParam(params map[string]interface{}, key string, fallback bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}

func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}
