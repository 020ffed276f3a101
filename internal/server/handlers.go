package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/output"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// resultText serializes a tool result to YAML for the MCP response.
func resultText(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("marshal result: %v", err)
	}
	return string(b)
}

// describeElement reads the attributes that identify an element in tool
// output. Best effort: a handle that dies mid-read still reports its ids.
func describeElement(ctx context.Context, el *platform.Element) output.ElementInfo {
	info := output.ElementInfo{ID: el.ObjectID, PID: el.PID}
	if attrs, err := el.Attributes(ctx, platform.PropertyModeComplete); err == nil {
		info.Role = attrs.Role
		info.Name = attrs.Name
		info.Value = attrs.Value
		info.Bounds = attrs.Bounds
	}
	return info
}

// findTarget resolves a selector with the shared process and timeout
// params.
func (s *Server) findTarget(ctx context.Context, selector string, params map[string]interface{}) (*platform.Element, error) {
	return s.desk.FindElement(ctx, selector, platform.FindOptions{
		ProcessHint: stringParam(params, "process", ""),
		Timeout:     time.Duration(intParam(params, "timeout-ms", 0)) * time.Millisecond,
	})
}

// writeAction runs a mutating tool body under the engine mutex, then drops
// cached trees for whatever process the action touched. A pid of 0 means
// the touched process is unknown and the whole cache goes.
func (s *Server) writeAction(ctx context.Context, action string, fn func(ctx context.Context) (target string, pid int32, err error)) (*mcp.CallToolResult, error) {
	s.deskMu.Lock()
	target, pid, err := fn(ctx)
	s.deskMu.Unlock()

	result := output.ActionResult{OK: err == nil, Action: action, Target: target}
	if err != nil {
		result.Error = err.Error()
		return mcp.NewToolResultError(resultText(result)), nil
	}

	if pid > 0 {
		s.cache.InvalidatePID(pid)
	} else {
		s.cache.InvalidateAll()
	}
	return mcp.NewToolResultText(resultText(result)), nil
}

func (s *Server) handleTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	window := stringParam(params, "window", "")

	cfg := s.cfg.Tree
	if mode := stringParam(params, "mode", ""); mode != "" {
		m, err := platform.ParsePropertyMode(mode)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cfg.Mode = m
	}
	if _, ok := params["depth"]; ok {
		depth := intParam(params, "depth", 0)
		cfg.MaxDepth = &depth
	}
	if from := stringParam(params, "from", ""); from != "" {
		cfg.FromSelector = from
	}

	pid, err := platform.ResolvePID(stringParam(params, "process", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.deskMu.Lock()
	defer s.deskMu.Unlock()

	tree, err := s.cache.Tree(pid, window, cfg, func() (*model.UINode, error) {
		return s.desk.WindowTree(ctx, pid, window, cfg)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name, _ := platform.ProcessName(pid)
	ts := time.Now().Unix()
	if boolParam(params, "interactive", false) {
		result := output.FlatTreeResult{App: name, PID: pid, Window: window, TS: ts, Elements: model.InteractiveOnly(tree)}
		return mcp.NewToolResultText(resultText(result)), nil
	}
	if boolParam(params, "flat", false) {
		result := output.FlatTreeResult{App: name, PID: pid, Window: window, TS: ts, Elements: model.Flatten(tree)}
		return mcp.NewToolResultText(resultText(result)), nil
	}
	result := output.TreeResult{App: name, PID: pid, Window: window, TS: ts, Nodes: tree.Count(), Tree: tree}
	return mcp.NewToolResultText(resultText(result)), nil
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	selector := stringParam(params, "selector", "")

	s.deskMu.Lock()
	defer s.deskMu.Unlock()

	if boolParam(params, "all", false) {
		els, err := s.desk.FindElements(ctx, selector, platform.FindOptions{
			ProcessHint: stringParam(params, "process", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		infos := make([]output.ElementInfo, 0, len(els))
		for _, el := range els {
			infos = append(infos, describeElement(ctx, el))
		}
		return mcp.NewToolResultText(resultText(infos)), nil
	}

	el, err := s.findTarget(ctx, selector, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultText(describeElement(ctx, el))), nil
}

func (s *Server) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeAction(ctx, "click", func(ctx context.Context) (string, int32, error) {
		button, err := platform.ParseMouseButton(stringParam(params, "button", ""))
		if err != nil {
			return "", 0, err
		}
		count := 1
		if boolParam(params, "double", false) {
			count = 2
		}

		selector := stringParam(params, "selector", "")
		if selector == "" {
			_, hasX := params["x"]
			_, hasY := params["y"]
			if !hasX || !hasY {
				return "", 0, platform.InvalidArgument("need a selector or both x and y")
			}
			x := intParam(params, "x", 0)
			y := intParam(params, "y", 0)
			return fmt.Sprintf("%d,%d", x, y), 0, s.desk.ClickAtCoordinatesWithType(ctx, x, y, button, count, false)
		}

		el, err := s.findTarget(ctx, selector, params)
		if err != nil {
			return selector, 0, err
		}
		return selector, el.PID, s.desk.Dispatcher().Click(ctx, el, platform.ClickOptions{Button: button, Count: count})
	})
}

func (s *Server) handleType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeAction(ctx, "type", func(ctx context.Context) (string, int32, error) {
		text := stringParam(params, "text", "")
		if text == "" {
			return "", 0, platform.InvalidArgument("text is required")
		}
		opts := platform.TypeOptions{
			UseClipboard: boolParam(params, "clipboard", false),
			Delay:        time.Duration(intParam(params, "delay-ms", 0)) * time.Millisecond,
		}

		selector := stringParam(params, "selector", "")
		if selector == "" {
			return "", 0, s.desk.Dispatcher().TypeText(ctx, nil, text, opts)
		}
		el, err := s.findTarget(ctx, selector, params)
		if err != nil {
			return selector, 0, err
		}
		opts.TryFocusBefore = true
		return selector, el.PID, s.desk.Dispatcher().TypeText(ctx, el, text, opts)
	})
}

func (s *Server) handlePress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeAction(ctx, "press", func(ctx context.Context) (string, int32, error) {
		combo := stringParam(params, "key", "")
		if combo == "" {
			return "", 0, platform.InvalidArgument("key is required")
		}
		selector := stringParam(params, "selector", "")
		if selector == "" {
			return combo, 0, s.desk.PressKeyGlobal(ctx, combo)
		}
		el, err := s.findTarget(ctx, selector, params)
		if err != nil {
			return selector, 0, err
		}
		return selector, el.PID, s.desk.Dispatcher().PressKey(ctx, el, combo)
	})
}

func (s *Server) handleScroll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeAction(ctx, "scroll", func(ctx context.Context) (string, int32, error) {
		direction := stringParam(params, "direction", "")
		amount := floatParam(params, "amount", 3)

		if selector := stringParam(params, "selector", ""); selector != "" {
			el, err := s.findTarget(ctx, selector, params)
			if err != nil {
				return selector, 0, err
			}
			return selector, el.PID, s.desk.Dispatcher().Scroll(ctx, el, direction, amount)
		}

		_, hasX := params["x"]
		_, hasY := params["y"]
		if !hasX || !hasY {
			return "", 0, platform.InvalidArgument("need a selector or both x and y")
		}
		x := intParam(params, "x", 0)
		y := intParam(params, "y", 0)
		return fmt.Sprintf("%d,%d", x, y), 0, s.desk.Dispatcher().ScrollAtPoint(ctx, x, y, direction, amount)
	})
}

func (s *Server) handleApps(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.deskMu.Lock()
	defer s.deskMu.Unlock()

	els, err := s.desk.Applications(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	apps := make([]model.Application, 0, len(els))
	for _, el := range els {
		name, err := el.Name(ctx)
		if err != nil {
			continue
		}
		apps = append(apps, model.Application{Name: name, PID: el.PID})
	}
	return mcp.NewToolResultText(resultText(apps)), nil
}

func (s *Server) handleMonitors(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.deskMu.Lock()
	defer s.deskMu.Unlock()

	monitors, err := s.desk.Monitors(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultText(monitors)), nil
}

func (s *Server) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	monitor := stringParam(params, "monitor", "")
	selector := stringParam(params, "selector", "")
	scale := floatParam(params, "scale", 0)

	s.deskMu.Lock()
	defer s.deskMu.Unlock()

	var shot *platform.Screenshot
	if selector != "" {
		el, err := s.findTarget(ctx, selector, params)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if shot, err = el.Capture(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		var m platform.Monitor
		var err error
		if monitor == "" {
			m, err = s.desk.PrimaryMonitor(ctx)
		} else {
			m, err = s.desk.MonitorByID(ctx, monitor)
			if err != nil {
				m, err = s.desk.MonitorByName(ctx, monitor)
			}
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if shot, err = s.desk.CaptureMonitor(ctx, m); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	if scale > 0 && scale < 1 {
		shot = shot.Scale(scale)
	}
	data, err := shot.EncodePNG()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(data),
				MIMEType: "image/png",
			},
		},
	}, nil
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeAction(ctx, "open", func(ctx context.Context) (string, int32, error) {
		if url := stringParam(params, "url", ""); url != "" {
			return url, 0, s.desk.OpenURL(ctx, url, stringParam(params, "browser", ""))
		}
		if file := stringParam(params, "file", ""); file != "" {
			return file, 0, s.desk.OpenFile(ctx, file)
		}
		if app := stringParam(params, "app", ""); app != "" {
			el, err := s.desk.OpenApplication(ctx, app)
			if err != nil {
				return app, 0, err
			}
			return app, el.PID, nil
		}
		return "", 0, platform.InvalidArgument("need one of app, url, or file")
	})
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	command := stringParam(params, "command", "")
	if command == "" {
		return mcp.NewToolResultError("command is required"), nil
	}
	windowsCmd := stringParam(params, "windows-command", command)
	timeout := time.Duration(intParam(params, "timeout-ms", 30000)) * time.Millisecond

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := s.desk.RunCommand(runCtx, windowsCmd, command)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultText(out)), nil
}

func (s *Server) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	selector := stringParam(params, "selector", "")
	timeout := time.Duration(intParam(params, "timeout-ms", 10000)) * time.Millisecond

	s.deskMu.Lock()
	defer s.deskMu.Unlock()

	el, err := s.desk.FindElement(ctx, selector, platform.FindOptions{
		ProcessHint: stringParam(params, "process", ""),
		Timeout:     timeout,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultText(describeElement(ctx, el))), nil
}
