// Package server exposes the desktop engine over the Model Context
// Protocol so agent runtimes can drive the UI through typed tools.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/deskdriver/deskdriver/internal/platform"
)

// Config holds the server transport, cache, and capture settings.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
	Tree      platform.TreeBuildConfig
	Version   string
	Logger    *zap.Logger
}

// Server wires the MCP tool surface to one Desktop. A single mutex
// serializes tool calls: the engine already serializes native access, but
// concurrent tools would still race each other over focus and cursor
// state.
type Server struct {
	desk   *platform.Desktop
	cache  *TreeCache
	deskMu sync.Mutex
	mcp    *mcpserver.MCPServer
	log    *zap.Logger
	cfg    Config
}

// New builds a server over the desktop with every tool registered.
func New(desk *platform.Desktop, cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		desk:  desk,
		cache: NewTreeCache(cfg.CacheTTL),
		log:   log,
		cfg:   cfg,
	}
	s.mcp = mcpserver.NewMCPServer("deskdriver", version)
	s.registerTools()
	return s
}

// Serve runs the configured transport and blocks until the server stops.
func (s *Server) Serve() error {
	switch s.cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		s.log.Info("mcp server listening", zap.Int("port", s.cfg.Port))
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", s.cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", s.cfg.Transport)
	}
}

func (s *Server) registerTools() {
	// desktop_tree
	s.mcp.AddTool(
		mcp.NewTool("desktop_tree",
			mcp.WithDescription("Capture the accessibility tree of an application window. Returns elements with roles, names, values, and bounds."),
			mcp.WithString("process", mcp.Description("Application name or pid"), mcp.Required()),
			mcp.WithString("window", mcp.Description("Window title substring (first window when empty)")),
			mcp.WithString("mode", mcp.Description("Property capture mode: fast, complete, smart")),
			mcp.WithNumber("depth", mcp.Description("Max depth to capture (0 = root only; omit for unlimited)")),
			mcp.WithString("from", mcp.Description("Selector scoping the capture to a subtree")),
			mcp.WithBoolean("flat", mcp.Description("Return a flat element list with breadcrumb paths")),
			mcp.WithBoolean("interactive", mcp.Description("Flat list of interactive elements only")),
		),
		s.handleTree,
	)

	// desktop_find
	s.mcp.AddTool(
		mcp.NewTool("desktop_find",
			mcp.WithDescription("Resolve a selector to matching UI elements. Selector grammar: 'process:Name >> role:button|name:OK' with segments separated by '>>' and criteria role:, name:, text:, id:, nth:."),
			mcp.WithString("selector", mcp.Description("Element selector"), mcp.Required()),
			mcp.WithString("process", mcp.Description("Application name or pid when the selector has no process: segment")),
			mcp.WithBoolean("all", mcp.Description("Return every match instead of the first")),
			mcp.WithNumber("timeout-ms", mcp.Description("Poll until the selector resolves (0 = single attempt)")),
		),
		s.handleFind,
	)

	// desktop_click
	s.mcp.AddTool(
		mcp.NewTool("desktop_click",
			mcp.WithDescription("Click a UI element by selector or raw screen coordinates"),
			mcp.WithString("selector", mcp.Description("Element selector")),
			mcp.WithString("process", mcp.Description("Application name or pid")),
			mcp.WithNumber("x", mcp.Description("Click at X coordinate (with y, instead of selector)")),
			mcp.WithNumber("y", mcp.Description("Click at Y coordinate")),
			mcp.WithString("button", mcp.Description("Mouse button: left, right, middle")),
			mcp.WithBoolean("double", mcp.Description("Double-click")),
			mcp.WithNumber("timeout-ms", mcp.Description("Poll until the selector resolves (0 = single attempt)")),
		),
		s.handleClick,
	)

	// desktop_type
	s.mcp.AddTool(
		mcp.NewTool("desktop_type",
			mcp.WithDescription("Type text, optionally into a specific element. Clipboard mode pastes in one keystroke for long or non-ASCII text."),
			mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
			mcp.WithString("selector", mcp.Description("Element to focus and type into")),
			mcp.WithString("process", mcp.Description("Application name or pid")),
			mcp.WithBoolean("clipboard", mcp.Description("Paste via clipboard instead of per-key synthesis")),
			mcp.WithNumber("delay-ms", mcp.Description("Delay between keystrokes in ms")),
		),
		s.handleType,
	)

	// desktop_press
	s.mcp.AddTool(
		mcp.NewTool("desktop_press",
			mcp.WithDescription("Press a key combination (e.g. 'ctrl+c', 'cmd+shift+t', 'enter')"),
			mcp.WithString("key", mcp.Description("Key combo"), mcp.Required()),
			mcp.WithString("selector", mcp.Description("Element to focus first")),
			mcp.WithString("process", mcp.Description("Application name or pid")),
		),
		s.handlePress,
	)

	// desktop_scroll
	s.mcp.AddTool(
		mcp.NewTool("desktop_scroll",
			mcp.WithDescription("Scroll within an element or at screen coordinates"),
			mcp.WithString("direction", mcp.Description("Scroll direction: up, down, left, right"), mcp.Required()),
			mcp.WithNumber("amount", mcp.Description("Scroll notches (default: 3)")),
			mcp.WithString("selector", mcp.Description("Element to scroll within")),
			mcp.WithString("process", mcp.Description("Application name or pid")),
			mcp.WithNumber("x", mcp.Description("Scroll at X coordinate")),
			mcp.WithNumber("y", mcp.Description("Scroll at Y coordinate")),
		),
		s.handleScroll,
	)

	// desktop_apps
	s.mcp.AddTool(
		mcp.NewTool("desktop_apps",
			mcp.WithDescription("List applications visible to the accessibility layer"),
		),
		s.handleApps,
	)

	// desktop_monitors
	s.mcp.AddTool(
		mcp.NewTool("desktop_monitors",
			mcp.WithDescription("List connected displays with geometry and scale"),
		),
		s.handleMonitors,
	)

	// desktop_screenshot
	s.mcp.AddTool(
		mcp.NewTool("desktop_screenshot",
			mcp.WithDescription("Capture a monitor, or a single element by selector, as a PNG image"),
			mcp.WithString("monitor", mcp.Description("Monitor id or name (default: primary)")),
			mcp.WithString("selector", mcp.Description("Capture one element's on-screen extent instead of a monitor")),
			mcp.WithString("process", mcp.Description("Application name or pid for the selector")),
			mcp.WithNumber("scale", mcp.Description("Downscale factor between 0 and 1 (default: full size)")),
		),
		s.handleScreenshot,
	)

	// desktop_open
	s.mcp.AddTool(
		mcp.NewTool("desktop_open",
			mcp.WithDescription("Open an application, URL, or file"),
			mcp.WithString("app", mcp.Description("Application to open or activate")),
			mcp.WithString("url", mcp.Description("URL to open")),
			mcp.WithString("file", mcp.Description("File path to open")),
			mcp.WithString("browser", mcp.Description("Browser for url (default browser when empty)")),
		),
		s.handleOpen,
	)

	// desktop_run
	s.mcp.AddTool(
		mcp.NewTool("desktop_run",
			mcp.WithDescription("Run a shell command and capture its output (/bin/sh -c, or cmd /C on Windows)"),
			mcp.WithString("command", mcp.Description("Command line to run"), mcp.Required()),
			mcp.WithString("windows-command", mcp.Description("Override used on Windows instead of command")),
			mcp.WithNumber("timeout-ms", mcp.Description("Kill the command after this long (default: 30000)")),
		),
		s.handleRun,
	)

	// desktop_wait
	s.mcp.AddTool(
		mcp.NewTool("desktop_wait",
			mcp.WithDescription("Wait until a selector resolves to an element"),
			mcp.WithString("selector", mcp.Description("Element selector"), mcp.Required()),
			mcp.WithString("process", mcp.Description("Application name or pid")),
			mcp.WithNumber("timeout-ms", mcp.Description("Max time to wait (default: 10000)")),
		),
		s.handleWait,
	)
}
