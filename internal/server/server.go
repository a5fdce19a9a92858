// Package server exposes the driving primitives over the Model Context
// Protocol so agents can call them as tools. Unlike the one-shot CLI, the
// server holds a live registry: applications launched by one tool call stay
// tracked for the next.
package server

import (
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dgannon/appdriver/internal/app"
	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/platform"
	"github.com/dgannon/appdriver/internal/vision"
	"github.com/dgannon/appdriver/internal/wait"
	"github.com/dgannon/appdriver/internal/window"
)

// Config holds server transport configuration.
type Config struct {
	Transport string
	Port      int
}

// Server wraps the MCP server around a shared registry and controller. All
// tool handlers serialize on mu; the OS input queue is a global resource and
// interleaved tool calls would corrupt each other's keystrokes.
type Server struct {
	provider *platform.Provider
	registry *app.Registry
	ctrl     *window.Controller
	engine   *wait.Engine
	log      *zap.Logger

	mu  sync.Mutex
	mcp *mcpserver.MCPServer
}

// New creates a server over the given provider.
func New(provider *platform.Provider, cfg config.Settings, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	capturer := &vision.ScreenCapturer{Screenshotter: provider.Screenshotter}
	s := &Server{
		provider: provider,
		registry: app.NewRegistry(provider, cfg, log),
		ctrl:     window.NewController(provider, cfg, log),
		engine:   wait.NewEngine(capturer, &vision.TemplateMatcher{}, &vision.TesseractOCR{}, cfg, log),
		log:      log,
	}
	s.mcp = mcpserver.NewMCPServer("appdriver", "1.0.0")
	s.registerTools()
	return s
}

// SetRecorder forwards lifecycle events to a journal.
func (s *Server) SetRecorder(rec app.EventRecorder) {
	s.registry.SetRecorder(rec)
}

// Serve starts the server on the configured transport and blocks. Tracked
// processes are force-killed on shutdown so a dying server never leaves
// orphans behind.
func (s *Server) Serve(cfg Config) error {
	defer s.registry.ForceCleanupAll()

	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("launch",
			mcp.WithDescription("Launch an application and track it under a logical name"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Executable path")),
			mcp.WithString("name", mcp.Description("Logical name (default: executable base name)")),
		),
		s.handleLaunch,
	)

	s.mcp.AddTool(
		mcp.NewTool("attach",
			mcp.WithDescription("Attach to the newest running process matching an image name"),
			mcp.WithString("image", mcp.Required(), mcp.Description("Executable image name, e.g. 'Terminal'")),
			mcp.WithString("name", mcp.Description("Logical name (default: image name)")),
		),
		s.handleAttach,
	)

	s.mcp.AddTool(
		mcp.NewTool("list",
			mcp.WithDescription("List tracked applications, or on-screen windows with windows=true"),
			mcp.WithBoolean("windows", mcp.Description("List on-screen windows instead")),
			mcp.WithNumber("pid", mcp.Description("Scope window listing to one process")),
		),
		s.handleList,
	)

	s.mcp.AddTool(
		mcp.NewTool("focus",
			mcp.WithDescription("Bring a tracked application's window to the foreground"),
			mcp.WithString("app", mcp.Required(), mcp.Description("Logical or image name")),
			mcp.WithNumber("index", mcp.Description("Window index (0 = primary)")),
		),
		s.handleFocus,
	)

	s.mcp.AddTool(
		mcp.NewTool("type",
			mcp.WithDescription("Type text or press a key combination via the OS input queue"),
			mcp.WithString("text", mcp.Description("Text to type")),
			mcp.WithString("key", mcp.Description("Key combo, e.g. 'enter' or 'cmd+s'")),
			mcp.WithString("app", mcp.Description("Focus this app first")),
		),
		s.handleType,
	)

	s.mcp.AddTool(
		mcp.NewTool("click",
			mcp.WithDescription("Click at screen coordinates or on a template image"),
			mcp.WithNumber("x", mcp.Description("Absolute X coordinate")),
			mcp.WithNumber("y", mcp.Description("Absolute Y coordinate")),
			mcp.WithString("image", mcp.Description("Template image to locate and click")),
			mcp.WithString("button", mcp.Description("left, right, or middle")),
			mcp.WithBoolean("double", mcp.Description("Double-click")),
			mcp.WithNumber("timeout", mcp.Description("Seconds to wait for the image")),
		),
		s.handleClick,
	)

	s.mcp.AddTool(
		mcp.NewTool("drag",
			mcp.WithDescription("Drag from one screen position to another"),
			mcp.WithNumber("from-x", mcp.Required(), mcp.Description("Start X")),
			mcp.WithNumber("from-y", mcp.Required(), mcp.Description("Start Y")),
			mcp.WithNumber("to-x", mcp.Required(), mcp.Description("End X")),
			mcp.WithNumber("to-y", mcp.Required(), mcp.Description("End Y")),
		),
		s.handleDrag,
	)

	s.mcp.AddTool(
		mcp.NewTool("wait",
			mcp.WithDescription("Wait for a visual condition: a template image, OCR text, or screen stability"),
			mcp.WithString("for-image", mcp.Description("Template image path")),
			mcp.WithString("for-text", mcp.Description("Text to wait for via OCR")),
			mcp.WithBoolean("gone", mcp.Description("Wait for the text to disappear instead")),
			mcp.WithBoolean("stable", mcp.Description("Wait for the screen to stop changing")),
			mcp.WithNumber("stable-for", mcp.Description("Seconds of quiet required by stable")),
			mcp.WithString("region", mcp.Description("Restrict sensing to x,y,w,h")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (default 30)")),
		),
		s.handleWait,
	)

	s.mcp.AddTool(
		mcp.NewTool("read_text",
			mcp.WithDescription("OCR text from the screen or a region"),
			mcp.WithString("region", mcp.Description("Read only x,y,w,h")),
			mcp.WithString("app", mcp.Description("Maximize this app's window for the capture, restore after")),
		),
		s.handleReadText,
	)

	s.mcp.AddTool(
		mcp.NewTool("terminate",
			mcp.WithDescription("Gracefully shut down a tracked application"),
			mcp.WithString("app", mcp.Required(), mcp.Description("Logical or image name")),
			mcp.WithBoolean("force", mcp.Description("SIGKILL instead of graceful shutdown")),
		),
		s.handleTerminate,
	)

	s.mcp.AddTool(
		mcp.NewTool("terminate_all",
			mcp.WithDescription("Shut down every tracked application"),
			mcp.WithBoolean("force", mcp.Description("SIGKILL instead of graceful shutdown")),
		),
		s.handleTerminateAll,
	)
}
