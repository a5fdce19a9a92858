package server

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dgannon/appdriver/internal/app"
	"github.com/dgannon/appdriver/internal/output"
	"github.com/dgannon/appdriver/internal/platform"
	"github.com/dgannon/appdriver/internal/vision"
)

func resultText(v interface{}) *mcp.CallToolResult {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("%+v", v))
	}
	return mcp.NewToolResultText(string(b))
}

func (s *Server) attach(name string) (*app.Context, error) {
	if ctx := s.registry.Primary(name); ctx != nil {
		return ctx, nil
	}
	return s.registry.AttachNewest(name, name)
}

func (s *Server) handleLaunch(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	path := stringParam(params, "path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	name := stringParam(params, "name", filepath.Base(path))

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, err := s.registry.Launch(name, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultText(output.AppResult{
		Name:    ctx.LogicalName,
		PID:     ctx.PID,
		Path:    ctx.ExecutablePath,
		Running: true,
	}), nil
}

func (s *Server) handleAttach(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	image := stringParam(params, "image", "")
	if image == "" {
		return mcp.NewToolResultError("image is required"), nil
	}
	name := stringParam(params, "name", image)

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, err := s.registry.AttachNewest(name, image)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultText(output.AppResult{
		Name:    ctx.LogicalName,
		PID:     ctx.PID,
		Path:    ctx.ExecutablePath,
		Windows: ctx.Windows(),
		Running: ctx.Active(s.provider.Processes),
	}), nil
}

func (s *Server) handleList(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.mu.Lock()
	defer s.mu.Unlock()

	if boolParam(params, "windows", false) {
		windows, err := s.provider.Windows.ListWindows(intParam(params, "pid", 0))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		results := make([]output.WindowResult, 0, len(windows))
		for _, w := range windows {
			results = append(results, output.WindowResult{
				ID:      w.ID,
				PID:     w.PID,
				App:     w.App,
				Title:   w.Title,
				Bounds:  [4]int{w.Bounds.X, w.Bounds.Y, w.Bounds.Width, w.Bounds.Height},
				Focused: w.Focused,
			})
		}
		return resultText(results), nil
	}

	var results []output.AppResult
	for _, name := range s.registry.Names() {
		for _, ctx := range s.registry.All(name) {
			results = append(results, output.AppResult{
				Name:    ctx.LogicalName,
				PID:     ctx.PID,
				Path:    ctx.ExecutablePath,
				Windows: ctx.Windows(),
				Running: ctx.Active(s.provider.Processes),
			})
		}
	}
	return resultText(results), nil
}

func (s *Server) handleFocus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	appName := stringParam(params, "app", "")

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, err := s.attach(appName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.ctrl.FocusIndex(ctx, intParam(params, "index", 0)) {
		return mcp.NewToolResultError(fmt.Sprintf("focus not acquired for %q", appName)), nil
	}
	return resultText(output.OKResult{OK: true}), nil
}

func (s *Server) handleType(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := stringParam(params, "text", "")
	key := stringParam(params, "key", "")
	if text == "" && key == "" {
		return mcp.NewToolResultError("specify text or key"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if appName := stringParam(params, "app", ""); appName != "" {
		ctx, err := s.attach(appName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !s.ctrl.Focus(ctx) {
			return mcp.NewToolResultError(fmt.Sprintf("could not focus %q", appName)), nil
		}
	}

	if text != "" {
		if err := s.ctrl.TypeText(text); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if key != "" {
		keys := strings.Split(key, "+")
		if err := s.ctrl.KeyCombo(keys); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return resultText(output.OKResult{OK: true}), nil
}

func (s *Server) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	x := intParam(params, "x", -1)
	y := intParam(params, "y", -1)

	button, err := platform.ParseMouseButton(stringParam(params, "button", "left"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if image := stringParam(params, "image", ""); image != "" {
		timeout := time.Duration(intParam(params, "timeout", 10)) * time.Second
		b, found := s.engine.ForImage(ctx, image, timeout)
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("image %s not found", image)), nil
		}
		x, y = b.Center()
	} else if x < 0 || y < 0 {
		return mcp.NewToolResultError("specify x/y or image"), nil
	}

	count := 1
	if boolParam(params, "double", false) {
		count = 2
	}
	if err := s.provider.Inputter.Click(x, y, button, count); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultText(output.OKResult{OK: true, Detail: fmt.Sprintf("clicked %d,%d", x, y)}), nil
}

func (s *Server) handleDrag(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.ctrl.DragAndDrop(
		intParam(params, "from-x", 0), intParam(params, "from-y", 0),
		intParam(params, "to-x", 0), intParam(params, "to-y", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultText(output.OKResult{OK: true}), nil
}

func (s *Server) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	timeout := time.Duration(intParam(params, "timeout", 30)) * time.Second

	region, err := parseRegion(stringParam(params, "region", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	var result output.WaitResult
	switch {
	case stringParam(params, "for-image", "") != "":
		image := stringParam(params, "for-image", "")
		b, ok := s.engine.ForImage(ctx, image, timeout)
		result = output.WaitResult{
			Satisfied: ok,
			Condition: fmt.Sprintf("image %s", image),
			X:         b.X, Y: b.Y, Width: b.Width, Height: b.Height,
		}
	case stringParam(params, "for-text", "") != "":
		text := stringParam(params, "for-text", "")
		var ok bool
		if boolParam(params, "gone", false) {
			ok = s.engine.ForTextGone(ctx, text, region, timeout)
			result = output.WaitResult{Satisfied: ok, Condition: fmt.Sprintf("text gone %q", text)}
		} else {
			ok = s.engine.ForText(ctx, text, region, timeout)
			result = output.WaitResult{Satisfied: ok, Condition: fmt.Sprintf("text %q", text)}
		}
	case boolParam(params, "stable", false):
		stableFor := time.Duration(intParam(params, "stable-for", 2)) * time.Second
		ok := s.engine.ForScreenStability(ctx, region, stableFor, timeout)
		result = output.WaitResult{Satisfied: ok, Condition: "screen stable"}
	default:
		return mcp.NewToolResultError("specify a condition: for-image, for-text, or stable"), nil
	}

	result.ElapsedMS = time.Since(start).Milliseconds()
	return resultText(result), nil
}

func (s *Server) handleReadText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	region, err := parseRegion(stringParam(params, "region", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if appName := stringParam(params, "app", ""); appName != "" {
		appCtx, err := s.attach(appName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		token, err := s.ctrl.MaximizeForOCR(appCtx)
		if err != nil {
			s.log.Warn("maximize for capture failed", zap.Error(err))
		} else {
			defer func() {
				if err := s.ctrl.RestoreAfterOCR(appCtx, token); err != nil {
					s.log.Warn("window restore failed", zap.Error(err))
				}
			}()
		}
	}

	frame, err := s.captureMaybeRegion(region)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ocr := &vision.TesseractOCR{}
	text, confidence, err := ocr.ExtractTextWithConfidence(frame)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultText(output.TextResult{Text: text, Confidence: confidence}), nil
}

func (s *Server) handleTerminate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	appName := stringParam(params, "app", "")

	s.mu.Lock()
	defer s.mu.Unlock()

	if boolParam(params, "force", false) {
		if s.registry.Primary(appName) == nil {
			return mcp.NewToolResultError(fmt.Sprintf("%q is not tracked", appName)), nil
		}
		if !s.registry.ForceTerminateOne(appName) {
			return mcp.NewToolResultError(fmt.Sprintf("kill of %q failed", appName)), nil
		}
		return resultText(output.OKResult{OK: true}), nil
	}

	if _, err := s.attach(appName); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.registry.TerminateOne(appName) {
		return mcp.NewToolResultError(fmt.Sprintf("%q still running; retry with force", appName)), nil
	}
	return resultText(output.OKResult{OK: true}), nil
}

func (s *Server) handleTerminateAll(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.mu.Lock()
	defer s.mu.Unlock()

	if boolParam(params, "force", false) {
		s.registry.ForceCleanupAll()
	} else {
		s.registry.TerminateAll()
	}
	return resultText(output.OKResult{OK: true}), nil
}

func (s *Server) captureMaybeRegion(region *platform.Bounds) (image.Image, error) {
	if region != nil && !region.Empty() {
		return s.provider.Screenshotter.CaptureRegion(*region)
	}
	return s.provider.Screenshotter.CaptureScreen()
}

func parseRegion(spec string) (*platform.Bounds, error) {
	if spec == "" {
		return nil, nil
	}
	return platform.ParseBounds(spec)
}

func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
