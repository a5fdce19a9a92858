// Package window translates a tracked application context into concrete
// focus, bounds, and input actions against the OS, hiding per-application
// quirks such as console hosts that reject focus requests.
package window

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgannon/appdriver/internal/app"
	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/platform"
)

// Controller drives focus, geometry, and input for tracked applications.
// Input primitives operate on absolute screen coordinates and the OS input
// queue; callers focus the intended window first.
type Controller struct {
	provider *platform.Provider
	cfg      config.Settings
	log      *zap.Logger
}

// NewController creates a controller over the given platform provider.
func NewController(provider *platform.Provider, cfg config.Settings, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{provider: provider, cfg: cfg, log: log}
}

// Focus brings the context's primary window to the foreground. When the OS
// rejects the request and the context classifies as a console host (by
// executable name, or because it has no enumerable windows), the failure is
// absorbed: the controller waits a settle delay and reports success, since
// console windows routinely refuse focus requests yet still receive input.
func (c *Controller) Focus(ctx *app.Context) bool {
	return c.FocusIndex(ctx, 0)
}

// FocusIndex focuses the index-th enumerated window (0-based). Window
// ordering is whatever the OS enumeration returns; index-based selection is
// best-effort. Out-of-range indexes return false without side effects —
// except index 0, where the console-host fallback applies.
func (c *Controller) FocusIndex(ctx *app.Context, index int) bool {
	if err := ctx.RefreshWindows(c.provider.Windows); err != nil {
		c.log.Debug("window enumeration failed", zap.Error(err))
	}

	win, ok := ctx.WindowAt(index)
	if !ok {
		if index == 0 && c.isConsole(ctx) {
			// Console host with no window: assume input will route
			// correctly after a settle delay.
			c.log.Debug("console host has no window, assuming focus",
				zap.String("name", ctx.LogicalName))
			time.Sleep(c.cfg.SettleDelay)
			return true
		}
		return false
	}

	if err := c.provider.Windows.FocusWindow(win); err != nil {
		if c.isConsole(ctx) {
			c.log.Debug("focus rejected on console host, proceeding after settle",
				zap.String("name", ctx.LogicalName), zap.Error(err))
			time.Sleep(c.cfg.SettleDelay)
			return true
		}
		c.log.Warn("focus failed",
			zap.String("name", ctx.LogicalName),
			zap.Int("window", win),
			zap.Error(err))
		return false
	}
	return true
}

// isConsole classifies a context as a console host by executable name or by
// the absence of any enumerable window.
func (c *Controller) isConsole(ctx *app.Context) bool {
	if ctx.IsConsoleHost(c.cfg.ConsoleHosts) {
		return true
	}
	_, hasWindow := ctx.PrimaryWindow()
	return !hasWindow
}

// Bounds returns the primary window's on-screen rectangle. ok is false when
// enumeration yields nothing; callers retry through the wait framework
// rather than treating that as fatal.
func (c *Controller) Bounds(ctx *app.Context) (platform.Bounds, bool) {
	return c.BoundsIndex(ctx, 0)
}

// BoundsIndex returns the index-th window's rectangle.
func (c *Controller) BoundsIndex(ctx *app.Context, index int) (platform.Bounds, bool) {
	if err := ctx.RefreshWindows(c.provider.Windows); err != nil {
		return platform.Bounds{}, false
	}
	win, ok := ctx.WindowAt(index)
	if !ok {
		return platform.Bounds{}, false
	}
	windows, err := c.provider.Windows.ListWindows(ctx.PID)
	if err != nil {
		return platform.Bounds{}, false
	}
	for _, w := range windows {
		if w.ID == win {
			return w.Bounds, true
		}
	}
	return platform.Bounds{}, false
}

// MaximizeForOCR saves the primary window's placement, maximizes it to
// improve text recognition, and returns a token for the paired
// RestoreAfterOCR. A crash between the two leaves the window maximized —
// degraded, not corrupt.
func (c *Controller) MaximizeForOCR(ctx *app.Context) (StateToken, error) {
	if err := ctx.RefreshWindows(c.provider.Windows); err != nil {
		return StateToken{}, fmt.Errorf("enumerate windows: %w", err)
	}
	win, ok := ctx.PrimaryWindow()
	if !ok {
		return StateToken{}, fmt.Errorf("no window to maximize for %q", ctx.LogicalName)
	}

	placement, err := c.provider.Windows.GetPlacement(win)
	if err != nil {
		return StateToken{}, fmt.Errorf("save placement: %w", err)
	}
	if err := c.provider.Windows.Maximize(win); err != nil {
		return StateToken{}, fmt.Errorf("maximize: %w", err)
	}
	time.Sleep(c.cfg.SettleDelay)
	return newStateToken(win, placement), nil
}

// RestoreAfterOCR restores the placement captured by MaximizeForOCR. The
// token is single-use; holding it across other operations is undefined.
func (c *Controller) RestoreAfterOCR(ctx *app.Context, token StateToken) error {
	if token.windowID == 0 {
		return fmt.Errorf("invalid placement token")
	}
	if err := c.provider.Windows.SetPlacement(token.windowID, token.placement); err != nil {
		return fmt.Errorf("restore placement: %w", err)
	}
	return nil
}

// TypeText injects text through the OS input queue with the configured
// per-character delay.
func (c *Controller) TypeText(text string) error {
	return c.provider.Inputter.TypeText(text, int(c.cfg.TypeDelay.Milliseconds()))
}

// PressKey presses a single named key (e.g. "enter", "tab", "escape").
func (c *Controller) PressKey(key string) error {
	return c.provider.Inputter.KeyCombo([]string{key})
}

// KeyCombo presses a modifier combination, e.g. ["cmd", "q"].
func (c *Controller) KeyCombo(keys []string) error {
	return c.provider.Inputter.KeyCombo(keys)
}

// ClickAt left-clicks at absolute screen coordinates.
func (c *Controller) ClickAt(x, y int) error {
	return c.provider.Inputter.Click(x, y, platform.MouseLeft, 1)
}

// RightClickAt right-clicks at absolute screen coordinates.
func (c *Controller) RightClickAt(x, y int) error {
	return c.provider.Inputter.Click(x, y, platform.MouseRight, 1)
}

// DoubleClickAt double-clicks at absolute screen coordinates.
func (c *Controller) DoubleClickAt(x, y int) error {
	return c.provider.Inputter.Click(x, y, platform.MouseLeft, 2)
}

// HoverAt moves the pointer to the coordinates and lets it rest one settle
// delay, enough for hover-triggered UI to appear.
func (c *Controller) HoverAt(x, y int) error {
	if err := c.provider.Inputter.MoveMouse(x, y); err != nil {
		return err
	}
	time.Sleep(c.cfg.SettleDelay)
	return nil
}

// DragAndDrop drags from one absolute position to another.
func (c *Controller) DragAndDrop(fromX, fromY, toX, toY int) error {
	return c.provider.Inputter.Drag(fromX, fromY, toX, toY)
}

// MoveMouse moves the pointer without clicking.
func (c *Controller) MoveMouse(x, y int) error {
	return c.provider.Inputter.MoveMouse(x, y)
}

// IsProcessRunning reports whether any process with the image name is alive.
func (c *Controller) IsProcessRunning(imageName string) bool {
	procs, err := c.provider.Processes.FindByName(imageName)
	return err == nil && len(procs) > 0
}

// ActiveWindowTitle returns the title of the currently focused window, or ""
// when it cannot be determined.
func (c *Controller) ActiveWindowTitle() string {
	w, err := c.provider.Windows.FrontmostWindow()
	if err != nil {
		return ""
	}
	return w.Title
}

// IsWindowAvailable reports whether any on-screen window title contains
// title (case-insensitive).
func (c *Controller) IsWindowAvailable(title string) bool {
	windows, err := c.provider.Windows.ListWindows(0)
	if err != nil {
		return false
	}
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), strings.ToLower(title)) {
			return true
		}
	}
	return false
}
