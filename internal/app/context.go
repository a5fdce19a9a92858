// Package app owns the identity model for tracked external applications: the
// per-instance Context and the Registry that maps test-facing logical names
// to live contexts.
package app

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgannon/appdriver/internal/platform"
)

// Context is the identity and lifetime record for one tracked application
// instance. The PID is immutable; a new OS process requires a new Context.
// Window handles are non-owning IDs discovered lazily — the target process
// may create its windows well after launch, so callers re-enumerate rather
// than trust a cached list across a polling loop.
type Context struct {
	LogicalName    string
	PID            int
	ExecutablePath string

	mu      sync.Mutex
	windows []int
}

// NewContext creates a context for a process. No window enumeration happens
// here; windows are discovered on the first Refresh.
func NewContext(logicalName string, pid int, executablePath string) *Context {
	return &Context{
		LogicalName:    logicalName,
		PID:            pid,
		ExecutablePath: executablePath,
	}
}

// RefreshWindows re-enumerates the process's top-level windows and replaces
// the cached handle list. An empty result is valid (no window yet).
func (c *Context) RefreshWindows(wm platform.WindowManager) error {
	windows, err := wm.ListWindows(c.PID)
	if err != nil {
		return err
	}
	ids := make([]int, len(windows))
	for i, w := range windows {
		ids[i] = w.ID
	}
	c.mu.Lock()
	c.windows = ids
	c.mu.Unlock()
	return nil
}

// Windows returns a copy of the last-enumerated window IDs.
func (c *Context) Windows() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]int, len(c.windows))
	copy(cp, c.windows)
	return cp
}

// PrimaryWindow returns the first enumerated window ID, if any.
func (c *Context) PrimaryWindow() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.windows) == 0 {
		return 0, false
	}
	return c.windows[0], true
}

// WindowAt returns the index-th enumerated window ID. Ordering is whatever
// the OS enumeration returned on the last refresh; treat index-based
// selection as best-effort.
func (c *Context) WindowAt(index int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.windows) {
		return 0, false
	}
	return c.windows[index], true
}

// Active reports whether the OS still knows the process. Always asks the OS;
// liveness is never cached.
func (c *Context) Active(pm platform.ProcessManager) bool {
	return pm.IsRunning(c.PID)
}

// IsConsoleHost reports whether the executable name is on the console-host
// allow-list. Console hosts may run without a focusable window yet still
// receive synthesized input.
func (c *Context) IsConsoleHost(hosts []string) bool {
	base := filepath.Base(c.ExecutablePath)
	for _, h := range hosts {
		if strings.EqualFold(base, h) {
			return true
		}
	}
	return false
}
