package platform

import "image"

// ProcessManager is the OS boundary for starting, finding, and stopping
// processes. Implementations never cache liveness; every call asks the OS.
type ProcessManager interface {
	// Start launches a new process and returns its PID.
	Start(path string, args []string) (int, error)

	// FindByName returns all running processes whose image name matches.
	FindByName(image string) ([]ProcessInfo, error)

	// IsRunning reports whether the PID refers to a live process.
	IsRunning(pid int) bool

	// Terminate requests graceful shutdown (SIGTERM).
	Terminate(pid int) error

	// Kill stops the process unconditionally (SIGKILL).
	Kill(pid int) error
}

// WindowManager enumerates and manipulates top-level windows. Window IDs are
// non-owning references; the OS owns the underlying resources.
type WindowManager interface {
	// ListWindows returns the top-level windows owned by pid, or all
	// windows when pid is 0. Ordering is whatever the OS enumeration
	// returns; callers must not assume it is stable across calls.
	ListWindows(pid int) ([]WindowInfo, error)

	// FocusWindow asks the OS to bring the window to the foreground.
	FocusWindow(windowID int) error

	// CloseWindow posts a close request to the window.
	CloseWindow(windowID int) error

	// GetPlacement reads the window's current position, size, and mode.
	GetPlacement(windowID int) (Placement, error)

	// SetPlacement restores a previously read placement.
	SetPlacement(windowID int, p Placement) error

	// Maximize zooms the window to fill the screen.
	Maximize(windowID int) error

	// FrontmostWindow returns the currently focused window.
	FrontmostWindow() (WindowInfo, error)
}

// Inputter synthesizes keyboard and mouse input at the OS event-queue level.
// All coordinates are absolute screen coordinates; input routes to whichever
// window currently has focus.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	MoveMouse(x, y int) error
	Drag(fromX, fromY, toX, toY int) error
	TypeText(text string, delayMs int) error
	KeyCombo(keys []string) error
}

// Screenshotter captures raw frames for visual sensing.
type Screenshotter interface {
	CaptureScreen() (image.Image, error)
	CaptureRegion(b Bounds) (image.Image, error)
}
