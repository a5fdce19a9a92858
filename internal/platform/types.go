package platform

import (
	"fmt"
	"strconv"
	"strings"
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
	case "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

// Bounds represents a screen rectangle in absolute coordinates.
type Bounds struct {
	X, Y, Width, Height int
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() (x, y int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Empty reports whether the rectangle has no area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// ParseBounds parses a "x,y,w,h" string into a Bounds.
func ParseBounds(s string) (*Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid region %q: expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid region %q: %w", s, err)
		}
		vals[i] = v
	}
	return &Bounds{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// WindowMode describes a window's display state.
type WindowMode int

const (
	WindowNormal WindowMode = iota
	WindowMinimized
	WindowMaximized
)

// Placement captures a window's position, size, and mode so it can be
// restored later. Valid only for the window it was read from.
type Placement struct {
	Bounds Bounds
	Mode   WindowMode
}

// ProcessInfo describes one running OS process.
type ProcessInfo struct {
	PID  int
	Name string
	Path string
}

// WindowInfo describes one top-level window as reported by the OS.
type WindowInfo struct {
	ID      int
	PID     int
	App     string
	Title   string
	Bounds  Bounds
	Focused bool
}
