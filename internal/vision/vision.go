// Package vision defines the visual-sensing collaborators the synchronization
// engine polls: frame capture, template matching, and text recognition. The
// core never inspects application state through APIs the target exposes; it
// infers state from captured pixels.
package vision

import (
	"image"

	"github.com/dgannon/appdriver/internal/platform"
)

// Capturer produces frames for sensing.
type Capturer interface {
	// FullScreen captures the entire primary display.
	FullScreen() (image.Image, error)

	// Region captures a sub-rectangle of the screen.
	Region(b platform.Bounds) (image.Image, error)
}

// Matcher locates a template image within a screenshot.
type Matcher interface {
	// FindImage returns the best-match location of template within
	// screenshot, or ok=false when no match clears the matcher's
	// threshold.
	FindImage(screenshot, template image.Image) (platform.Bounds, bool)

	// Similarity scores how alike two images are, in [0, 1].
	Similarity(a, b image.Image) float64
}

// OCR extracts text from an image.
type OCR interface {
	ExtractText(img image.Image) (string, error)

	// ExtractTextWithConfidence also reports mean word confidence in
	// percent (0-100).
	ExtractTextWithConfidence(img image.Image) (string, float64, error)
}

// ScreenCapturer adapts a platform.Screenshotter to the Capturer interface.
type ScreenCapturer struct {
	Screenshotter platform.Screenshotter
}

func (c *ScreenCapturer) FullScreen() (image.Image, error) {
	return c.Screenshotter.CaptureScreen()
}

func (c *ScreenCapturer) Region(b platform.Bounds) (image.Image, error) {
	return c.Screenshotter.CaptureRegion(b)
}
