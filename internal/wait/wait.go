// Package wait is the synchronization engine: timeout-bound polling over
// predicates, template matches, recognized text, and screen stability. Every
// wait returns a bool; expiry is an expected outcome for callers to branch
// on, not a failure to propagate.
package wait

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/platform"
	"github.com/dgannon/appdriver/internal/vision"
)

// Engine polls conditions at a fixed interval until they hold or a deadline
// passes. It owns no state between calls and is safe for concurrent use as
// long as its collaborators are.
type Engine struct {
	capturer vision.Capturer
	matcher  vision.Matcher
	ocr      vision.OCR
	cfg      config.Settings
	log      *zap.Logger
}

// NewEngine creates a polling engine over the given sensing collaborators.
// ocr may be nil when text waits are not needed.
func NewEngine(capturer vision.Capturer, matcher vision.Matcher, ocr vision.OCR, cfg config.Settings, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		capturer: capturer,
		matcher:  matcher,
		ocr:      ocr,
		cfg:      cfg,
		log:      log,
	}
}

// ForCondition polls pred every PollInterval until it returns true or timeout
// elapses. Predicate errors count as "not yet": transient sensing failures
// (capture glitches, OCR hiccups) must not abort a wait that could still
// succeed. Context cancellation stops the wait early with false.
func (e *Engine) ForCondition(ctx context.Context, pred func() (bool, error), timeout time.Duration, desc string) bool {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := pred()
		if err != nil {
			e.log.Debug("condition probe failed",
				zap.String("condition", desc), zap.Error(err))
		} else if ok {
			return true
		}

		if time.Now().After(deadline) {
			e.log.Warn("wait timed out",
				zap.String("condition", desc),
				zap.Duration("timeout", timeout))
			return false
		}

		select {
		case <-ctx.Done():
			e.log.Debug("wait interrupted",
				zap.String("condition", desc), zap.Error(ctx.Err()))
			return false
		case <-time.After(e.cfg.PollInterval):
		}
	}
}

// ForImage waits until the template image at templatePath appears on screen,
// returning its location. Missing or undecodable template files fail
// immediately; only the screen is polled.
func (e *Engine) ForImage(ctx context.Context, templatePath string, timeout time.Duration) (platform.Bounds, bool) {
	template, err := loadImage(templatePath)
	if err != nil {
		e.log.Error("template load failed",
			zap.String("path", templatePath), zap.Error(err))
		return platform.Bounds{}, false
	}

	var found platform.Bounds
	ok := e.ForCondition(ctx, func() (bool, error) {
		frame, err := e.capturer.FullScreen()
		if err != nil {
			return false, err
		}
		b, hit := e.matcher.FindImage(frame, template)
		if hit {
			found = b
		}
		return hit, nil
	}, timeout, fmt.Sprintf("image %s", templatePath))
	return found, ok
}

// ForText waits until OCR over the given region (or the full screen when
// region is nil) contains text, case-insensitive.
func (e *Engine) ForText(ctx context.Context, text string, region *platform.Bounds, timeout time.Duration) bool {
	want := strings.ToLower(text)
	return e.ForCondition(ctx, func() (bool, error) {
		frame, err := e.capture(region)
		if err != nil {
			return false, err
		}
		got, err := e.ocr.ExtractText(frame)
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(got), want), nil
	}, timeout, fmt.Sprintf("text %q", text))
}

// ForTextGone waits until OCR over the region no longer contains text.
func (e *Engine) ForTextGone(ctx context.Context, text string, region *platform.Bounds, timeout time.Duration) bool {
	want := strings.ToLower(text)
	return e.ForCondition(ctx, func() (bool, error) {
		frame, err := e.capture(region)
		if err != nil {
			return false, err
		}
		got, err := e.ocr.ExtractText(frame)
		if err != nil {
			return false, err
		}
		return !strings.Contains(strings.ToLower(got), want), nil
	}, timeout, fmt.Sprintf("text gone %q", text))
}

// ForScreenStability waits until consecutive captures of the region (or full
// screen) stay above the similarity threshold for stableFor, giving up after
// maxWait. Any frame that differs resets the stability clock: the screen must
// be continuously quiet, not momentarily so.
func (e *Engine) ForScreenStability(ctx context.Context, region *platform.Bounds, stableFor, maxWait time.Duration) bool {
	var prev image.Image
	lastChange := time.Now()

	return e.ForCondition(ctx, func() (bool, error) {
		frame, err := e.capture(region)
		if err != nil {
			return false, err
		}
		if prev != nil {
			if e.matcher.Similarity(prev, frame) < e.cfg.StabilityThreshold {
				lastChange = time.Now()
			}
		}
		prev = frame
		return time.Since(lastChange) >= stableFor, nil
	}, maxWait, "screen stability")
}

// Sleep pauses for d, returning early when ctx is cancelled. Scripted
// scenarios use this for fixed pauses so cancellation still interrupts them.
func (e *Engine) Sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (e *Engine) capture(region *platform.Bounds) (image.Image, error) {
	if region != nil && !region.Empty() {
		return e.capturer.Region(*region)
	}
	return e.capturer.FullScreen()
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
