package wait

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/platform"
)

type fakeCapturer struct {
	frames []image.Image
	errs   []error
	calls  int
}

func (f *fakeCapturer) next() (image.Image, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if len(f.frames) == 0 {
		return solid(color.Black), nil
	}
	if i >= len(f.frames) {
		i = len(f.frames) - 1
	}
	return f.frames[i], nil
}

func (f *fakeCapturer) FullScreen() (image.Image, error) { return f.next() }
func (f *fakeCapturer) Region(b platform.Bounds) (image.Image, error) {
	return f.next()
}

type fakeMatcher struct {
	// hitAfter is the 1-based FindImage call on which the match appears.
	hitAfter int
	hitAt    platform.Bounds
	calls    int

	// similarities are returned in order; the last value repeats.
	similarities []float64
	simCalls     int
}

func (f *fakeMatcher) FindImage(screenshot, template image.Image) (platform.Bounds, bool) {
	f.calls++
	if f.hitAfter > 0 && f.calls >= f.hitAfter {
		return f.hitAt, true
	}
	return platform.Bounds{}, false
}

func (f *fakeMatcher) Similarity(a, b image.Image) float64 {
	i := f.simCalls
	f.simCalls++
	if len(f.similarities) == 0 {
		return 1.0
	}
	if i >= len(f.similarities) {
		i = len(f.similarities) - 1
	}
	return f.similarities[i]
}

type fakeOCR struct {
	texts []string
	calls int
}

func (f *fakeOCR) ExtractText(img image.Image) (string, error) {
	i := f.calls
	f.calls++
	if len(f.texts) == 0 {
		return "", nil
	}
	if i >= len(f.texts) {
		i = len(f.texts) - 1
	}
	return f.texts[i], nil
}

func (f *fakeOCR) ExtractTextWithConfidence(img image.Image) (string, float64, error) {
	s, err := f.ExtractText(img)
	return s, 90, err
}

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testEngine(cap *fakeCapturer, m *fakeMatcher, o *fakeOCR) *Engine {
	cfg := config.Default()
	cfg.PollInterval = time.Millisecond
	return NewEngine(cap, m, o, cfg, nil)
}

func TestForConditionImmediate(t *testing.T) {
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, &fakeOCR{})
	calls := 0
	ok := e.ForCondition(context.Background(), func() (bool, error) {
		calls++
		return true, nil
	}, time.Second, "immediate")
	if !ok {
		t.Fatal("immediately-true condition should succeed")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestForConditionTimeout(t *testing.T) {
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, &fakeOCR{})
	timeout := 20 * time.Millisecond
	start := time.Now()
	ok := e.ForCondition(context.Background(), func() (bool, error) {
		return false, nil
	}, timeout, "never")
	elapsed := time.Since(start)
	if ok {
		t.Fatal("never-true condition must time out")
	}
	if elapsed < timeout {
		t.Errorf("returned after %v, before the %v timeout", elapsed, timeout)
	}
}

func TestForConditionTransientErrors(t *testing.T) {
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, &fakeOCR{})
	calls := 0
	ok := e.ForCondition(context.Background(), func() (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("sensor glitch")
		}
		return true, nil
	}, time.Second, "flaky")
	if !ok {
		t.Fatal("condition succeeding after transient errors should report true")
	}
}

func TestForConditionCancel(t *testing.T) {
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, &fakeOCR{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	ok := e.ForCondition(ctx, func() (bool, error) {
		return false, nil
	}, time.Minute, "cancelled")
	if ok {
		t.Fatal("cancelled wait must report false")
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled wait should return promptly, not run out the timeout")
	}
}

func TestSleep(t *testing.T) {
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, &fakeOCR{})

	d := 15 * time.Millisecond
	start := time.Now()
	e.Sleep(context.Background(), d)
	if elapsed := time.Since(start); elapsed < d {
		t.Errorf("returned after %v, before the %v pause", elapsed, d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	e.Sleep(ctx, time.Minute)
	if time.Since(start) > time.Second {
		t.Error("cancelled sleep should return promptly")
	}
}

func TestForImageFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.png")
	writePNG(t, path, solid(color.White))

	want := platform.Bounds{X: 40, Y: 60, Width: 4, Height: 4}
	m := &fakeMatcher{hitAfter: 2, hitAt: want}
	e := testEngine(&fakeCapturer{}, m, &fakeOCR{})

	got, ok := e.ForImage(context.Background(), path, time.Second)
	if !ok {
		t.Fatal("template should be found")
	}
	if got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
}

func TestForImageMissingTemplate(t *testing.T) {
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, &fakeOCR{})
	start := time.Now()
	_, ok := e.ForImage(context.Background(), "/nonexistent/button.png", time.Minute)
	if ok {
		t.Fatal("missing template must fail")
	}
	if time.Since(start) > time.Second {
		t.Error("missing template should fail immediately, not poll")
	}
}

func TestForText(t *testing.T) {
	o := &fakeOCR{texts: []string{"loading...", "loading...", "Ready to Continue"}}
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, o)

	if !e.ForText(context.Background(), "ready to continue", nil, time.Second) {
		t.Fatal("text should be found case-insensitively")
	}
}

func TestForTextTimeout(t *testing.T) {
	o := &fakeOCR{texts: []string{"loading..."}}
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, o)

	if e.ForText(context.Background(), "done", nil, 15*time.Millisecond) {
		t.Fatal("absent text must time out")
	}
}

func TestForTextGone(t *testing.T) {
	o := &fakeOCR{texts: []string{"Saving...", "Saving...", "All changes saved"}}
	e := testEngine(&fakeCapturer{}, &fakeMatcher{}, o)

	if !e.ForTextGone(context.Background(), "saving...", nil, time.Second) {
		t.Fatal("disappearing text should be detected")
	}
}

func TestForScreenStabilitySettles(t *testing.T) {
	// All frames identical: similarity 1.0, screen is stable from the start.
	m := &fakeMatcher{similarities: []float64{1.0}}
	e := testEngine(&fakeCapturer{}, m, &fakeOCR{})

	ok := e.ForScreenStability(context.Background(), nil, 10*time.Millisecond, time.Second)
	if !ok {
		t.Fatal("unchanging screen should be reported stable")
	}
}

func TestForScreenStabilityNeverSettles(t *testing.T) {
	// Every frame differs from the last: the stability clock keeps resetting.
	m := &fakeMatcher{similarities: []float64{0.5}}
	e := testEngine(&fakeCapturer{}, m, &fakeOCR{})

	ok := e.ForScreenStability(context.Background(), nil, 20*time.Millisecond, 60*time.Millisecond)
	if ok {
		t.Fatal("constantly-changing screen must not be reported stable")
	}
}

func TestForScreenStabilityResetsOnChange(t *testing.T) {
	// Stable, then one disruption, then stable again. The wait must survive
	// the reset and still succeed within the max wait.
	m := &fakeMatcher{similarities: []float64{1.0, 1.0, 0.3, 1.0}}
	e := testEngine(&fakeCapturer{}, m, &fakeOCR{})

	ok := e.ForScreenStability(context.Background(), nil, 10*time.Millisecond, time.Second)
	if !ok {
		t.Fatal("screen settling after a disruption should be reported stable")
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}
