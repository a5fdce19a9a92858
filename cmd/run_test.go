package cmd

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/dgannon/appdriver/internal/app"
	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/platform"
	"github.com/dgannon/appdriver/internal/vision"
	"github.com/dgannon/appdriver/internal/wait"
	"github.com/dgannon/appdriver/internal/window"
)

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps([]byte(`
- launch: { path: /usr/bin/app, name: app }
- type: { text: hello }
- key: { combo: cmd+s }
`))
	if err != nil {
		t.Fatalf("parseSteps: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("len(steps) = %d, want 3", len(steps))
	}
	if _, ok := steps[0]["launch"]; !ok {
		t.Error("first step should be launch")
	}
}

func TestParseStepsEmpty(t *testing.T) {
	if _, err := parseSteps(nil); err == nil {
		t.Error("empty input must error")
	}
	if _, err := parseSteps([]byte("[]")); err == nil {
		t.Error("empty list must error")
	}
}

func TestParseStepsInvalidYAML(t *testing.T) {
	if _, err := parseSteps([]byte("{not a list")); err == nil {
		t.Error("invalid YAML must error")
	}
}

type stubProcesses struct {
	nextPID int
	started []string
	killed  []int
	running map[int]bool
	paths   map[int]string
}

func (f *stubProcesses) Start(path string, args []string) (int, error) {
	f.nextPID++
	f.started = append(f.started, path)
	if f.running == nil {
		f.running = make(map[int]bool)
		f.paths = make(map[int]string)
	}
	f.running[f.nextPID] = true
	f.paths[f.nextPID] = path
	return f.nextPID, nil
}

func (f *stubProcesses) FindByName(image string) ([]platform.ProcessInfo, error) {
	var procs []platform.ProcessInfo
	for pid, alive := range f.running {
		if alive && baseName(f.paths[pid]) == image {
			procs = append(procs, platform.ProcessInfo{PID: pid, Name: image, Path: f.paths[pid]})
		}
	}
	return procs, nil
}

func (f *stubProcesses) IsRunning(pid int) bool  { return f.running[pid] }
func (f *stubProcesses) Terminate(pid int) error { f.running[pid] = false; return nil }
func (f *stubProcesses) Kill(pid int) error {
	f.killed = append(f.killed, pid)
	f.running[pid] = false
	return nil
}

type stubWindows struct{}

func (stubWindows) ListWindows(pid int) ([]platform.WindowInfo, error) { return nil, nil }
func (stubWindows) FocusWindow(id int) error                          { return nil }
func (stubWindows) CloseWindow(id int) error                          { return nil }
func (stubWindows) GetPlacement(id int) (platform.Placement, error) {
	return platform.Placement{}, nil
}
func (stubWindows) SetPlacement(id int, p platform.Placement) error { return nil }
func (stubWindows) Maximize(id int) error                           { return nil }
func (stubWindows) FrontmostWindow() (platform.WindowInfo, error) {
	return platform.WindowInfo{}, nil
}

type stubInputter struct {
	typed  []string
	combos [][]string
}

func (f *stubInputter) Click(x, y int, b platform.MouseButton, count int) error { return nil }
func (f *stubInputter) MoveMouse(x, y int) error                                { return nil }
func (f *stubInputter) Drag(fx, fy, tx, ty int) error                           { return nil }
func (f *stubInputter) TypeText(text string, delayMs int) error {
	f.typed = append(f.typed, text)
	return nil
}
func (f *stubInputter) KeyCombo(keys []string) error {
	f.combos = append(f.combos, keys)
	return nil
}

type stubScreenshotter struct{}

func (stubScreenshotter) CaptureScreen() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}
func (stubScreenshotter) CaptureRegion(b platform.Bounds) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func testDriver() (*driver, *stubProcesses, *stubInputter) {
	procs := &stubProcesses{}
	inp := &stubInputter{}
	provider := &platform.Provider{
		Processes:     procs,
		Windows:       stubWindows{},
		Inputter:      inp,
		Screenshotter: stubScreenshotter{},
	}
	cfg := config.Default()
	cfg.PollInterval = time.Millisecond
	cfg.SettleDelay = time.Millisecond
	cfg.TypeDelay = 0

	capturer := &vision.ScreenCapturer{Screenshotter: provider.Screenshotter}
	return &driver{
		provider: provider,
		cfg:      cfg,
		registry: app.NewRegistry(provider, cfg, nil),
		ctrl:     window.NewController(provider, cfg, nil),
		engine:   wait.NewEngine(capturer, &vision.TemplateMatcher{}, &vision.TesseractOCR{}, cfg, nil),
	}, procs, inp
}

func TestExecuteStepLaunchAndType(t *testing.T) {
	d, procs, inp := testDriver()
	ctx := context.Background()

	sr := executeStep(ctx, d, 1, step{"launch": {"path": "/usr/bin/app", "name": "app"}})
	if !sr.OK {
		t.Fatalf("launch step failed: %s", sr.Error)
	}
	if len(procs.started) != 1 || procs.started[0] != "/usr/bin/app" {
		t.Errorf("started = %v", procs.started)
	}
	if d.registry.Primary("app") == nil {
		t.Fatal("launch should register the app")
	}

	sr = executeStep(ctx, d, 2, step{"type": {"text": "hello"}})
	if !sr.OK {
		t.Fatalf("type step failed: %s", sr.Error)
	}
	if len(inp.typed) != 1 || inp.typed[0] != "hello" {
		t.Errorf("typed = %v", inp.typed)
	}

	sr = executeStep(ctx, d, 3, step{"key": {"combo": "cmd+s"}})
	if !sr.OK {
		t.Fatalf("key step failed: %s", sr.Error)
	}
	if len(inp.combos) != 1 || len(inp.combos[0]) != 2 {
		t.Errorf("combos = %v", inp.combos)
	}
}

func TestExecuteStepResolvesLogicalName(t *testing.T) {
	d, procs, _ := testDriver()
	ctx := context.Background()

	// The logical name "app" shares nothing with the image name "myapp";
	// later steps must resolve it through the registry, not an OS scan.
	sr := executeStep(ctx, d, 1, step{"launch": {"path": "/usr/local/bin/myapp", "name": "app"}})
	if !sr.OK {
		t.Fatalf("launch step failed: %s", sr.Error)
	}

	sr = executeStep(ctx, d, 2, step{"focus": {"app": "app"}})
	if !sr.OK {
		t.Fatalf("focus by logical name failed: %s", sr.Error)
	}

	// Dead process: terminate by logical name still finds the tracked
	// context and clears it.
	for pid := range procs.running {
		procs.running[pid] = false
	}
	sr = executeStep(ctx, d, 3, step{"terminate": {"app": "app"}})
	if !sr.OK {
		t.Fatalf("terminate by logical name failed: %s", sr.Error)
	}
	if d.registry.Primary("app") != nil {
		t.Error("terminated app should be dropped from the registry")
	}
}

func TestExecuteStepUnknownAction(t *testing.T) {
	d, _, _ := testDriver()
	sr := executeStep(context.Background(), d, 1, step{"teleport": {}})
	if sr.OK {
		t.Fatal("unknown action must fail")
	}
}

func TestExecuteStepMalformed(t *testing.T) {
	d, _, _ := testDriver()
	sr := executeStep(context.Background(), d, 1, step{"click": {}, "type": {}})
	if sr.OK {
		t.Fatal("multi-key step must fail")
	}
}

func TestExecuteStepLaunchMissingPath(t *testing.T) {
	d, _, _ := testDriver()
	sr := executeStep(context.Background(), d, 1, step{"launch": {}})
	if sr.OK {
		t.Fatal("launch without path must fail")
	}
}

func TestExecuteStepTerminateAll(t *testing.T) {
	d, procs, _ := testDriver()
	ctx := context.Background()

	executeStep(ctx, d, 1, step{"launch": {"path": "/usr/bin/a", "name": "a"}})
	executeStep(ctx, d, 2, step{"launch": {"path": "/usr/bin/b", "name": "b"}})

	sr := executeStep(ctx, d, 3, step{"terminate-all": {}})
	if !sr.OK {
		t.Fatalf("terminate-all failed: %s", sr.Error)
	}
	if len(d.registry.Names()) != 0 {
		t.Errorf("registry still tracks %v", d.registry.Names())
	}
	for pid, alive := range procs.running {
		if alive {
			t.Errorf("pid %d still running", pid)
		}
	}
}

func TestParamHelpers(t *testing.T) {
	params := map[string]interface{}{
		"s": "text",
		"i": 7,
		"f": 7.0,
		"b": true,
		"a": []interface{}{"x", "y"},
	}
	if got := stringParam(params, "s", ""); got != "text" {
		t.Errorf("stringParam = %q", got)
	}
	if got := stringParam(params, "missing", "def"); got != "def" {
		t.Errorf("stringParam default = %q", got)
	}
	if got := intParam(params, "i", 0); got != 7 {
		t.Errorf("intParam int = %d", got)
	}
	if got := intParam(params, "f", 0); got != 7 {
		t.Errorf("intParam float = %d", got)
	}
	if !boolParam(params, "b", false) {
		t.Error("boolParam should be true")
	}
	if got := stringSliceParam(params, "a"); len(got) != 2 || got[0] != "x" {
		t.Errorf("stringSliceParam = %v", got)
	}
}
