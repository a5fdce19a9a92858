package app

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/platform"
)

// fakeProcesses is an in-memory ProcessManager.
type fakeProcesses struct {
	nextPID  int
	running  map[int]bool
	byName   map[string][]platform.ProcessInfo
	startErr error
	killed   []int
	termed   []int
}

func newFakeProcesses() *fakeProcesses {
	return &fakeProcesses{
		nextPID: 1000,
		running: make(map[int]bool),
		byName:  make(map[string][]platform.ProcessInfo),
	}
}

func (f *fakeProcesses) Start(path string, args []string) (int, error) {
	if f.startErr != nil {
		return 0, f.startErr
	}
	f.nextPID++
	f.running[f.nextPID] = true
	return f.nextPID, nil
}

func (f *fakeProcesses) FindByName(image string) ([]platform.ProcessInfo, error) {
	return f.byName[image], nil
}

func (f *fakeProcesses) IsRunning(pid int) bool { return f.running[pid] }

func (f *fakeProcesses) Terminate(pid int) error {
	f.termed = append(f.termed, pid)
	delete(f.running, pid)
	return nil
}

func (f *fakeProcesses) Kill(pid int) error {
	f.killed = append(f.killed, pid)
	delete(f.running, pid)
	return nil
}

// fakeWindows is an in-memory WindowManager.
type fakeWindows struct {
	byPID    map[int][]platform.WindowInfo
	closed   []int
	closeErr error
}

func newFakeWindows() *fakeWindows {
	return &fakeWindows{byPID: make(map[int][]platform.WindowInfo)}
}

func (f *fakeWindows) ListWindows(pid int) ([]platform.WindowInfo, error) {
	if pid == 0 {
		var all []platform.WindowInfo
		for _, ws := range f.byPID {
			all = append(all, ws...)
		}
		return all, nil
	}
	return f.byPID[pid], nil
}

func (f *fakeWindows) FocusWindow(id int) error  { return nil }
func (f *fakeWindows) CloseWindow(id int) error {
	f.closed = append(f.closed, id)
	return f.closeErr
}
func (f *fakeWindows) GetPlacement(id int) (platform.Placement, error) {
	return platform.Placement{}, nil
}
func (f *fakeWindows) SetPlacement(id int, p platform.Placement) error { return nil }
func (f *fakeWindows) Maximize(id int) error                           { return nil }
func (f *fakeWindows) FrontmostWindow() (platform.WindowInfo, error) {
	return platform.WindowInfo{}, errors.New("no frontmost window")
}

// fakeInputter records injected input.
type fakeInputter struct {
	typed  []string
	combos [][]string
}

func (f *fakeInputter) Click(x, y int, b platform.MouseButton, count int) error { return nil }
func (f *fakeInputter) MoveMouse(x, y int) error                                { return nil }
func (f *fakeInputter) Drag(fx, fy, tx, ty int) error                           { return nil }
func (f *fakeInputter) TypeText(text string, delayMs int) error {
	f.typed = append(f.typed, text)
	return nil
}
func (f *fakeInputter) KeyCombo(keys []string) error {
	f.combos = append(f.combos, keys)
	return nil
}

type fakeScreenshotter struct{}

func (f *fakeScreenshotter) CaptureScreen() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}
func (f *fakeScreenshotter) CaptureRegion(b platform.Bounds) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func testSettings() config.Settings {
	s := config.Default()
	s.PollInterval = 5 * time.Millisecond
	s.SettleDelay = 10 * time.Millisecond
	return s
}

func newTestRegistry() (*Registry, *fakeProcesses, *fakeWindows, *fakeInputter) {
	procs := newFakeProcesses()
	wins := newFakeWindows()
	inp := &fakeInputter{}
	provider := &platform.Provider{
		Processes:     procs,
		Windows:       wins,
		Inputter:      inp,
		Screenshotter: &fakeScreenshotter{},
	}
	return NewRegistry(provider, testSettings(), nil), procs, wins, inp
}

func TestLaunchRegistersContext(t *testing.T) {
	r, procs, _, _ := newTestRegistry()

	ctx, err := r.Launch("editor", "/usr/bin/editor")
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if ctx.PID == 0 {
		t.Fatal("context has zero PID")
	}
	if !ctx.Active(procs) {
		t.Error("launched process should be active")
	}
	if got := r.Primary("editor"); got != ctx {
		t.Error("Primary does not return the launched context")
	}
	if got := r.All("editor"); len(got) != 1 || got[0] != ctx {
		t.Errorf("All = %v, want the one launched context", got)
	}
	if _, ok := ctx.PrimaryWindow(); ok {
		t.Error("fresh launch should have no windows yet")
	}
}

func TestLaunchFailure(t *testing.T) {
	r, procs, _, _ := newTestRegistry()
	procs.startErr = errors.New("no such file")

	_, err := r.Launch("ghost", "/does/not/exist")
	if !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("err = %v, want ErrLaunchFailed", err)
	}
	if r.Primary("ghost") != nil {
		t.Error("failed launch must not register a context")
	}
}

func TestAttachNewestPicksLargestPID(t *testing.T) {
	r, procs, _, _ := newTestRegistry()
	procs.byName["term"] = []platform.ProcessInfo{
		{PID: 300, Name: "term", Path: "/bin/term"},
		{PID: 700, Name: "term", Path: "/bin/term"},
		{PID: 500, Name: "term", Path: "/bin/term"},
	}
	procs.running[700] = true

	ctx, err := r.AttachNewest("shell", "term")
	if err != nil {
		t.Fatalf("AttachNewest: %v", err)
	}
	if ctx.PID != 700 {
		t.Errorf("attached PID = %d, want 700 (largest)", ctx.PID)
	}
}

func TestAttachNewestIdempotent(t *testing.T) {
	r, procs, _, _ := newTestRegistry()
	procs.byName["term"] = []platform.ProcessInfo{{PID: 42, Name: "term", Path: "/bin/term"}}

	a, err := r.AttachNewest("shell", "term")
	if err != nil {
		t.Fatalf("first attach: %v", err)
	}
	b, err := r.AttachNewest("shell", "term")
	if err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if a != b {
		t.Error("re-attach to the same process should reuse the context")
	}
	if len(r.All("shell")) != 1 {
		t.Errorf("All = %d contexts, want 1", len(r.All("shell")))
	}
}

func TestAttachNewestNoProcess(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	_, err := r.AttachNewest("shell", "missing")
	if !errors.Is(err, ErrNoProcess) {
		t.Fatalf("err = %v, want ErrNoProcess", err)
	}
}

func TestAttachConsoleHostWithoutWindows(t *testing.T) {
	r, procs, wins, _ := newTestRegistry()
	procs.byName["zsh"] = []platform.ProcessInfo{{PID: 55, Name: "zsh", Path: "/bin/zsh"}}
	// No windows registered for PID 55.
	delete(wins.byPID, 55)

	ctx, err := r.AttachNewest("shell", "zsh")
	if err != nil {
		t.Fatalf("AttachNewest on windowless console host: %v", err)
	}
	if !ctx.IsConsoleHost(config.Default().ConsoleHosts) {
		t.Error("zsh should classify as a console host")
	}
}

func TestTerminateOneClosesWindow(t *testing.T) {
	r, procs, wins, _ := newTestRegistry()
	ctx, _ := r.Launch("app", "/usr/bin/app")
	wins.byPID[ctx.PID] = []platform.WindowInfo{{ID: 9, PID: ctx.PID, Title: "Main"}}
	// Closing the window makes the fake process exit.
	wins.closeErr = nil
	go func() {
		time.Sleep(2 * time.Millisecond)
		delete(procs.running, ctx.PID)
	}()

	if !r.TerminateOne("app") {
		t.Fatal("TerminateOne should succeed once the process exits")
	}
	if len(wins.closed) != 1 || wins.closed[0] != 9 {
		t.Errorf("closed windows = %v, want [9]", wins.closed)
	}
	if r.Primary("app") != nil {
		t.Error("terminated context should be removed from the registry")
	}
}

func TestTerminateOneConsoleFallback(t *testing.T) {
	r, procs, _, inp := newTestRegistry()
	procs.byName["zsh"] = []platform.ProcessInfo{{PID: 77, Name: "zsh", Path: "/bin/zsh"}}
	procs.running[77] = true
	if _, err := r.AttachNewest("shell", "zsh"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	go func() {
		time.Sleep(2 * time.Millisecond)
		delete(procs.running, 77)
	}()

	if !r.TerminateOne("shell") {
		t.Fatal("TerminateOne should succeed for a console host")
	}
	if len(inp.typed) == 0 || inp.typed[0] != "exit" {
		t.Errorf("typed = %v, want interactive exit command", inp.typed)
	}
}

func TestTerminateOneTimesOut(t *testing.T) {
	r, _, wins, _ := newTestRegistry()
	ctx, _ := r.Launch("stuck", "/usr/bin/stuck")
	wins.byPID[ctx.PID] = []platform.WindowInfo{{ID: 3, PID: ctx.PID}}
	// Process never exits.

	if r.TerminateOne("stuck") {
		t.Fatal("TerminateOne should report failure for a process that won't die")
	}
	if r.Primary("stuck") == nil {
		t.Error("a failed termination must keep the context tracked for cleanup")
	}
}

func TestTerminateOneUnknownName(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	if r.TerminateOne("never-registered") {
		t.Error("unknown logical name should return false")
	}
}

func TestTerminateAllClearsRegistry(t *testing.T) {
	r, procs, _, _ := newTestRegistry()
	a, _ := r.Launch("one", "/bin/one")
	b, _ := r.Launch("two", "/bin/two")

	r.TerminateAll()

	if procs.running[a.PID] || procs.running[b.PID] {
		t.Error("TerminateAll should stop all tracked processes")
	}
	if r.Primary("one") != nil || r.Primary("two") != nil {
		t.Error("Primary should be empty after TerminateAll")
	}
	if len(r.All("one")) != 0 || len(r.All("two")) != 0 {
		t.Error("All should be empty after TerminateAll")
	}
	if len(r.Names()) != 0 {
		t.Errorf("Names = %v, want empty", r.Names())
	}
}

func TestForceTerminateOneKillsAndDrops(t *testing.T) {
	r, procs, _, _ := newTestRegistry()
	ctx, _ := r.Launch("app", "/bin/app")

	if !r.ForceTerminateOne("app") {
		t.Fatal("ForceTerminateOne should succeed")
	}
	if len(procs.killed) != 1 || procs.killed[0] != ctx.PID {
		t.Errorf("killed = %v, want [%d]", procs.killed, ctx.PID)
	}
	// The dead context must not linger: a later lookup by the same name
	// would resolve to a dead PID.
	if r.Primary("app") != nil {
		t.Error("force-terminated context still registered")
	}
}

func TestForceTerminateOneUnknownName(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	if r.ForceTerminateOne("ghost") {
		t.Error("unknown name should report false")
	}
}

func TestForceCleanupAllKills(t *testing.T) {
	r, procs, _, _ := newTestRegistry()
	ctx, _ := r.Launch("app", "/bin/app")

	r.ForceCleanupAll()

	if len(procs.killed) != 1 || procs.killed[0] != ctx.PID {
		t.Errorf("killed = %v, want [%d]", procs.killed, ctx.PID)
	}
	if len(r.Names()) != 0 {
		t.Error("registry should be empty after ForceCleanupAll")
	}
}

func TestMultiInstance(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	first, _ := r.Launch("app", "/bin/app")
	second, _ := r.Launch("app", "/bin/app")

	if r.Primary("app") != second {
		t.Error("Primary should be the most recently launched instance")
	}
	all := r.All("app")
	if len(all) != 2 || all[0] != first || all[1] != second {
		t.Errorf("All should preserve registration order, got %v", all)
	}
	if first.PID == second.PID {
		t.Error("two launches must produce distinct PIDs")
	}
}

func TestContextWindowAccessors(t *testing.T) {
	wins := newFakeWindows()
	wins.byPID[10] = []platform.WindowInfo{
		{ID: 101, PID: 10}, {ID: 102, PID: 10},
	}
	ctx := NewContext("app", 10, "/bin/app")

	if _, ok := ctx.PrimaryWindow(); ok {
		t.Error("unrefreshed context should have no windows")
	}
	if err := ctx.RefreshWindows(wins); err != nil {
		t.Fatalf("RefreshWindows: %v", err)
	}
	if win, ok := ctx.PrimaryWindow(); !ok || win != 101 {
		t.Errorf("PrimaryWindow = %d, %v; want 101, true", win, ok)
	}
	if win, ok := ctx.WindowAt(1); !ok || win != 102 {
		t.Errorf("WindowAt(1) = %d, %v; want 102, true", win, ok)
	}
	if _, ok := ctx.WindowAt(2); ok {
		t.Error("WindowAt past the end should report false")
	}
	if _, ok := ctx.WindowAt(-1); ok {
		t.Error("negative index should report false")
	}
}
