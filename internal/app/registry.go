package app

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/platform"
)

var (
	// ErrLaunchFailed wraps OS refusals to start or resolve a process.
	ErrLaunchFailed = errors.New("launch failed")

	// ErrNoProcess is returned by AttachNewest when no running process
	// matches the image name.
	ErrNoProcess = errors.New("no matching process")
)

// EventRecorder receives lifecycle events for post-run diagnostics.
// See internal/journal for the sqlite implementation.
type EventRecorder interface {
	Record(kind, logicalName string, pid int) error
}

// Registry is the sole owner of the logical-name → Context mapping. All
// launch, attach, and terminate operations go through it. It is safe for
// concurrent use; individual Contexts are owned by the scenario that created
// them until terminated.
type Registry struct {
	provider *platform.Provider
	cfg      config.Settings
	log      *zap.Logger

	mu       sync.Mutex
	primary  map[string]*Context
	all      map[string][]*Context
	recorder EventRecorder
}

// NewRegistry creates an empty registry.
func NewRegistry(provider *platform.Provider, cfg config.Settings, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		provider: provider,
		cfg:      cfg,
		log:      log,
		primary:  make(map[string]*Context),
		all:      make(map[string][]*Context),
	}
}

// SetRecorder attaches a lifecycle event recorder. Recording failures are
// logged, never propagated.
func (r *Registry) SetRecorder(rec EventRecorder) {
	r.mu.Lock()
	r.recorder = rec
	r.mu.Unlock()
}

func (r *Registry) record(kind, name string, pid int) {
	r.mu.Lock()
	rec := r.recorder
	r.mu.Unlock()
	if rec == nil {
		return
	}
	if err := rec.Record(kind, name, pid); err != nil {
		r.log.Warn("journal record failed", zap.String("kind", kind), zap.Error(err))
	}
}

// Launch starts a new OS process and registers it under logicalName as the
// primary instance. The returned context has no windows yet.
func (r *Registry) Launch(logicalName, executablePath string, args ...string) (*Context, error) {
	pid, err := r.provider.Processes.Start(executablePath, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunchFailed, executablePath, err)
	}

	ctx := NewContext(logicalName, pid, executablePath)
	r.register(ctx)

	r.log.Info("launched application",
		zap.String("name", logicalName),
		zap.String("path", executablePath),
		zap.Int("pid", pid))
	r.record("launched", logicalName, pid)
	return ctx, nil
}

// AttachNewest finds the newest running process matching imageName (largest
// PID — process IDs are assumed monotonic within a run) and registers it
// under logicalName. Zero enumerated windows is not an error: console hosts
// are driven purely through input injection and OCR.
func (r *Registry) AttachNewest(logicalName, imageName string) (*Context, error) {
	procs, err := r.provider.Processes.FindByName(imageName)
	if err != nil {
		return nil, fmt.Errorf("%w: scanning for %s: %v", ErrLaunchFailed, imageName, err)
	}
	if len(procs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoProcess, imageName)
	}

	sort.Slice(procs, func(i, j int) bool { return procs[i].PID > procs[j].PID })
	newest := procs[0]

	// Idempotent re-attach: same process under the same name reuses the
	// existing context instead of minting a duplicate.
	r.mu.Lock()
	for _, existing := range r.all[logicalName] {
		if existing.PID == newest.PID {
			r.primary[logicalName] = existing
			r.mu.Unlock()
			return existing, nil
		}
	}
	r.mu.Unlock()

	ctx := NewContext(logicalName, newest.PID, newest.Path)
	if err := ctx.RefreshWindows(r.provider.Windows); err != nil {
		r.log.Debug("window enumeration failed on attach", zap.Error(err))
	}
	if _, ok := ctx.PrimaryWindow(); !ok {
		r.log.Debug("attached process has no windows yet",
			zap.String("name", logicalName), zap.Int("pid", newest.PID))
	}
	r.register(ctx)

	r.log.Info("attached to application",
		zap.String("name", logicalName),
		zap.String("image", imageName),
		zap.Int("pid", newest.PID))
	r.record("attached", logicalName, newest.PID)
	return ctx, nil
}

func (r *Registry) register(ctx *Context) {
	r.mu.Lock()
	r.primary[ctx.LogicalName] = ctx
	r.all[ctx.LogicalName] = append(r.all[ctx.LogicalName], ctx)
	r.mu.Unlock()
}

// Primary returns the most recently launched or attached context for
// logicalName, or nil. Never triggers OS calls.
func (r *Registry) Primary(logicalName string) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.primary[logicalName]
}

// All returns every tracked context for logicalName in registration order.
func (r *Registry) All(logicalName string) []*Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]*Context, len(r.all[logicalName]))
	copy(cp, r.all[logicalName])
	return cp
}

// Names returns the logical names with at least one tracked context, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.all))
	for name := range r.all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TerminateOne attempts graceful shutdown of the primary instance under
// logicalName: first a window close request, then — for windowless targets —
// an interactive exit command through the input path. Returns false when the
// process is still running afterwards. Never panics on unknown names.
func (r *Registry) TerminateOne(logicalName string) bool {
	ctx := r.Primary(logicalName)
	if ctx == nil {
		return false
	}

	if !ctx.Active(r.provider.Processes) {
		r.remove(ctx)
		return true
	}

	if err := ctx.RefreshWindows(r.provider.Windows); err != nil {
		r.log.Debug("window enumeration failed during terminate", zap.Error(err))
	}

	if win, ok := ctx.PrimaryWindow(); ok {
		if err := r.provider.Windows.CloseWindow(win); err != nil {
			r.log.Warn("close request failed",
				zap.String("name", logicalName), zap.Error(err))
		}
	} else {
		// No window to close — console hosts exit on an interactive
		// command instead.
		if err := r.provider.Inputter.TypeText("exit", 0); err == nil {
			_ = r.provider.Inputter.KeyCombo([]string{"enter"})
		} else {
			r.log.Warn("exit command injection failed",
				zap.String("name", logicalName), zap.Error(err))
		}
	}

	deadline := time.Now().Add(r.cfg.SettleDelay * 3)
	for time.Now().Before(deadline) {
		if !ctx.Active(r.provider.Processes) {
			r.remove(ctx)
			r.record("terminated", logicalName, ctx.PID)
			return true
		}
		time.Sleep(r.cfg.PollInterval)
	}

	r.log.Warn("graceful termination failed",
		zap.String("name", logicalName), zap.Int("pid", ctx.PID))
	return false
}

// ForceTerminateOne kills the primary instance under logicalName and drops
// its context from the registry. A context must never outlive its process in
// the registry: later lookups by the same name would resolve to a dead PID.
func (r *Registry) ForceTerminateOne(logicalName string) bool {
	ctx := r.Primary(logicalName)
	if ctx == nil {
		return false
	}
	if ctx.Active(r.provider.Processes) {
		if err := r.provider.Processes.Kill(ctx.PID); err != nil {
			r.log.Warn("kill failed",
				zap.String("name", logicalName),
				zap.Int("pid", ctx.PID),
				zap.Error(err))
			return false
		}
		r.record("killed", logicalName, ctx.PID)
	}
	r.remove(ctx)
	return true
}

func (r *Registry) remove(ctx *Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.primary[ctx.LogicalName] == ctx {
		delete(r.primary, ctx.LogicalName)
	}
	list := r.all[ctx.LogicalName]
	for i, c := range list {
		if c == ctx {
			r.all[ctx.LogicalName] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(r.all[ctx.LogicalName]) == 0 {
		delete(r.all, ctx.LogicalName)
	} else if r.primary[ctx.LogicalName] == nil {
		rest := r.all[ctx.LogicalName]
		r.primary[ctx.LogicalName] = rest[len(rest)-1]
	}
}

// TerminateAll requests shutdown of every tracked process and clears the
// registry. Failures are logged and do not abort the sweep: a hung cleanup
// must not cascade into unrelated scenarios.
func (r *Registry) TerminateAll() {
	for _, ctx := range r.snapshot() {
		if !ctx.Active(r.provider.Processes) {
			continue
		}
		if err := r.provider.Processes.Terminate(ctx.PID); err != nil {
			r.log.Warn("terminate failed",
				zap.String("name", ctx.LogicalName),
				zap.Int("pid", ctx.PID),
				zap.Error(err))
			continue
		}
		r.record("terminated", ctx.LogicalName, ctx.PID)
	}
	r.clear()
}

// ForceCleanupAll kills every tracked process unconditionally and clears the
// registry. Intended for post-failure cleanup where orphaned processes would
// corrupt subsequent tests.
func (r *Registry) ForceCleanupAll() {
	for _, ctx := range r.snapshot() {
		if !ctx.Active(r.provider.Processes) {
			continue
		}
		if err := r.provider.Processes.Kill(ctx.PID); err != nil {
			r.log.Warn("kill failed",
				zap.String("name", ctx.LogicalName),
				zap.Int("pid", ctx.PID),
				zap.Error(err))
			continue
		}
		r.record("killed", ctx.LogicalName, ctx.PID)
	}
	r.clear()
}

func (r *Registry) snapshot() []*Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*Context
	for _, list := range r.all {
		all = append(all, list...)
	}
	return all
}

func (r *Registry) clear() {
	r.mu.Lock()
	r.primary = make(map[string]*Context)
	r.all = make(map[string][]*Context)
	r.mu.Unlock()
}
