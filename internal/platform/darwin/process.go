//go:build darwin

package darwin

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dgannon/appdriver/internal/platform"
)

// DarwinProcessManager implements platform.ProcessManager for macOS.
// Launching uses os/exec; discovery shells out to ps, which avoids linking
// against libproc for a listing the OS already exposes.
type DarwinProcessManager struct{}

// NewProcessManager creates a new macOS process manager.
func NewProcessManager() *DarwinProcessManager {
	return &DarwinProcessManager{}
}

func (pm *DarwinProcessManager) Start(path string, args []string) (int, error) {
	cmd := exec.Command(path, args...)
	// New process group so signals sent to the test runner don't propagate
	// into the application under test.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %q: %w", path, err)
	}
	pid := cmd.Process.Pid
	// Reap the child in the background so a terminated process doesn't
	// linger as a zombie for the rest of the run.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}

func (pm *DarwinProcessManager) FindByName(image string) ([]platform.ProcessInfo, error) {
	out, err := exec.Command("ps", "-axo", "pid=,comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var procs []platform.ProcessInfo
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		comm := strings.TrimSpace(fields[1])
		base := filepath.Base(comm)
		if !strings.EqualFold(base, image) && !strings.EqualFold(comm, image) {
			continue
		}
		procs = append(procs, platform.ProcessInfo{PID: pid, Name: base, Path: comm})
	}
	return procs, nil
}

func (pm *DarwinProcessManager) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	// EPERM means the process exists but belongs to another user.
	return err == nil || err == syscall.EPERM
}

func (pm *DarwinProcessManager) Terminate(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("terminate pid %d: %w", pid, err)
	}
	return nil
}

func (pm *DarwinProcessManager) Kill(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}
	return nil
}
