package platform

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/deskdriver/deskdriver/internal/model"
)

// Process enumeration backs application resolution on every OS: the
// accessibility layers key elements by pid, while callers speak in
// application names.

// ListProcesses returns the running processes that look like applications,
// newest pid first left to the caller to sort if needed.
func ListProcesses() ([]model.Application, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, PlatformError("enumerate processes", err)
	}

	apps := make([]model.Application, 0, len(pids))
	for _, pid := range pids {
		p, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		exe, _ := p.Exe()
		apps = append(apps, model.Application{Name: name, PID: pid, Exe: exe})
	}
	return apps, nil
}

// FindProcessByName resolves a process by name, matching the process name
// or executable basename case-insensitively, exact first and then prefix.
func FindProcessByName(name string) (int32, error) {
	if strings.TrimSpace(name) == "" {
		return 0, InvalidArgument("empty process name")
	}

	apps, err := ListProcesses()
	if err != nil {
		return 0, err
	}

	want := strings.ToLower(name)
	var prefixMatch int32
	for _, app := range apps {
		got := strings.ToLower(app.Name)
		base := strings.ToLower(strings.TrimSuffix(filepath.Base(app.Exe), ".exe"))
		if got == want || base == want || got == want+".exe" {
			return app.PID, nil
		}
		if prefixMatch == 0 && (strings.HasPrefix(got, want) || strings.HasPrefix(base, want)) {
			prefixMatch = app.PID
		}
	}
	if prefixMatch != 0 {
		return prefixMatch, nil
	}
	return 0, ElementNotFound(fmt.Sprintf("no process named %q", name))
}

// ResolvePID turns a process argument into a pid. Numeric input is taken
// as a pid and checked against the process table, anything else is looked
// up by name.
func ResolvePID(s string) (int32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, InvalidArgument("Missing process")
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		pid := int32(n)
		if !ProcessRunning(pid) {
			return 0, ElementNotFound(fmt.Sprintf("no process with pid %d", pid))
		}
		return pid, nil
	}
	return FindProcessByName(s)
}

// ProcessName resolves a pid back to its process name.
func ProcessName(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", ElementNotFound(fmt.Sprintf("no process with pid %d", pid)).WithCause(err)
	}
	name, err := p.Name()
	if err != nil {
		return "", PlatformError(fmt.Sprintf("read name of pid %d", pid), err)
	}
	return name, nil
}

// ProcessExe returns the executable path behind a pid, or "" when the
// process is gone or denies access.
func ProcessExe(pid int32) string {
	p, err := process.NewProcess(pid)
	if err != nil {
		return ""
	}
	exe, _ := p.Exe()
	return exe
}

// ProcessRunning reports whether the pid is alive.
func ProcessRunning(pid int32) bool {
	p, err := process.NewProcess(pid)
	if err != nil {
		return false
	}
	running, err := p.IsRunning()
	return err == nil && running
}
