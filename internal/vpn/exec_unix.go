//go:build unix

package vpn

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExecSpawner starts the client in its own session so it outlives nvpn and
// never receives the terminal's signals. Its output is appended to LogPath,
// or discarded when LogPath is empty.
type ExecSpawner struct {
	LogPath string
}

func (s ExecSpawner) Spawn(binary, configPath string) (int, error) {
	cmd := exec.Command(binary, "--config", configPath)
	cmd.Dir = filepath.Dir(configPath)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if s.LogPath != "" {
		logFile, err := os.OpenFile(s.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return 0, err
		}
		defer logFile.Close()
		cmd.Stdout, cmd.Stderr = logFile, logFile
	}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Fire and forget: the client owns the tunnel from here on.
	_ = cmd.Process.Release()
	return pid, nil
}

// UnixSignaler delivers SIGTERM.
type UnixSignaler struct{}

func (UnixSignaler) Terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

// CheckPrivileges fails unless both the real and effective user are root.
func CheckPrivileges() error {
	if unix.Getuid() != 0 || unix.Geteuid() != 0 {
		return ErrNotRoot
	}
	return nil
}
