// Package pidfile persists the PID of the running tunnel client between
// invocations and decides whether that record is still live.
package pidfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// NotRunning is returned by Running when no live client is recorded.
const NotRunning = -1

// ErrInvalid means the file exists but does not hold a positive integer.
var ErrInvalid = errors.New("pid file does not contain a valid pid")

// ProcessFinder reports the command name of a process. found is false when
// no such process exists.
type ProcessFinder interface {
	Command(pid int) (name string, found bool, err error)
}

// PSFinder queries the process table directly.
type PSFinder struct{}

func (PSFinder) Command(pid int) (string, bool, error) {
	p, err := ps.FindProcess(pid)
	if err != nil {
		return "", false, fmt.Errorf("query process %d: %w", pid, err)
	}
	if p == nil {
		return "", false, nil
	}
	return p.Executable(), true, nil
}

// Store is the on-disk record at Path.
type Store struct {
	Path string
}

// Load returns the recorded PID. A missing file yields an error matching fs.ErrNotExist.
func (s *Store) Load() (int, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || pid <= 0 {
		return 0, ErrInvalid
	}
	return pid, nil
}

// Save overwrites the record with pid.
func (s *Store) Save(pid int) error {
	if err := os.WriteFile(s.Path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Clear removes the record. Removing an absent record is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// Running returns the recorded PID if it names a live process whose command
// contains binary. Unparsable or stale records are removed and reported as
// NotRunning.
func (s *Store) Running(finder ProcessFinder, binary string) (int, error) {
	pid, err := s.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotRunning, nil
	case errors.Is(err, ErrInvalid):
		return NotRunning, s.Clear()
	case err != nil:
		return NotRunning, fmt.Errorf("read pid file: %w", err)
	}

	name, found, err := finder.Command(pid)
	if err != nil {
		return NotRunning, err
	}
	if found && strings.Contains(name, binary) {
		return pid, nil
	}
	return NotRunning, s.Clear()
}
