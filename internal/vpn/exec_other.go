//go:build !unix

package vpn

import "errors"

var errUnsupported = errors.New("nvpn only runs on unix systems")

type ExecSpawner struct {
	LogPath string
}

func (ExecSpawner) Spawn(binary, configPath string) (int, error) {
	return 0, errUnsupported
}

type UnixSignaler struct{}

func (UnixSignaler) Terminate(pid int) error {
	return errUnsupported
}

func CheckPrivileges() error {
	return errUnsupported
}
