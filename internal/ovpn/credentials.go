package ovpn

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CredentialsMode is owner read-only; openvpn runs as root and only needs to read it.
const CredentialsMode fs.FileMode = 0400

// WriteCredentials stores username and password as the two-line file
// referenced by auth-user-pass, replacing any previous one.
func WriteCredentials(path, username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password must not be empty")
	}
	if strings.ContainsAny(username, "\r\n") || strings.ContainsAny(password, "\r\n") {
		return errors.New("username and password must be single lines")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	// The old file is read-only; replace it rather than opening it for writing.
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replace credentials: %w", err)
	}
	if err := os.WriteFile(path, []byte(username+"\n"+password+"\n"), CredentialsMode); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return os.Chmod(path, CredentialsMode)
}
