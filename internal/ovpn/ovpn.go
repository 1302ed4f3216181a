// Package ovpn reads and rewrites OpenVPN client configuration files.
//
// A file is kept as the exact sequence of its lines so that serialising an
// unmodified File reproduces the input byte for byte. Lines inside inline
// blocks (<ca> ... </ca>) are payload and are never treated as directives.
package ovpn

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// AuthUserPass is the directive naming the credentials file.
const AuthUserPass = "auth-user-pass"

// Line is one physical line without its terminating newline.
type Line struct {
	Text    string
	InBlock bool
}

// Directive splits a line into its name and arguments. Comments, blank lines
// and inline block payload have no name.
func (l Line) Directive() (string, []string) {
	if l.InBlock {
		return "", nil
	}
	fields := strings.Fields(l.Text)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") || strings.HasPrefix(fields[0], ";") {
		return "", nil
	}
	return fields[0], fields[1:]
}

// File is a parsed configuration.
type File struct {
	Lines           []Line
	TrailingNewline bool
}

// Parse reads a configuration from r.
func Parse(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f := &File{}
	if len(data) == 0 {
		return f, nil
	}
	f.TrailingNewline = bytes.HasSuffix(data, []byte("\n"))

	raw := strings.Split(string(data), "\n")
	if f.TrailingNewline {
		raw = raw[:len(raw)-1]
	}
	block := ""
	for _, text := range raw {
		trimmed := strings.TrimSpace(text)
		switch {
		case block == "" && isOpenTag(trimmed):
			block = strings.Trim(trimmed, "<>")
			f.Lines = append(f.Lines, Line{Text: text})
		case block != "" && trimmed == "</"+block+">":
			block = ""
			f.Lines = append(f.Lines, Line{Text: text})
		default:
			f.Lines = append(f.Lines, Line{Text: text, InBlock: block != ""})
		}
	}
	if block != "" {
		return nil, fmt.Errorf("unterminated <%s> block", block)
	}
	return f, nil
}

func isOpenTag(s string) bool {
	return len(s) > 2 && s[0] == '<' && s[1] != '/' && s[len(s)-1] == '>' && !strings.ContainsAny(s[1:len(s)-1], " <>")
}

// WriteTo serialises the file.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for i, l := range f.Lines {
		buf.WriteString(l.Text)
		if i < len(f.Lines)-1 || f.TrailingNewline {
			buf.WriteByte('\n')
		}
	}
	return buf.WriteTo(w)
}

// SetAuthUserPass points every bare auth-user-pass directive at path. A
// directive that already names a file is left as is. It reports whether
// anything changed.
func (f *File) SetAuthUserPass(path string) bool {
	changed := false
	for i, l := range f.Lines {
		name, args := l.Directive()
		if name != AuthUserPass || len(args) != 0 {
			continue
		}
		text := AuthUserPass + " " + path
		if strings.HasSuffix(l.Text, "\r") {
			text += "\r"
		}
		f.Lines[i].Text = text
		changed = true
	}
	return changed
}

// Remote returns the host and port of the first remote directive.
func (f *File) Remote() (host, port string, ok bool) {
	for _, l := range f.Lines {
		name, args := l.Directive()
		if name != "remote" || len(args) == 0 {
			continue
		}
		host = args[0]
		if len(args) > 1 {
			port = args[1]
		}
		return host, port, true
	}
	return "", "", false
}

// ConfigPath is where the bundle keeps the configuration for server over proto:
// <root>/ovpn_<proto>/<server>.nordvpn.com.<proto>.ovpn
func ConfigPath(root, server, proto string) string {
	return filepath.Join(root, "ovpn_"+proto, fmt.Sprintf("%s.nordvpn.com.%s.ovpn", server, proto))
}

// Load parses the file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

// PatchAuthFile rewrites the configuration at path so that its
// auth-user-pass directive names credentials, and returns the patched file.
// The file is replaced atomically and keeps its mode; an already patched
// file is not touched.
func PatchAuthFile(path, credentials string) (*File, error) {
	f, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if !f.SetAuthUserPass(credentials) {
		return f, nil
	}
	if err := replace(path, f); err != nil {
		return nil, fmt.Errorf("patch %s: %w", path, err)
	}
	return f, nil
}

func replace(path string, f *File) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".nvpn-*.ovpn")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
