package vpn

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// TerminalPrompter reads the username with line editing and the password
// without echo, both through one readline instance. When stdin is not a
// terminal it reads two plain lines instead, so credentials can be piped in.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

func (p *TerminalPrompter) Credentials() (string, string, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return readCredentials(p.in)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt: "Username: ",
		Stdin:  p.in,
		Stdout: p.out,
	})
	if err != nil {
		return "", "", err
	}
	defer rl.Close()

	user, err := rl.Readline()
	if err != nil {
		return "", "", err
	}
	pass, err := rl.ReadPassword("Password: ")
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(user), string(pass), nil
}

func readCredentials(r io.Reader) (string, string, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for len(lines) < 2 && sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return "", "", err
	}
	if len(lines) < 2 {
		return "", "", errors.New("expected username and password on two lines")
	}
	return strings.TrimSpace(lines[0]), lines[1], nil
}
