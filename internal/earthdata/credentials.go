// Package earthdata authenticates against NASA Earthdata Login and downloads granules.
package earthdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/jdxcode/netrc"
	"golang.org/x/term"
)

var ErrNoCredentials = errors.New("no Earthdata credentials available")

type Credentials struct {
	Username string
	Password string
	Token    string
}

func (c Credentials) HasToken() bool { return c.Token != "" }

func (c Credentials) HasLogin() bool { return c.Username != "" && c.Password != "" }

// Prompter asks the user for a value. Secret values are not echoed.
type Prompter interface {
	Prompt(label string, secret bool) (string, error)
}

// ResolveCredentials looks for a token, then a username and password in the configuration,
// then the .netrc entry of the Earthdata host, then asks prompt. A nil prompt skips the last step.
func ResolveCredentials(cfg properties.EarthdataConfig, prompt Prompter) (Credentials, error) {
	if cfg.Token != "" {
		return Credentials{Token: cfg.Token}, nil
	}
	if cfg.Username != "" && cfg.Password != "" {
		return Credentials{Username: cfg.Username, Password: cfg.Password}, nil
	}

	if creds, err := FromNetrc(netrcPath(cfg.NetrcPath), cfg.Host); err == nil {
		return creds, nil
	}

	if prompt == nil {
		return Credentials{}, ErrNoCredentials
	}

	username := cfg.Username
	if username == "" {
		var err error
		username, err = prompt.Prompt(fmt.Sprintf("Earthdata username (or create an account at %s): ", cfg.Host), false)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read username: %w", err)
		}
	}
	password, err := prompt.Prompt("password: ", true)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}

	creds := Credentials{Username: strings.TrimSpace(username), Password: password}
	if !creds.HasLogin() {
		return Credentials{}, ErrNoCredentials
	}
	return creds, nil
}

// FromNetrc reads the login and password of host from a netrc file.
func FromNetrc(path, host string) (Credentials, error) {
	n, err := netrc.Parse(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	m := n.Machine(host)
	if m == nil {
		return Credentials{}, fmt.Errorf("%w: no entry for %s in %s", ErrNoCredentials, host, path)
	}
	creds := Credentials{Username: m.Get("login"), Password: m.Get("password")}
	if !creds.HasLogin() {
		return Credentials{}, fmt.Errorf("%w: incomplete entry for %s in %s", ErrNoCredentials, host, path)
	}
	return creds, nil
}

func netrcPath(configured string) string {
	if configured != "" {
		return configured
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".netrc"
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "_netrc")
	}
	return filepath.Join(home, ".netrc")
}

// TerminalPrompter reads answers from a terminal.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stdout}
}

func (p *TerminalPrompter) Prompt(label string, secret bool) (string, error) {
	fmt.Fprint(p.Out, label)
	if secret && term.IsTerminal(int(p.In.Fd())) {
		b, err := term.ReadPassword(int(p.In.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
