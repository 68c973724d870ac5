package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"workspace-bootstrap/internal/config"
)

var errExit = errors.New("exit status 1")

type call struct {
	key  string
	opts RunOptions
}

type handler struct {
	prefix string
	fn     func(args []string) (RunResult, error)
}

// fakeRunner answers commands from registered handlers; anything unregistered
// fails like a missing or erroring command would.
type fakeRunner struct {
	onPath   map[string]bool
	added    []string
	calls    []call
	handlers []handler
}

func newFakeRunner(onPath ...string) *fakeRunner {
	r := &fakeRunner{onPath: map[string]bool{}}
	for _, name := range onPath {
		r.onPath[name] = true
	}
	return r
}

// on registers fn for commands whose "name args..." line equals prefix or starts with prefix + " ".
// Later registrations win.
func (r *fakeRunner) on(prefix string, fn func(args []string) (RunResult, error)) {
	r.handlers = append(r.handlers, handler{prefix: prefix, fn: fn})
}

func (r *fakeRunner) ok(prefix, stdout string) {
	r.on(prefix, func([]string) (RunResult, error) { return RunResult{Stdout: []byte(stdout)}, nil })
}

func (r *fakeRunner) fail(prefix string) {
	r.on(prefix, func([]string) (RunResult, error) { return RunResult{Stderr: []byte("boom")}, errExit })
}

func (r *fakeRunner) install(name string) { r.onPath[name] = true }

func (r *fakeRunner) Run(ctx context.Context, name string, args []string, opts RunOptions) (RunResult, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, call{key: key, opts: opts})
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}
	for i := len(r.handlers) - 1; i >= 0; i-- {
		h := r.handlers[i]
		if key == h.prefix || strings.HasPrefix(key, h.prefix+" ") {
			return h.fn(args)
		}
	}
	return RunResult{Stderr: []byte("unexpected command")}, fmt.Errorf("unexpected command: %s", key)
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	if r.onPath[name] {
		return "/usr/local/bin/" + name, nil
	}
	for _, dir := range r.added {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().Perm()&0111 != 0 {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func (r *fakeRunner) AddPath(dir string) { r.added = append(r.added, dir) }

// ran reports whether any recorded command line starts with prefix.
func (r *fakeRunner) ran(prefix string) bool {
	for _, c := range r.calls {
		if c.key == prefix || strings.HasPrefix(c.key, prefix+" ") {
			return true
		}
	}
	return false
}

func (r *fakeRunner) commands() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.key)
	}
	return out
}

type fakePrompt struct {
	answers []bool
	err     error
	asked   []string
}

func (p *fakePrompt) Confirm(question string) (bool, error) {
	p.asked = append(p.asked, question)
	if p.err != nil {
		return false, p.err
	}
	if len(p.answers) == 0 {
		return false, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

// newTestSession returns a darwin/arm64 session with a temp home directory.
func newTestSession(t *testing.T, r Runner, p *fakePrompt) *Session {
	t.Helper()
	home := t.TempDir()

	cfg := config.Default()
	cfg.Shell = "zsh"
	cfg.Xcode.PollInterval = config.Duration(time.Millisecond)
	cfg.Xcode.WaitTimeout = config.Duration(30 * time.Millisecond)

	if p == nil {
		p = &fakePrompt{}
	}
	s := NewSession(cfg, home, r, p)
	s.GOOS = "darwin"
	s.GOARCH = "arm64"
	s.BrewPrefix = filepath.Join(home, "homebrew")
	s.Now = func() time.Time { return testNow }
	return s
}

// installerServer serves installer scripts and answers connectivity probes.
func installerServer(t *testing.T, s *Session) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/brew/install.sh", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "# homebrew installer")
	})
	mux.HandleFunc("/claude/install.sh", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "# claude installer")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s.HTTP = srv.Client()
	s.Config.Installers.HomebrewScript = srv.URL + "/brew/install.sh"
	s.Config.Installers.ClaudeScript = srv.URL + "/claude/install.sh"
	s.Config.Installers.Connectivity = srv.URL
	s.Config.Installers.GitHubAPI = srv.URL
	return srv
}

// fakeMac wires a fakeRunner to behave like a Mac whose state is held in its fields.
type fakeMac struct {
	xcode, loggedIn, templateAccess, repoCreated bool
	account                                      string
	runner                                       *fakeRunner
}

func newFakeMac(t *testing.T) *fakeMac {
	t.Helper()
	m := &fakeMac{account: "octocat", templateAccess: true, runner: newFakeRunner()}
	r := m.runner

	r.on("xcode-select -p", func([]string) (RunResult, error) {
		if m.xcode {
			return RunResult{Stdout: []byte("/Library/Developer/CommandLineTools\n")}, nil
		}
		return RunResult{Stderr: []byte("xcode-select: error: unable to get active developer directory")}, errExit
	})
	r.on("xcode-select --install", func([]string) (RunResult, error) {
		m.xcode = true
		return RunResult{}, nil
	})
	r.on("/bin/bash", func(args []string) (RunResult, error) {
		raw, err := os.ReadFile(args[0])
		require.NoError(t, err)
		switch {
		case strings.Contains(string(raw), "homebrew"):
			r.install("brew")
		case strings.Contains(string(raw), "claude"):
			r.install("claude")
		default:
			t.Fatalf("unexpected script %q", raw)
		}
		return RunResult{}, nil
	})
	r.on("brew install gh", func([]string) (RunResult, error) {
		r.install("gh")
		return RunResult{}, nil
	})
	r.ok("gh --version", "gh version 2.63.0 (2024-11-27)\nhttps://github.com/cli/cli/releases/tag/v2.63.0\n")
	r.on("gh auth status", func([]string) (RunResult, error) {
		if m.loggedIn {
			return RunResult{}, nil
		}
		return RunResult{Stderr: []byte("You are not logged into any GitHub hosts")}, errExit
	})
	r.on("gh auth login", func([]string) (RunResult, error) {
		m.loggedIn = true
		return RunResult{}, nil
	})
	r.ok("gh auth setup-git", "")
	r.on("gh api user --jq .login", func([]string) (RunResult, error) {
		return RunResult{Stdout: []byte(m.account + "\n")}, nil
	})
	r.on("gh api repos/claude-workspaces/workspace-template --silent", func([]string) (RunResult, error) {
		if m.templateAccess {
			return RunResult{}, nil
		}
		return RunResult{Stderr: []byte("HTTP 404: Not Found")}, errExit
	})
	r.ok("gh api user/repository_invitations", "[]")
	r.on("gh repo view octocat/claude-workspace", func([]string) (RunResult, error) {
		if m.repoCreated {
			return RunResult{Stdout: []byte("claude-workspace\n")}, nil
		}
		return RunResult{Stderr: []byte("GraphQL: Could not resolve to a Repository")}, errExit
	})
	r.on("gh repo create octocat/claude-workspace", func([]string) (RunResult, error) {
		m.repoCreated = true
		return RunResult{}, nil
	})
	r.on("gh repo clone octocat/claude-workspace", func(args []string) (RunResult, error) {
		require.NoError(t, os.MkdirAll(filepath.Join(args[3], ".git"), 0o755))
		return RunResult{}, nil
	})
	r.on("git", func(args []string) (RunResult, error) {
		switch strings.Join(args[2:], " ") {
		case "remote get-url origin":
			return RunResult{Stdout: []byte("https://github.com/octocat/claude-workspace.git\n")}, nil
		case "pull --ff-only":
			return RunResult{Stdout: []byte("Already up to date.\n")}, nil
		}
		return RunResult{}, errExit
	})
	r.ok("claude --version", "2.0.14 (Claude Code)\n")
	return m
}

// installedCommands are the command prefixes that change the machine.
var installedCommands = []string{
	"xcode-select --install",
	"/bin/bash",
	"brew install",
	"gh auth login",
	"gh repo create",
	"gh repo clone",
}
