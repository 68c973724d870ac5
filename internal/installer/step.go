package installer

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"
	"time"

	"workspace-bootstrap/internal/config"
	"workspace-bootstrap/internal/prompt"
)

// Status classifies how a step ended.
type Status string

const (
	// StatusSatisfied means the probe passed before anything was done.
	StatusSatisfied Status = "satisfied"
	// StatusChanged means the step installed or configured something.
	StatusChanged Status = "changed"
	// StatusSkipped means an upstream gate was not met; the run continues.
	StatusSkipped Status = "skipped"
	// StatusFailed stops the run.
	StatusFailed Status = "failed"
)

// Outcome is what every step returns instead of exiting.
type Outcome struct {
	Status Status
	Detail string
	Hint   string // Remediation shown to the operator on failure or skip
	Err    error
}

func satisfied(format string, a ...any) Outcome {
	return Outcome{Status: StatusSatisfied, Detail: fmt.Sprintf(format, a...)}
}

func changed(format string, a ...any) Outcome {
	return Outcome{Status: StatusChanged, Detail: fmt.Sprintf(format, a...)}
}

func skipped(hint, format string, a ...any) Outcome {
	return Outcome{Status: StatusSkipped, Detail: fmt.Sprintf(format, a...), Hint: hint}
}

func failed(err error, hint string) Outcome {
	return Outcome{Status: StatusFailed, Detail: err.Error(), Hint: hint, Err: err}
}

// Step is one probe → install → re-probe unit.
type Step interface {
	Name() string
	Run(ctx context.Context, s *Session) Outcome
}

// Session is the context threaded through every step of a run.
// Fields below the blank line are filled in by earlier steps and read by later ones.
type Session struct {
	Config config.Config
	Runner Runner
	Prompt prompt.Confirmer
	HTTP   *http.Client
	Home   string
	GOOS   string
	GOARCH string
	Now    func() time.Time

	BrewPrefix     string
	Account        string
	TemplateAccess bool
	RepoReady      bool
}

// NewSession builds a Session for the current machine.
func NewSession(cfg config.Config, home string, runner Runner, confirmer prompt.Confirmer) *Session {
	return &Session{
		Config: cfg,
		Runner: runner,
		Prompt: confirmer,
		HTTP:   &http.Client{Timeout: 5 * time.Minute},
		Home:   home,
		GOOS:   runtime.GOOS,
		GOARCH: runtime.GOARCH,
		Now:    time.Now,
	}
}

// Expand resolves a configured path against the session's home directory.
func (s *Session) Expand(path string) string {
	return config.ExpandHome(path, s.Home)
}

// WorkspaceDir is the absolute path of the local clone.
func (s *Session) WorkspaceDir() string {
	return s.Expand(s.Config.Workspace.Dir)
}

// LauncherPath is the absolute path of the desktop launcher.
func (s *Session) LauncherPath() string {
	return filepath.Join(s.Expand(s.Config.Launcher.Dir), s.Config.Launcher.Name+".command")
}

// RepoSlug is the personal repository in account/repo form.
func (s *Session) RepoSlug() string {
	return s.Account + "/" + s.Config.GitHub.RepoName
}

// run executes a captured command and folds its output into the error.
func (s *Session) run(ctx context.Context, name string, args ...string) (RunResult, error) {
	res, err := s.Runner.Run(ctx, name, args, RunOptions{})
	if err != nil {
		if out := res.Combined(); out != "" {
			return res, fmt.Errorf("%s %v: %w\nOutput: %s", name, args, err, out)
		}
		return res, fmt.Errorf("%s %v: %w", name, args, err)
	}
	return res, nil
}

// interactive executes a command attached to the operator's terminal.
func (s *Session) interactive(ctx context.Context, env []string, name string, args ...string) error {
	if _, err := s.Runner.Run(ctx, name, args, RunOptions{Env: env, Interactive: true}); err != nil {
		return fmt.Errorf("%s %v: %w", name, args, err)
	}
	return nil
}
