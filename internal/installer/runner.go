package installer

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"workspace-bootstrap/internal/logger"
)

// RunOptions tunes a single command invocation.
// Interactive commands are attached to the operator's terminal (sudo prompts,
// browser login codes) and their output is not captured.
type RunOptions struct {
	Dir         string
	Env         []string
	Interactive bool
}

// RunResult holds captured output of a non-interactive command.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// Output returns trimmed stdout.
func (r RunResult) Output() string {
	return strings.TrimSpace(string(r.Stdout))
}

// Combined returns trimmed stdout and stderr, for error messages.
func (r RunResult) Combined() string {
	return strings.TrimSpace(string(r.Stdout) + string(r.Stderr))
}

// Runner is the capability every step shells out through. Tests replace it.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts RunOptions) (RunResult, error)
	LookPath(name string) (string, error)
	// AddPath prepends dir to the search path used by LookPath and by child processes.
	AddPath(dir string)
}

// ExecRunner runs real processes.
type ExecRunner struct {
	extra []string
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) AddPath(dir string) {
	for _, d := range r.extra {
		if d == dir {
			return
		}
	}
	r.extra = append([]string{dir}, r.extra...)
	logger.Debug("[DEBUG] Search path now starts with %s\n", strings.Join(r.extra, ":"))
}

func (r *ExecRunner) pathEnv() string {
	parts := append([]string{}, r.extra...)
	if p := os.Getenv("PATH"); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	if strings.ContainsRune(name, '/') {
		return exec.LookPath(name)
	}
	for _, dir := range r.extra {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode().Perm()&0111 != 0 {
			return candidate, nil
		}
	}
	return exec.LookPath(name)
}

func (r *ExecRunner) Run(ctx context.Context, name string, args []string, opts RunOptions) (RunResult, error) {
	if path, err := r.LookPath(name); err == nil {
		name = path
	}
	cmd := exec.CommandContext(ctx, name, args...)
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	cmd.Env = append(os.Environ(), "PATH="+r.pathEnv())
	cmd.Env = append(cmd.Env, opts.Env...)

	if opts.Interactive {
		cmd.Stdin = os.Stdin
		if tty, err := os.Open("/dev/tty"); err == nil {
			// Piped from curl: stdin is the script, the operator is on the tty.
			defer tty.Close()
			cmd.Stdin = tty
		}
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return RunResult{}, cmd.Run()
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = io.Writer(&stdoutBuf)
	cmd.Stderr = io.Writer(&stderrBuf)

	err := cmd.Run()
	return RunResult{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}, err
}

var _ Runner = (*ExecRunner)(nil)
