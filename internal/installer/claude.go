package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"workspace-bootstrap/internal/logger"
)

// claudeBinDir is where the Claude Code installer puts its launcher, relative to home.
const claudeBinDir = ".local/bin"

// ClaudeStep ensures the Claude Code CLI is installed and on the login PATH.
type ClaudeStep struct{}

func (ClaudeStep) Name() string { return "claude" }

func (ClaudeStep) Run(ctx context.Context, s *Session) Outcome {
	binDir := filepath.Join(s.Home, claudeBinDir)
	s.Runner.AddPath(binDir)

	hint := "install it with `curl -fsSL https://claude.ai/install.sh | bash`, then re-run"

	_, err := s.Runner.LookPath("claude")
	installed := false
	if err != nil {
		logger.Info("[INFO] Installing Claude Code...\n")
		if err := s.runRemoteScript(ctx, s.Config.Installers.ClaudeScript); err != nil {
			return failed(fmt.Errorf("claude installer failed: %w", err), hint)
		}
		if _, err := s.Runner.LookPath("claude"); err != nil {
			return failed(fmt.Errorf("claude not found after installation"), hint)
		}
		installed = true
	}

	line := pathExportLine(binDir, s.Home)
	added, err := ensureProfileLine(s.ProfilePath(), line)
	if err != nil {
		return failed(fmt.Errorf("add %s to PATH: %w", binDir, err),
			fmt.Sprintf("add `%s` to %s by hand", line, s.ProfilePath()))
	}

	version := claudeVersion(ctx, s)
	switch {
	case installed:
		return changed("installed %s", version)
	case added:
		return changed("%s, PATH line added to %s", version, s.ProfilePath())
	default:
		return satisfied("%s", version)
	}
}

func claudeVersion(ctx context.Context, s *Session) string {
	res, err := s.Runner.Run(ctx, "claude", []string{"--version"}, RunOptions{})
	if err != nil || res.Output() == "" {
		return "claude"
	}
	line, _, _ := strings.Cut(res.Output(), "\n")
	return "claude " + strings.TrimPrefix(line, "claude ")
}
