package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"workspace-bootstrap/internal/logger"
)

// GitHubCLIStep ensures the gh command is installed.
type GitHubCLIStep struct{}

func (GitHubCLIStep) Name() string { return "gh" }

func (GitHubCLIStep) Run(ctx context.Context, s *Session) Outcome {
	if _, err := s.Runner.LookPath("gh"); err == nil {
		return satisfied("%s", ghVersion(ctx, s))
	}

	hint := "install it with `brew install gh` or from https://cli.github.com, then re-run"

	logger.Info("[INFO] Installing GitHub CLI with Homebrew...\n")
	_, brewErr := s.run(ctx, "brew", "install", "gh")
	if brewErr != nil {
		logger.Warn("[WARN] brew install gh failed: %v\n", brewErr)
		if !s.Config.GitHubCLI.ReleaseFallback {
			return failed(brewErr, hint)
		}

		binDir := s.Expand(s.Config.GitHubCLI.BinDir)
		logger.Info("[INFO] Falling back to the latest %s release...\n", s.Config.GitHubCLI.Repo)
		installed, err := s.installFromRelease(ctx, s.Config.GitHubCLI.Repo, binDir)
		if err != nil {
			return failed(fmt.Errorf("brew install gh failed (%v) and release download failed: %w", brewErr, err), hint)
		}
		s.Runner.AddPath(filepath.Dir(installed))
		if _, err := ensureProfileLine(s.ProfilePath(), pathExportLine(binDir, s.Home)); err != nil {
			logger.Warn("[WARN] Could not add %s to PATH in %s: %v\n", binDir, s.ProfilePath(), err)
		}
	}

	if _, err := s.Runner.LookPath("gh"); err != nil {
		return failed(fmt.Errorf("gh not found on PATH after installation"), hint)
	}
	return changed("installed %s", ghVersion(ctx, s))
}

// ghVersion returns the first line of `gh --version`, or "gh" when it cannot be read.
func ghVersion(ctx context.Context, s *Session) string {
	res, err := s.Runner.Run(ctx, "gh", []string{"--version"}, RunOptions{})
	if err != nil {
		return "gh"
	}
	line, _, _ := strings.Cut(res.Output(), "\n")
	if line == "" {
		return "gh"
	}
	return line
}

// pathExportLine renders a profile line prepending dir to PATH, written with
// $HOME when dir lives under home so the profile stays portable.
func pathExportLine(dir, home string) string {
	if rel, err := filepath.Rel(home, dir); err == nil && !strings.HasPrefix(rel, "..") {
		if rel == "." {
			dir = "$HOME"
		} else {
			dir = "$HOME/" + filepath.ToSlash(rel)
		}
	}
	return fmt.Sprintf(`export PATH="%s:$PATH"`, dir)
}
