package installer

import (
	"context"
	"fmt"
	"path/filepath"
)

// HomebrewStep ensures Homebrew is installed and loaded by the login shell.
type HomebrewStep struct{}

func (HomebrewStep) Name() string { return "homebrew" }

func (HomebrewStep) Run(ctx context.Context, s *Session) Outcome {
	hint := "see https://brew.sh for manual installation, then re-run"

	brew, found := findBrew(s)
	installed := false
	if !found {
		if err := s.runRemoteScript(ctx, s.Config.Installers.HomebrewScript, "NONINTERACTIVE=1"); err != nil {
			return failed(fmt.Errorf("homebrew installer failed: %w", err), hint)
		}
		if brew, found = findBrew(s); !found {
			return failed(fmt.Errorf("brew not found in %s after installation", s.BrewPrefix), hint)
		}
		installed = true
	}

	// Later steps of this run (brew install gh) need brew on the search path.
	s.Runner.AddPath(filepath.Dir(brew))

	hookLine := fmt.Sprintf(`eval "$(%s shellenv)"`, brew)
	added, err := ensureProfileLine(s.ProfilePath(), hookLine)
	if err != nil {
		return failed(fmt.Errorf("add Homebrew to shell profile: %w", err),
			fmt.Sprintf("add `%s` to %s by hand", hookLine, s.ProfilePath()))
	}

	switch {
	case installed:
		return changed("installed Homebrew at %s", brew)
	case added:
		return changed("Homebrew at %s, shell hook added to %s", brew, s.ProfilePath())
	default:
		return satisfied("Homebrew at %s", brew)
	}
}

// findBrew prefers the architecture's prefix, where a fresh install lands
// before any shell has loaded it, and falls back to the search path for
// installations elsewhere.
func findBrew(s *Session) (string, bool) {
	if s.BrewPrefix != "" {
		candidate := filepath.Join(s.BrewPrefix, "bin", "brew")
		if fileExists(candidate) {
			return candidate, true
		}
	}
	if path, err := s.Runner.LookPath("brew"); err == nil {
		return path, true
	}
	return "", false
}
