package installer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workspace-bootstrap/internal/config"
)

func TestXcode_AlreadyInstalled(t *testing.T) {
	mac := newFakeMac(t)
	mac.xcode = true
	s := newTestSession(t, mac.runner, nil)

	out := XcodeStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusSatisfied, out.Status)
	assert.Contains(t, out.Detail, "/Library/Developer/CommandLineTools")
	assert.False(t, mac.runner.ran("xcode-select --install"))
}

func TestXcode_InstallAlreadyUnderway(t *testing.T) {
	mac := newFakeMac(t)
	polls := 0
	mac.runner.fail("xcode-select --install")
	mac.runner.on("xcode-select -p", func([]string) (RunResult, error) {
		polls++
		if polls < 3 {
			return RunResult{}, errExit
		}
		return RunResult{Stdout: []byte("/Library/Developer/CommandLineTools\n")}, nil
	})
	s := newTestSession(t, mac.runner, nil)
	s.Config.Xcode.WaitTimeout = s.Config.Xcode.WaitTimeout * 100

	out := XcodeStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusChanged, out.Status, out.Detail)
	assert.GreaterOrEqual(t, polls, 3)
}

func TestXcode_InterruptedWhileWaiting(t *testing.T) {
	mac := newFakeMac(t)
	mac.runner.ok("xcode-select --install", "")
	s := newTestSession(t, mac.runner, nil)
	s.Config.Xcode.WaitTimeout = config.Duration(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(20*time.Millisecond, cancel)
	defer timer.Stop()

	out := XcodeStep{}.Run(ctx, s)

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.NotContains(t, out.Detail, "after waiting")
}

func TestHomebrew_FoundInPrefix(t *testing.T) {
	r := newFakeRunner()
	s := newTestSession(t, r, nil)
	brew := filepath.Join(s.BrewPrefix, "bin", "brew")
	require.NoError(t, os.MkdirAll(filepath.Dir(brew), 0o755))
	require.NoError(t, os.WriteFile(brew, []byte("#!/bin/sh\n"), 0o755))

	out := HomebrewStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusChanged, out.Status)
	assert.Contains(t, out.Detail, "shell hook added")
	assert.Contains(t, r.added, filepath.Dir(brew))

	profile, err := os.ReadFile(filepath.Join(s.Home, ".zprofile"))
	require.NoError(t, err)
	assert.Equal(t, "eval \"$("+brew+" shellenv)\"\n", string(profile))

	again := HomebrewStep{}.Run(context.Background(), s)
	assert.Equal(t, StatusSatisfied, again.Status)
	assert.False(t, r.ran("/bin/bash"))
}

func TestHomebrew_PrefixWinsOverSearchPath(t *testing.T) {
	r := newFakeRunner("brew")
	s := newTestSession(t, r, nil)
	brew := filepath.Join(s.BrewPrefix, "bin", "brew")
	require.NoError(t, os.MkdirAll(filepath.Dir(brew), 0o755))
	require.NoError(t, os.WriteFile(brew, []byte("#!/bin/sh\n"), 0o755))

	out := HomebrewStep{}.Run(context.Background(), s)
	require.Equal(t, StatusChanged, out.Status, out.Detail)

	profile, err := os.ReadFile(filepath.Join(s.Home, ".zprofile"))
	require.NoError(t, err)
	assert.Equal(t, "eval \"$("+brew+" shellenv)\"\n", string(profile))
	assert.NotContains(t, string(profile), "/usr/local/bin/brew")
}

func TestHomebrew_SearchPathWhenPrefixHasNoBrew(t *testing.T) {
	r := newFakeRunner("brew")
	s := newTestSession(t, r, nil)

	out := HomebrewStep{}.Run(context.Background(), s)
	require.Equal(t, StatusChanged, out.Status, out.Detail)

	profile, err := os.ReadFile(filepath.Join(s.Home, ".zprofile"))
	require.NoError(t, err)
	assert.Equal(t, "eval \"$(/usr/local/bin/brew shellenv)\"\n", string(profile))
	assert.Contains(t, r.added, "/usr/local/bin")
}

func TestHomebrew_InstallerFails(t *testing.T) {
	r := newFakeRunner()
	r.fail("/bin/bash")
	s := newTestSession(t, r, nil)
	installerServer(t, s)

	out := HomebrewStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Hint, "brew.sh")
	require.Len(t, r.calls, 1)
	assert.True(t, r.calls[0].opts.Interactive)
	assert.Equal(t, []string{"NONINTERACTIVE=1"}, r.calls[0].opts.Env)
}

func TestHomebrew_ScriptUnavailable(t *testing.T) {
	r := newFakeRunner()
	s := newTestSession(t, r, nil)
	installerServer(t, s)
	gone := httptest.NewServer(http.NotFoundHandler())
	s.Config.Installers.HomebrewScript = gone.URL + "/install.sh"
	gone.Close()

	out := HomebrewStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusFailed, out.Status)
	assert.False(t, r.ran("/bin/bash"))
}

func TestGitHubCLI_ViaHomebrew(t *testing.T) {
	mac := newFakeMac(t)
	s := newTestSession(t, mac.runner, nil)

	out := GitHubCLIStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusChanged, out.Status)
	assert.Equal(t, "installed gh version 2.63.0 (2024-11-27)", out.Detail)

	again := GitHubCLIStep{}.Run(context.Background(), s)
	assert.Equal(t, StatusSatisfied, again.Status)
}

func TestGitHubCLI_BrewFailsWithoutFallback(t *testing.T) {
	mac := newFakeMac(t)
	mac.runner.fail("brew install gh")
	s := newTestSession(t, mac.runner, nil)
	s.Config.GitHubCLI.ReleaseFallback = false

	out := GitHubCLIStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Hint, "cli.github.com")
}

func TestAuth_LoginFlow(t *testing.T) {
	mac := newFakeMac(t)
	s := newTestSession(t, mac.runner, nil)

	out := AuthStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusChanged, out.Status)
	assert.Equal(t, "octocat", s.Account)
	assert.True(t, mac.runner.ran("gh auth login --hostname github.com --git-protocol https --web"))
	assert.True(t, mac.runner.ran("gh auth setup-git"))

	for _, c := range mac.runner.calls {
		if c.key == "gh auth login --hostname github.com --git-protocol https --web" {
			assert.True(t, c.opts.Interactive)
		}
	}
}

func TestAuth_AlreadySignedIn(t *testing.T) {
	mac := newFakeMac(t)
	mac.loggedIn = true
	s := newTestSession(t, mac.runner, nil)

	out := AuthStep{}.Run(context.Background(), s)

	assert.Equal(t, StatusSatisfied, out.Status)
	assert.Equal(t, "signed in as octocat", out.Detail)
	assert.False(t, mac.runner.ran("gh auth login"))
}

func TestAuth_Failures(t *testing.T) {
	t.Run("login aborted", func(t *testing.T) {
		mac := newFakeMac(t)
		mac.runner.fail("gh auth login")
		s := newTestSession(t, mac.runner, nil)

		out := AuthStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusFailed, out.Status)
		assert.Empty(t, s.Account)
	})

	t.Run("empty login", func(t *testing.T) {
		mac := newFakeMac(t)
		mac.loggedIn = true
		mac.account = ""
		s := newTestSession(t, mac.runner, nil)

		out := AuthStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusFailed, out.Status)
		assert.Contains(t, out.Detail, "empty login")
	})

	t.Run("setup-git failure is tolerated", func(t *testing.T) {
		mac := newFakeMac(t)
		mac.loggedIn = true
		mac.runner.fail("gh auth setup-git")
		s := newTestSession(t, mac.runner, nil)

		out := AuthStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusSatisfied, out.Status)
	})
}

func TestTemplateAccess(t *testing.T) {
	t.Run("readable", func(t *testing.T) {
		mac := newFakeMac(t)
		s := newTestSession(t, mac.runner, nil)
		s.Account = "octocat"

		out := TemplateAccessStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusSatisfied, out.Status)
		assert.True(t, s.TemplateAccess)
	})

	t.Run("no account", func(t *testing.T) {
		r := newFakeRunner()
		s := newTestSession(t, r, nil)

		out := TemplateAccessStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusSkipped, out.Status)
		assert.Empty(t, r.calls)
	})

	t.Run("pending invitation accepted", func(t *testing.T) {
		mac := newFakeMac(t)
		mac.templateAccess = false
		mac.runner.ok("gh api user/repository_invitations",
			`[{"id":7,"repository":{"full_name":"other/repo"}},{"id":42,"repository":{"full_name":"Claude-Workspaces/Workspace-Template"}}]`)
		mac.runner.on("gh api --method PATCH user/repository_invitations/42", func([]string) (RunResult, error) {
			mac.templateAccess = true
			return RunResult{}, nil
		})
		s := newTestSession(t, mac.runner, nil)
		s.Account = "octocat"

		out := TemplateAccessStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusChanged, out.Status)
		assert.True(t, s.TemplateAccess)
		assert.False(t, mac.runner.ran("gh api --method PATCH user/repository_invitations/7"))
	})

	t.Run("invitation list unreadable", func(t *testing.T) {
		mac := newFakeMac(t)
		mac.templateAccess = false
		mac.runner.ok("gh api user/repository_invitations", "not json")
		s := newTestSession(t, mac.runner, nil)
		s.Account = "octocat"

		out := TemplateAccessStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusSkipped, out.Status)
		assert.False(t, s.TemplateAccess)
	})
}

func TestRepository(t *testing.T) {
	t.Run("skipped without template access", func(t *testing.T) {
		r := newFakeRunner()
		s := newTestSession(t, r, nil)

		out := RepositoryStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusSkipped, out.Status)
		assert.False(t, s.RepoReady)
		assert.Empty(t, r.calls)
	})

	t.Run("exists", func(t *testing.T) {
		mac := newFakeMac(t)
		mac.repoCreated = true
		s := newTestSession(t, mac.runner, nil)
		s.Account, s.TemplateAccess = "octocat", true

		out := RepositoryStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusSatisfied, out.Status)
		assert.True(t, s.RepoReady)
		assert.False(t, mac.runner.ran("gh repo create"))
	})

	t.Run("created public", func(t *testing.T) {
		mac := newFakeMac(t)
		s := newTestSession(t, mac.runner, nil)
		s.Account, s.TemplateAccess = "octocat", true
		s.Config.GitHub.Private = false

		out := RepositoryStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusChanged, out.Status)
		assert.True(t, s.RepoReady)
		assert.True(t, mac.runner.ran("gh repo create octocat/claude-workspace --template claude-workspaces/workspace-template --public"))
	})

	t.Run("create fails", func(t *testing.T) {
		mac := newFakeMac(t)
		mac.runner.fail("gh repo create")
		s := newTestSession(t, mac.runner, nil)
		s.Account, s.TemplateAccess = "octocat", true

		out := RepositoryStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusFailed, out.Status)
		assert.False(t, s.RepoReady)
		assert.Contains(t, out.Hint, "https://github.com/claude-workspaces/workspace-template")
	})
}

func TestClaude(t *testing.T) {
	t.Run("installed into local bin", func(t *testing.T) {
		r := newFakeRunner()
		r.ok("claude --version", "2.0.14 (Claude Code)\n")
		binDir := ""
		r.on("/bin/bash", func([]string) (RunResult, error) {
			// The installer drops its launcher without touching PATH.
			binDir = r.added[0]
			require.NoError(t, os.MkdirAll(binDir, 0o755))
			return RunResult{}, os.WriteFile(filepath.Join(binDir, "claude"), []byte("#!/bin/sh\n"), 0o755)
		})
		s := newTestSession(t, r, nil)
		installerServer(t, s)

		out := ClaudeStep{}.Run(context.Background(), s)

		require.Equal(t, StatusChanged, out.Status, out.Detail)
		assert.Equal(t, "installed claude 2.0.14 (Claude Code)", out.Detail)
		assert.Equal(t, filepath.Join(s.Home, ".local", "bin"), binDir)

		profile, err := os.ReadFile(filepath.Join(s.Home, ".zprofile"))
		require.NoError(t, err)
		assert.Equal(t, "export PATH=\"$HOME/.local/bin:$PATH\"\n", string(profile))
	})

	t.Run("present", func(t *testing.T) {
		mac := newFakeMac(t)
		mac.runner.install("claude")
		s := newTestSession(t, mac.runner, nil)
		require.NoError(t, os.WriteFile(filepath.Join(s.Home, ".zprofile"),
			[]byte("export PATH=\"$HOME/.local/bin:$PATH\"\n"), 0o644))

		out := ClaudeStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusSatisfied, out.Status)
		assert.False(t, mac.runner.ran("/bin/bash"))
	})

	t.Run("installer leaves nothing behind", func(t *testing.T) {
		r := newFakeRunner()
		r.ok("/bin/bash", "")
		s := newTestSession(t, r, nil)
		installerServer(t, s)

		out := ClaudeStep{}.Run(context.Background(), s)
		assert.Equal(t, StatusFailed, out.Status)
		assert.Contains(t, out.Hint, "claude.ai/install.sh")
	})
}

func TestPathExportLine(t *testing.T) {
	home := "/Users/ana"
	assert.Equal(t, `export PATH="$HOME/.local/bin:$PATH"`, pathExportLine("/Users/ana/.local/bin", home))
	assert.Equal(t, `export PATH="$HOME:$PATH"`, pathExportLine(home, home))
	assert.Equal(t, `export PATH="/opt/tools/bin:$PATH"`, pathExportLine("/opt/tools/bin", home))
}
