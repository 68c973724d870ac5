package installer

import (
	"context"
	"fmt"

	"workspace-bootstrap/internal/logger"
)

// AuthStep signs the operator into GitHub and records the account login on the session.
type AuthStep struct{}

func (AuthStep) Name() string { return "github-auth" }

func (AuthStep) Run(ctx context.Context, s *Session) Outcome {
	hint := "run `gh auth login` yourself, then re-run"

	loggedIn := ghAuthenticated(ctx, s)
	if !loggedIn {
		logger.Info("[INFO] Signing in to GitHub. A browser window will open; paste the one-time code shown below.\n")
		err := s.interactive(ctx, nil, "gh", "auth", "login", "--hostname", "github.com", "--git-protocol", "https", "--web")
		if err != nil {
			return failed(fmt.Errorf("GitHub login failed: %w", err), hint)
		}
		if !ghAuthenticated(ctx, s) {
			return failed(fmt.Errorf("gh still reports no authenticated session"), hint)
		}
	}

	// Lets plain git use the gh token for https remotes.
	if _, err := s.run(ctx, "gh", "auth", "setup-git"); err != nil {
		logger.Warn("[WARN] Could not configure git credentials: %v\n", err)
	}

	res, err := s.run(ctx, "gh", "api", "user", "--jq", ".login")
	if err != nil {
		return failed(fmt.Errorf("read GitHub account: %w", err), hint)
	}
	account := res.Output()
	if account == "" {
		return failed(fmt.Errorf("GitHub returned an empty login name"), hint)
	}
	s.Account = account

	if loggedIn {
		return satisfied("signed in as %s", account)
	}
	return changed("signed in as %s", account)
}

func ghAuthenticated(ctx context.Context, s *Session) bool {
	_, err := s.Runner.Run(ctx, "gh", []string{"auth", "status", "--hostname", "github.com"}, RunOptions{})
	return err == nil
}
