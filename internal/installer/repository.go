package installer

import (
	"context"
	"fmt"
	"strings"

	"workspace-bootstrap/internal/logger"
)

// RepositoryStep creates the operator's personal repository from the template.
type RepositoryStep struct{}

func (RepositoryStep) Name() string { return "repository" }

func (RepositoryStep) Run(ctx context.Context, s *Session) Outcome {
	if !s.TemplateAccess {
		return skipped("", "waiting for access to %s", s.Config.GitHub.Template())
	}

	slug := s.RepoSlug()
	if repoExists(ctx, s, slug) {
		s.RepoReady = true
		return satisfied("%s exists", slug)
	}

	visibility := "--private"
	if !s.Config.GitHub.Private {
		visibility = "--public"
	}
	logger.Info("[INFO] Creating %s from %s\n", slug, s.Config.GitHub.Template())
	hint := fmt.Sprintf("create %s from the template at https://github.com/%s, then re-run", slug, s.Config.GitHub.Template())

	if _, err := s.run(ctx, "gh", "repo", "create", slug, "--template", s.Config.GitHub.Template(), visibility); err != nil {
		return failed(fmt.Errorf("create %s: %w", slug, err), hint)
	}
	if !repoExists(ctx, s, slug) {
		return failed(fmt.Errorf("%s not visible after creation", slug), hint)
	}

	s.RepoReady = true
	return changed("created %s from %s", slug, s.Config.GitHub.Template())
}

func repoExists(ctx context.Context, s *Session, slug string) bool {
	res, err := s.Runner.Run(ctx, "gh", []string{"repo", "view", slug, "--json", "name", "--jq", ".name"}, RunOptions{})
	if err != nil {
		return false
	}
	_, name, _ := strings.Cut(slug, "/")
	return strings.EqualFold(res.Output(), name)
}
