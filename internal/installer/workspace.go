package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"workspace-bootstrap/internal/logger"
)

// WorkspaceStep clones the personal repository, or pulls it when the clone is
// already there. A directory in the way that tracks something else is only
// moved aside after the operator confirms.
type WorkspaceStep struct{}

func (WorkspaceStep) Name() string { return "workspace" }

func (WorkspaceStep) Run(ctx context.Context, s *Session) Outcome {
	if !s.RepoReady {
		return skipped("", "personal repository not available yet")
	}

	dir := s.WorkspaceDir()
	slug := s.RepoSlug()
	backup := ""

	if fileExists(dir) {
		url, err := originURL(ctx, s, dir)
		if err == nil && remoteMatches(url, slug) {
			if _, err := s.run(ctx, "git", "-C", dir, "pull", "--ff-only"); err != nil {
				logger.Warn("[WARN] Could not update %s: %v\n", dir, err)
				return satisfied("%s tracks %s (pull failed, local changes kept)", dir, slug)
			}
			return satisfied("%s tracks %s, pulled latest", dir, slug)
		}

		reason := "it is not a git repository"
		switch {
		case err == nil:
			reason = fmt.Sprintf("its origin is %s", url)
		case isDir(filepath.Join(dir, ".git")):
			reason = "it has no origin remote"
		}

		backup = fmt.Sprintf("%s.backup-%s", dir, s.Now().Format("20060102-150405"))
		hint := fmt.Sprintf("move %s out of the way yourself, then re-run", dir)

		question := fmt.Sprintf("%s already exists but %s, not %s. Rename it to %s and clone a fresh copy?",
			dir, reason, slug, filepath.Base(backup))
		ok, err := s.Prompt.Confirm(question)
		if err != nil {
			return failed(fmt.Errorf("could not ask before renaming %s: %w", dir, err), hint)
		}
		if !ok {
			return failed(fmt.Errorf("kept %s, which does not track %s", dir, slug), hint)
		}
		if fileExists(backup) {
			return failed(fmt.Errorf("backup path %s already exists", backup), hint)
		}
		if err := os.Rename(dir, backup); err != nil {
			return failed(fmt.Errorf("rename %s: %w", dir, err), hint)
		}
		logger.Info("[INFO] Renamed %s to %s\n", dir, backup)
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return failed(fmt.Errorf("create parent of %s: %w", dir, err), "")
	}
	hint := fmt.Sprintf("clone it yourself with `gh repo clone %s %s`, then re-run", slug, dir)
	if _, err := s.run(ctx, "gh", "repo", "clone", slug, dir); err != nil {
		return failed(fmt.Errorf("clone %s: %w", slug, err), hint)
	}
	if !isDir(filepath.Join(dir, ".git")) {
		return failed(fmt.Errorf("%s is not a git repository after cloning", dir), hint)
	}

	if backup != "" {
		return changed("cloned %s into %s (previous directory kept at %s)", slug, dir, backup)
	}
	return changed("cloned %s into %s", slug, dir)
}

// originURL returns the origin remote of the repository at dir.
func originURL(ctx context.Context, s *Session, dir string) (string, error) {
	if !isDir(filepath.Join(dir, ".git")) {
		return "", errors.New("not a git repository")
	}
	res, err := s.Runner.Run(ctx, "git", []string{"-C", dir, "remote", "get-url", "origin"}, RunOptions{})
	if err != nil {
		return "", err
	}
	if res.Output() == "" {
		return "", errors.New("empty origin url")
	}
	return res.Output(), nil
}

// remoteMatches reports whether a git remote URL points at owner/repo slug.
// https, ssh and scp-style forms are accepted, with or without ".git".
func remoteMatches(url, slug string) bool {
	norm := strings.ToLower(strings.TrimSpace(url))
	norm = strings.TrimSuffix(norm, "/")
	norm = strings.TrimSuffix(norm, ".git")
	slug = strings.ToLower(slug)
	return strings.HasSuffix(norm, "/"+slug) || strings.HasSuffix(norm, ":"+slug)
}
