package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"workspace-bootstrap/internal/logger"
)

// TemplateAccessStep checks that the signed-in account can read the template
// repository, accepting a pending invitation when there is one. Lack of access
// is not fatal: the repository and workspace steps are skipped instead.
type TemplateAccessStep struct{}

func (TemplateAccessStep) Name() string { return "template-access" }

func (TemplateAccessStep) Run(ctx context.Context, s *Session) Outcome {
	template := s.Config.GitHub.Template()
	hint := fmt.Sprintf("ask the owner of %s to invite %s, accept the invitation, then re-run", template, accountOrYou(s))

	if s.Account == "" {
		return skipped(hint, "no GitHub account on this run")
	}
	if canReadRepo(ctx, s, template) {
		s.TemplateAccess = true
		return satisfied("%s can read %s", s.Account, template)
	}

	id, err := findInvitation(ctx, s, template)
	if err != nil {
		logger.Warn("[WARN] Could not list repository invitations: %v\n", err)
	}
	if id == 0 {
		return skipped(hint, "%s has no access to %s", s.Account, template)
	}

	logger.Info("[INFO] Accepting invitation to %s\n", template)
	if _, err := s.run(ctx, "gh", "api", "--method", "PATCH", "user/repository_invitations/"+strconv.FormatInt(id, 10), "--silent"); err != nil {
		logger.Warn("[WARN] Accepting invitation failed: %v\n", err)
		return skipped(fmt.Sprintf("accept it at https://github.com/%s/invitations, then re-run", template),
			"invitation to %s is pending", template)
	}
	if !canReadRepo(ctx, s, template) {
		return skipped(hint, "accepted invitation but %s is still not readable", template)
	}

	s.TemplateAccess = true
	return changed("accepted invitation to %s", template)
}

func canReadRepo(ctx context.Context, s *Session, slug string) bool {
	_, err := s.Runner.Run(ctx, "gh", []string{"api", "repos/" + slug, "--silent"}, RunOptions{})
	return err == nil
}

type repositoryInvitation struct {
	ID         int64 `json:"id"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// findInvitation returns the id of a pending invitation to slug, or 0.
func findInvitation(ctx context.Context, s *Session, slug string) (int64, error) {
	res, err := s.run(ctx, "gh", "api", "user/repository_invitations")
	if err != nil {
		return 0, err
	}
	var invitations []repositoryInvitation
	if err := json.Unmarshal(res.Stdout, &invitations); err != nil {
		return 0, fmt.Errorf("decode invitations: %w", err)
	}
	for _, inv := range invitations {
		if strings.EqualFold(inv.Repository.FullName, slug) {
			return inv.ID, nil
		}
	}
	return 0, nil
}

func accountOrYou(s *Session) string {
	if s.Account == "" {
		return "your account"
	}
	return s.Account
}
