package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"workspace-bootstrap/internal/logger"
	"workspace-bootstrap/internal/state"
)

// StepError is returned by Provision when a step fails.
type StepError struct {
	Step string
	Hint string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// StepResult pairs a step name with its outcome.
type StepResult struct {
	Step    string
	Outcome Outcome
}

// Report is the ordered record of one run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Account    string
	Workspace  string
	Launcher   string
	Results    []StepResult
}

// Failed reports whether the run stopped on a fatal outcome.
func (r *Report) Failed() bool {
	n := len(r.Results)
	return n > 0 && r.Results[n-1].Outcome.Status == StatusFailed
}

// Outcome returns the recorded outcome of the named step.
func (r *Report) Outcome(step string) (Outcome, bool) {
	for _, res := range r.Results {
		if res.Step == step {
			return res.Outcome, true
		}
	}
	return Outcome{}, false
}

// State converts the report into the persisted run record.
func (r *Report) State() *state.State {
	st := &state.State{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Account:    r.Account,
		Workspace:  r.Workspace,
		Launcher:   r.Launcher,
		Failed:     r.Failed(),
	}
	for _, res := range r.Results {
		st.Steps = append(st.Steps, state.StepState{
			Name:   res.Step,
			Status: string(res.Outcome.Status),
			Detail: res.Outcome.Detail,
		})
	}
	return st
}

// Steps returns the nine provisioning steps in execution order.
func Steps() []Step {
	return []Step{
		XcodeStep{},
		HomebrewStep{},
		GitHubCLIStep{},
		AuthStep{},
		TemplateAccessStep{},
		RepositoryStep{},
		WorkspaceStep{},
		ClaudeStep{},
		LauncherStep{},
	}
}

// Provision runs the pre-flight checks and then steps, in order, stopping at
// the first failed outcome. The report is always returned, even on failure.
func Provision(ctx context.Context, s *Session, steps []Step) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: s.Now(), Workspace: s.WorkspaceDir(), Launcher: s.LauncherPath()}
	defer func() {
		report.FinishedAt = s.Now()
		report.Account = s.Account
	}()

	logger.Debug("[DEBUG] Run %s started\n", report.RunID)

	checks := PreflightChecks()
	total := len(steps)

	for i, step := range append(checks, steps...) {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("interrupted before %s: %w", step.Name(), err)
		}

		if i < len(checks) {
			logger.Step("==> [preflight] %s\n", step.Name())
		} else {
			logger.Step("==> [%d/%d] %s\n", i-len(checks)+1, total, step.Name())
		}

		out := step.Run(ctx, s)
		report.Results = append(report.Results, StepResult{Step: step.Name(), Outcome: out})
		logOutcome(out)

		if out.Status == StatusFailed {
			return report, &StepError{Step: step.Name(), Hint: out.Hint, Err: out.Err}
		}
	}
	return report, nil
}

func logOutcome(out Outcome) {
	switch out.Status {
	case StatusSatisfied:
		logger.Info("[INFO] Already satisfied: %s\n", out.Detail)
	case StatusChanged:
		logger.Success("[DONE] %s\n", out.Detail)
	case StatusSkipped:
		logger.Warn("[WARN] Skipped: %s\n", out.Detail)
		if out.Hint != "" {
			logger.Warn("[WARN] %s\n", out.Hint)
		}
	case StatusFailed:
		logger.Error("[ERROR] %s\n", out.Detail)
		if out.Hint != "" {
			logger.Error("[ERROR] To fix: %s\n", out.Hint)
		}
	}
}

// PrintSummary writes the end-of-run overview.
func PrintSummary(r *Report) {
	logger.Plain("\n")
	logger.Step("==> Summary\n")
	for _, res := range r.Results {
		logger.Plain("  %-16s %-9s %s\n", res.Step, res.Outcome.Status, res.Outcome.Detail)
	}
	logger.Plain("\n")

	account := r.Account
	if account == "" {
		account = "(not signed in)"
	}
	logger.Plain("  GitHub account: %s\n", account)
	logger.Plain("  Workspace:      %s\n", r.Workspace)
	logger.Plain("  Launcher:       %s\n", r.Launcher)

	if r.Failed() {
		logger.Error("\n[ERROR] Setup stopped early. Fix the problem above and run the installer again.\n")
		return
	}
	for _, res := range r.Results {
		if res.Outcome.Status == StatusSkipped {
			logger.Warn("\n[WARN] Some steps were skipped. Resolve the notes above and re-run; finished steps are not repeated.\n")
			return
		}
	}
	logger.Success("\nAll set. Double-click %s to start working.\n", r.Launcher)
}
