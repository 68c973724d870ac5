package installer

import (
	"context"
	"fmt"
	"time"

	"workspace-bootstrap/internal/logger"
)

// XcodeStep ensures the Xcode Command Line Tools are installed.
type XcodeStep struct{}

func (XcodeStep) Name() string { return "xcode" }

func (XcodeStep) Run(ctx context.Context, s *Session) Outcome {
	if dir, ok := xcodeInstalled(ctx, s); ok {
		return satisfied("Command Line Tools at %s", dir)
	}

	logger.Info("[INFO] Installing Xcode Command Line Tools. Accept the system dialog that opens.\n")
	if _, err := s.run(ctx, "xcode-select", "--install"); err != nil {
		// xcode-select exits non-zero when an install is already underway; keep waiting for it.
		logger.Warn("[WARN] %v\n", err)
	}

	hint := "install them manually with `xcode-select --install`, then re-run"
	dir, err := waitForXcode(ctx, s)
	if err != nil {
		return failed(err, hint)
	}
	return changed("installed Command Line Tools at %s", dir)
}

func xcodeInstalled(ctx context.Context, s *Session) (string, bool) {
	res, err := s.Runner.Run(ctx, "xcode-select", []string{"-p"}, RunOptions{})
	if err != nil || res.Output() == "" {
		return "", false
	}
	return res.Output(), true
}

// waitForXcode polls until the tools appear, the wait timeout passes or ctx ends.
func waitForXcode(ctx context.Context, s *Session) (string, error) {
	timeout := s.Config.Xcode.WaitTimeout.Std()
	interval := s.Config.Xcode.PollInterval.Std()

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := parent.Err(); err != nil {
				return "", fmt.Errorf("stopped waiting for command line tools: %w", err)
			}
			// Last look, so a finish right at the deadline still counts.
			if dir, ok := xcodeInstalled(context.WithoutCancel(ctx), s); ok {
				return dir, nil
			}
			return "", fmt.Errorf("command line tools not found after waiting %s", timeout)
		case <-ticker.C:
			if dir, ok := xcodeInstalled(ctx, s); ok {
				return dir, nil
			}
			logger.Debug("[DEBUG] Still waiting for Command Line Tools\n")
		}
	}
}
