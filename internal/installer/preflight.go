package installer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"workspace-bootstrap/internal/logger"
)

// connectivityTimeout bounds the github.com reachability probe.
const connectivityTimeout = 10 * time.Second

// PreflightChecks returns the checks that run before the numbered steps.
func PreflightChecks() []Step {
	return []Step{PlatformCheck{}, ArchitectureCheck{}, ConnectivityCheck{}}
}

// PlatformCheck refuses to run anywhere but macOS.
type PlatformCheck struct{}

func (PlatformCheck) Name() string { return "platform" }

func (PlatformCheck) Run(ctx context.Context, s *Session) Outcome {
	if s.GOOS != "darwin" {
		return failed(fmt.Errorf("this installer supports macOS only, detected %s", s.GOOS),
			"run it on a Mac")
	}
	return satisfied("macOS")
}

// ArchitectureCheck picks the Homebrew prefix for the CPU.
type ArchitectureCheck struct{}

func (ArchitectureCheck) Name() string { return "architecture" }

func (ArchitectureCheck) Run(ctx context.Context, s *Session) Outcome {
	switch s.GOARCH {
	case "arm64":
		s.BrewPrefix = "/opt/homebrew"
		return satisfied("Apple Silicon, Homebrew prefix %s", s.BrewPrefix)
	case "amd64":
		s.BrewPrefix = "/usr/local"
		return satisfied("Intel, Homebrew prefix %s", s.BrewPrefix)
	default:
		return failed(fmt.Errorf("unsupported CPU architecture %s", s.GOARCH), "use an Apple Silicon or Intel Mac")
	}
}

// ConnectivityCheck makes sure github.com answers before anything is downloaded.
type ConnectivityCheck struct{}

func (ConnectivityCheck) Name() string { return "connectivity" }

func (ConnectivityCheck) Run(ctx context.Context, s *Session) Outcome {
	url := s.Config.Installers.Connectivity
	ctx, cancel := context.WithTimeout(ctx, connectivityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return failed(fmt.Errorf("build request for %s: %w", url, err), "check installers.connectivity in the config")
	}
	logger.Debug("[DEBUG] Probing %s\n", url)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return failed(fmt.Errorf("cannot reach %s: %w", url, err), "check your internet connection and try again")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode >= 500 {
		return failed(fmt.Errorf("%s answered HTTP %d", url, resp.StatusCode), "GitHub may be having an outage; try again later")
	}
	return satisfied("%s reachable", url)
}
