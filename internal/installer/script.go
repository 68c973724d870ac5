package installer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// runRemoteScript downloads an installer shell script and runs it with bash on
// the operator's terminal. The temporary copy is removed afterwards.
func (s *Session) runRemoteScript(ctx context.Context, url string, env ...string) error {
	dir, err := os.MkdirTemp("", "workspace-bootstrap-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, path.Base(url))
	if err := downloadFile(ctx, s.HTTP, url, script); err != nil {
		return fmt.Errorf("download installer: %w", err)
	}
	return s.interactive(ctx, env, "/bin/bash", script)
}
