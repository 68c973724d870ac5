package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LauncherStep writes the desktop file that opens Claude Code in the workspace.
// An existing launcher is never touched.
type LauncherStep struct{}

func (LauncherStep) Name() string { return "launcher" }

func (LauncherStep) Run(ctx context.Context, s *Session) Outcome {
	path := s.LauncherPath()
	if fileExists(path) {
		return satisfied("%s exists", path)
	}

	hint := fmt.Sprintf("check that %s is writable, then re-run", filepath.Dir(path))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return failed(fmt.Errorf("create %s: %w", filepath.Dir(path), err), hint)
	}

	// O_EXCL keeps a launcher that appeared in the meantime intact.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0755)
	if err != nil {
		return failed(fmt.Errorf("create launcher: %w", err), hint)
	}
	if _, err := f.WriteString(LauncherScript(s.WorkspaceDir())); err != nil {
		f.Close()
		return failed(fmt.Errorf("write launcher: %w", err), hint)
	}
	if err := f.Close(); err != nil {
		return failed(fmt.Errorf("write launcher: %w", err), hint)
	}
	// The umask may have dropped the execute bits.
	if err := os.Chmod(path, 0755); err != nil {
		return failed(fmt.Errorf("make launcher executable: %w", err), hint)
	}
	return changed("created %s", path)
}

// LauncherScript is the exact launcher content for a workspace directory.
func LauncherScript(workspace string) string {
	return fmt.Sprintf("#!/bin/bash\ncd \"%s\"\nclaude\n", bashEscaper.Replace(workspace))
}

// bashEscaper escapes the characters that stay special inside double quotes.
var bashEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
