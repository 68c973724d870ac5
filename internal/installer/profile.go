package installer

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"workspace-bootstrap/internal/logger"
)

// profileFiles maps supported shells to the login profile each one reads.
var profileFiles = map[string]string{
	"zsh":  ".zprofile",
	"bash": ".bash_profile",
}

// detectShell attempts to identify the current user's shell by inspecting the SHELL env variable.
// Returns "zsh" or "bash" or defaults to "zsh" (the macOS default) if unknown.
func detectShell() string {
	shell := os.Getenv("SHELL")
	logger.Debug("[DEBUG] Detected shell environment: %s\n", shell)

	if strings.Contains(shell, "zsh") {
		return "zsh"
	} else if strings.Contains(shell, "bash") {
		return "bash"
	}
	return "zsh"
}

// ProfilePath returns the login profile that receives environment lines.
func (s *Session) ProfilePath() string {
	shell := s.Config.Shell
	if shell == "" {
		shell = detectShell()
	}
	name, ok := profileFiles[shell]
	if !ok {
		logger.Warn("[WARN] Unknown shell '%s', defaulting to '.zprofile'\n", shell)
		name = ".zprofile"
	}
	return filepath.Join(s.Home, name)
}

// ensureProfileLine appends line to the profile at path unless an identical
// (whitespace-trimmed) line is already there. It reports whether it wrote.
func ensureProfileLine(path, line string) (bool, error) {
	line = strings.TrimSpace(line)

	lastByteIsNewline := true
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) == line {
				_ = f.Close()
				logger.Debug("[DEBUG] Profile line already present in %s: %s\n", path, line)
				return false, nil
			}
		}
		if err := scanner.Err(); err != nil {
			_ = f.Close()
			return false, fmt.Errorf("read %s: %w", path, err)
		}
		_ = f.Close()

		if raw, err := os.ReadFile(path); err == nil && len(raw) > 0 {
			lastByteIsNewline = raw[len(raw)-1] == '\n'
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("open %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("unable to open %s for appending: %w", path, err)
	}
	defer file.Close()

	text := line + "\n"
	if !lastByteIsNewline {
		text = "\n" + text
	}
	if _, err := file.WriteString(text); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("[INFO] Added to %s: %s\n", path, line)
	return true, nil
}
