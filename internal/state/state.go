package state

import (
	"encoding/json" // For JSON encoding and decoding of the state file
	"os"            // For file system operations like reading and writing files
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"workspace-bootstrap/internal/logger"
)

// StepState is the recorded result of one step in the last run.
type StepState struct {
	Name   string `json:"name"`
	Status string `json:"status"`           // satisfied, changed, skipped or failed
	Detail string `json:"detail,omitempty"` // Human readable summary of what the step saw or did
}

// State holds the record of the most recent run.
// Nothing reads it back during provisioning; every step probes the machine itself.
type State struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Account    string      `json:"account,omitempty"`
	Workspace  string      `json:"workspace,omitempty"`
	Launcher   string      `json:"launcher,omitempty"`
	Failed     bool        `json:"failed"`
	Steps      []StepState `json:"steps"`
}

// DefaultPath returns the state file location under XDG_STATE_HOME.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, "workspace-bootstrap", "state.json")
}

// LoadState loads the saved state from a JSON file at the given path.
// If the file does not exist or cannot be parsed, it returns nil.
func LoadState(path string) *State {
	file, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("[DEBUG] No state at %s: %v\n", path, err)
		return nil
	}

	var st State
	if err := json.Unmarshal(file, &st); err != nil {
		logger.Warn("[WARN] Ignoring unreadable state file %s: %v\n", path, err)
		return nil
	}
	return &st
}

// SaveState writes the given State struct to a JSON file at the given path.
// It pretty-prints the JSON with indentation for readability.
// Errors during marshalling or writing are logged but not propagated.
func SaveState(path string, st *State) {
	file, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		logger.Error("[ERROR] Failed to marshal state: %v\n", err)
		return
	}

	logger.Debug("[DEBUG] Writing state to %s:\n%s\n", path, string(file))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Error("[ERROR] Failed to create state directory for %s: %v\n", path, err)
		return
	}
	if err := os.WriteFile(path, file, 0644); err != nil {
		logger.Error("[ERROR] Failed to write state file %s: %v\n", path, err)
	}
}
