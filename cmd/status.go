package cmd

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"workspace-bootstrap/internal/logger"
	"workspace-bootstrap/internal/state"
)

// statusCmd prints the record of the last run.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result of the last run",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := state.DefaultPath()
		st := state.LoadState(path)
		if st == nil {
			logger.Warn("[WARN] No run recorded yet at %s\n", path)
			return
		}

		logger.Plain("Last run: %s, %s (took %s)\n", st.StartedAt.Local().Format("2006-01-02 15:04"), humanize.Time(st.StartedAt), st.FinishedAt.Sub(st.StartedAt).Round(time.Second))
		logger.Debug("[DEBUG] Run ID %s\n", st.RunID)
		for _, step := range st.Steps {
			logger.Plain("  %-16s %-9s %s\n", step.Name, step.Status, step.Detail)
		}
		if st.Account != "" {
			logger.Plain("GitHub account: %s\n", st.Account)
		}
		logger.Plain("Workspace:      %s\n", st.Workspace)
		logger.Plain("Launcher:       %s\n", st.Launcher)
		if st.Failed {
			logger.Error("[ERROR] The last run stopped early; run workspace-bootstrap again.\n")
		}
	},
}
