package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG config and state directories.
const AppName = "workspace-bootstrap"

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Shell: "",
		GitHub: GitHub{
			TemplateOwner: "claude-workspaces",
			TemplateRepo:  "workspace-template",
			RepoName:      "claude-workspace",
			Private:       true,
		},
		Workspace: Workspace{Dir: "~/claude-workspace"},
		Launcher:  Launcher{Dir: "~/Desktop", Name: "Claude Workspace"},
		Installers: Installers{
			HomebrewScript: "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh",
			ClaudeScript:   "https://claude.ai/install.sh",
			GitHubAPI:      "https://api.github.com",
			Connectivity:   "https://github.com",
		},
		GitHubCLI: GitHubCLI{
			ReleaseFallback: true,
			Repo:            "cli/cli",
			BinDir:          "~/.local/bin",
		},
		Xcode: Xcode{
			WaitTimeout:  Duration(30 * time.Minute),
			PollInterval: Duration(5 * time.Second),
		},
	}
}

// DefaultPath is the config file looked up when --config is not given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// LoadConfig reads the config file at path and overlays it onto Default().
// An empty path falls back to DefaultPath(), and a missing default file is not an error.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(raw, &cfg)
	} else {
		err = yaml.Unmarshal(raw, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the steps cannot act on.
func (c Config) Validate() error {
	var problems []string
	if c.GitHub.TemplateOwner == "" || c.GitHub.TemplateRepo == "" {
		problems = append(problems, "github.template_owner and github.template_repo are required")
	}
	if c.GitHub.RepoName == "" || strings.Contains(c.GitHub.RepoName, "/") {
		problems = append(problems, "github.repo_name must be a bare repository name")
	}
	if c.Workspace.Dir == "" {
		problems = append(problems, "workspace.dir is required")
	} else if !anchored(c.Workspace.Dir) {
		problems = append(problems, fmt.Sprintf("workspace.dir %q must be absolute or start with ~/", c.Workspace.Dir))
	}
	if c.Launcher.Dir == "" || c.Launcher.Name == "" {
		problems = append(problems, "launcher.dir and launcher.name are required")
	} else if !anchored(c.Launcher.Dir) {
		problems = append(problems, fmt.Sprintf("launcher.dir %q must be absolute or start with ~/", c.Launcher.Dir))
	}
	if c.GitHubCLI.BinDir != "" && !anchored(c.GitHubCLI.BinDir) {
		problems = append(problems, fmt.Sprintf("github_cli.bin_dir %q must be absolute or start with ~/", c.GitHubCLI.BinDir))
	}
	if c.Xcode.PollInterval <= 0 || c.Xcode.WaitTimeout < c.Xcode.PollInterval {
		problems = append(problems, "xcode.poll_interval must be positive and not exceed xcode.wait_timeout")
	}
	switch c.Shell {
	case "", "zsh", "bash":
	default:
		problems = append(problems, fmt.Sprintf("unsupported shell %q (zsh or bash)", c.Shell))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// anchored reports whether path resolves the same from any working directory.
func anchored(path string) bool {
	return path == "~" || strings.HasPrefix(path, "~/") || filepath.IsAbs(path)
}

// ExpandHome replaces a leading "~" with home.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
