package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// GitHub describes the template repository and the personal repository created from it.
// - TemplateOwner/TemplateRepo: the repository that seeds new personal repositories.
// - RepoName: name of the personal repository under the operator's account.
// - Private: visibility passed to `gh repo create`.
type GitHub struct {
	TemplateOwner string `yaml:"template_owner" toml:"template_owner"`
	TemplateRepo  string `yaml:"template_repo" toml:"template_repo"`
	RepoName      string `yaml:"repo_name" toml:"repo_name"`
	Private       bool   `yaml:"private" toml:"private"`
}

// Template returns the template identifier in owner/repo form.
func (g GitHub) Template() string {
	return g.TemplateOwner + "/" + g.TemplateRepo
}

// Workspace is where the personal repository gets cloned.
type Workspace struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// Launcher is the desktop file that opens the assistant inside the workspace.
type Launcher struct {
	Dir  string `yaml:"dir" toml:"dir"`
	Name string `yaml:"name" toml:"name"`
}

// Installers holds the remote endpoints the steps download from.
type Installers struct {
	HomebrewScript string `yaml:"homebrew_script" toml:"homebrew_script"`
	ClaudeScript   string `yaml:"claude_script" toml:"claude_script"`
	GitHubAPI      string `yaml:"github_api" toml:"github_api"`
	Connectivity   string `yaml:"connectivity" toml:"connectivity"`
}

// GitHubCLI controls the fallback used when `brew install gh` fails.
// - ReleaseFallback: download the latest gh release archive instead.
// - Repo: GitHub repository publishing the releases (cli/cli).
// - BinDir: where the extracted gh binary is copied.
type GitHubCLI struct {
	ReleaseFallback bool   `yaml:"release_fallback" toml:"release_fallback"`
	Repo            string `yaml:"repo" toml:"repo"`
	BinDir          string `yaml:"bin_dir" toml:"bin_dir"`
}

// Xcode bounds how long the run waits for the Command Line Tools dialog to finish.
type Xcode struct {
	WaitTimeout  Duration `yaml:"wait_timeout" toml:"wait_timeout"`
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval"`
}

// Duration is a time.Duration written as "30m" or "5s" in both YAML and TOML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText renders the duration in Go notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML routes YAML scalars through UnmarshalText.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Config is the top-level structure returned after loading the configuration file.
// Every field has a built-in default, so running without a file is the normal case.
type Config struct {
	Shell      string     `yaml:"shell" toml:"shell"`
	GitHub     GitHub     `yaml:"github" toml:"github"`
	Workspace  Workspace  `yaml:"workspace" toml:"workspace"`
	Launcher   Launcher   `yaml:"launcher" toml:"launcher"`
	Installers Installers `yaml:"installers" toml:"installers"`
	GitHubCLI  GitHubCLI  `yaml:"github_cli" toml:"github_cli"`
	Xcode      Xcode      `yaml:"xcode" toml:"xcode"`
}
