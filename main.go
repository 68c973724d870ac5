package main

import (
	"workspace-bootstrap/cmd"
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// workspace-bootstrap prepares a Mac for working with Claude Code:
//   - Pre-flight: macOS only, picks the Homebrew prefix for the CPU, checks github.com is reachable
//   - Installs Xcode Command Line Tools, Homebrew, the GitHub CLI and Claude Code when missing
//   - Signs in to GitHub and creates the personal repository from the shared template
//   - Clones that repository as the workspace and drops a launcher on the desktop
//
// Every step probes first, so running it again only fills in what is missing.
func main() {
	cmd.Execute()
}
