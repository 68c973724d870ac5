package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"workspace-bootstrap/internal/logger"
)

// GitHubRelease represents the structure of a GitHub release JSON response.
type GitHubRelease struct {
	TagName string         `json:"tag_name"` // The release tag (e.g., v2.63.0)
	Assets  []ReleaseAsset `json:"assets"`
}

// ReleaseAsset is one downloadable file of a release.
type ReleaseAsset struct {
	Name               string `json:"name"`                 // Asset filename
	BrowserDownloadURL string `json:"browser_download_url"` // Direct download URL for the asset
}

// archiveSuffixes are the asset formats ExtractArchive understands.
var archiveSuffixes = []string{".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".zip", ".7z"}

// assetPatterns lists filename fragments per architecture, most specific first.
var assetPatterns = map[string][]string{
	"arm64": {"macos_arm64", "darwin_arm64", "darwin-arm64", "darwin_aarch64", "aarch64-apple-darwin", "macos_universal"},
	"amd64": {"macos_amd64", "darwin_amd64", "darwin-amd64", "darwin_x86_64", "x86_64-apple-darwin", "macos_universal"},
}

// fetchLatestRelease reads the latest release metadata of repo from the GitHub API.
func fetchLatestRelease(ctx context.Context, client *http.Client, apiBase, repo string) (GitHubRelease, error) {
	var release GitHubRelease

	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(apiBase, "/"), repo)
	logger.Debug("[DEBUG] Fetching GitHub release from URL: %s\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return release, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return release, fmt.Errorf("HTTP GET error fetching latest release of %s: %w", repo, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return release, fmt.Errorf("GitHub release fetch failed for %s: HTTP status %d", repo, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return release, fmt.Errorf("failed to decode GitHub release JSON for %s: %w", repo, err)
	}
	logger.Debug("[DEBUG] Release tag: %s with %d assets\n", release.TagName, len(release.Assets))
	return release, nil
}

// selectAsset picks the macOS archive for goarch from a release.
func selectAsset(release GitHubRelease, goarch string) (ReleaseAsset, error) {
	patterns, ok := assetPatterns[goarch]
	if !ok {
		return ReleaseAsset{}, fmt.Errorf("no asset patterns for ARCH=%s", goarch)
	}

	for _, pattern := range patterns {
		for _, asset := range release.Assets {
			name := strings.ToLower(asset.Name)
			if !strings.Contains(name, pattern) {
				continue
			}
			for _, suffix := range archiveSuffixes {
				if strings.HasSuffix(name, suffix) {
					logger.Debug("[DEBUG] Found matching asset: %s\n", asset.Name)
					return asset, nil
				}
			}
		}
	}
	return ReleaseAsset{}, fmt.Errorf("no matching macOS asset for ARCH=%s in release %s", goarch, release.TagName)
}

// installFromRelease downloads the latest release of repo for this Mac,
// extracts it and copies the tool binaries into binDir. It returns the path
// of the first installed binary.
func (s *Session) installFromRelease(ctx context.Context, repo, binDir string) (string, error) {
	release, err := fetchLatestRelease(ctx, s.HTTP, s.Config.Installers.GitHubAPI, repo)
	if err != nil {
		return "", err
	}
	asset, err := selectAsset(release, s.GOARCH)
	if err != nil {
		return "", err
	}

	workDir, err := os.MkdirTemp("", "workspace-bootstrap-release-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	archive := filepath.Join(workDir, path.Base(asset.Name))
	logger.Info("[INFO] Downloading asset %s\n", asset.Name)
	if err := downloadFile(ctx, s.HTTP, asset.BrowserDownloadURL, archive); err != nil {
		return "", fmt.Errorf("failed to download asset %s: %w", asset.Name, err)
	}

	installed, err := ExtractAndInstall(archive, filepath.Join(workDir, "extract"), binDir)
	if err != nil {
		return "", fmt.Errorf("failed to install %s: %w", asset.Name, err)
	}
	logger.Info("[INFO] Installed %s %s to %s\n", repo, release.TagName, installed)
	return installed, nil
}
