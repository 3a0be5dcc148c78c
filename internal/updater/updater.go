// Package updater checks GitHub releases for a newer build, downloads the
// installer asset and launches it.
package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ghostnote/internal/procutil"
)

const (
	defaultTimeout = 15 * time.Second

	// installerSuffix selects the release asset to download.
	installerSuffix = "-setup.exe"

	// maxInstallerBytes caps the download; a legitimate installer is a few
	// tens of megabytes.
	maxInstallerBytes = 256 << 20
)

// ErrNoInstallerAsset is returned when the latest release carries no
// installer asset.
var ErrNoInstallerAsset = errors.New("release has no installer asset")

// Release describes the latest published release.
type Release struct {
	Version   string `json:"version"`
	PageURL   string `json:"page_url"`
	AssetName string `json:"asset_name"`
	AssetURL  string `json:"asset_url"`
}

// Checker queries the GitHub releases API of one repository.
type Checker struct {
	client  *http.Client
	apiURL  string
	current string
}

// New creates a checker for the "owner/repo" repository, comparing against
// currentVersion (with or without a leading "v").
func New(repo, currentVersion string) *Checker {
	return &Checker{
		client:  &http.Client{Timeout: defaultTimeout},
		apiURL:  fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", repo),
		current: currentVersion,
	}
}

type releaseResponse struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Check fetches the latest release. newer reports whether it is strictly
// newer than the running version.
func (c *Checker) Check(ctx context.Context) (rel Release, newer bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return Release{}, false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Release{}, false, fmt.Errorf("update check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Release{}, false, fmt.Errorf("update check: unexpected status %s", resp.Status)
	}

	var parsed releaseResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return Release{}, false, fmt.Errorf("update check: decode: %w", err)
	}

	rel = Release{Version: parsed.TagName, PageURL: parsed.HTMLURL}
	for _, asset := range parsed.Assets {
		if strings.HasSuffix(strings.ToLower(asset.Name), installerSuffix) {
			rel.AssetName = asset.Name
			rel.AssetURL = asset.BrowserDownloadURL
			break
		}
	}

	newer, err = IsNewer(rel.Version, c.current)
	if err != nil {
		return Release{}, false, fmt.Errorf("update check: %w", err)
	}
	return rel, newer, nil
}

// Download fetches the release's installer asset into dir and returns the
// downloaded file path.
func (c *Checker) Download(ctx context.Context, rel Release, dir string) (string, error) {
	if rel.AssetURL == "" {
		return "", ErrNoInstallerAsset
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rel.AssetURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download installer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download installer: unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("download installer: mkdir: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(rel.AssetName))
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o700)
	if err != nil {
		return "", fmt.Errorf("download installer: create: %w", err)
	}

	written, err := io.Copy(file, io.LimitReader(resp.Body, maxInstallerBytes+1))
	closeErr := file.Close()
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("download installer: write: %w", err)
	}
	if closeErr != nil {
		os.Remove(target)
		return "", fmt.Errorf("download installer: close: %w", closeErr)
	}
	if written > maxInstallerBytes {
		os.Remove(target)
		return "", fmt.Errorf("download installer: asset exceeds %d bytes", int64(maxInstallerBytes))
	}
	return target, nil
}

// LaunchInstaller starts the downloaded installer detached from this
// process, suppressing the console flash.
func LaunchInstaller(path string) error {
	cmd := exec.Command(path)
	procutil.HideWindow(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch installer: %w", err)
	}
	// Deliberately not waited on; the installer outlives this process.
	return cmd.Process.Release()
}

// IsNewer reports whether version a is strictly newer than version b.
func IsNewer(a, b string) (bool, error) {
	av, err := parseVersion(a)
	if err != nil {
		return false, err
	}
	bv, err := parseVersion(b)
	if err != nil {
		return false, err
	}
	for i := range av {
		if av[i] != bv[i] {
			return av[i] > bv[i], nil
		}
	}
	return false, nil
}

// parseVersion parses "v1.2.3" or "1.2" into numeric components. Missing
// components are zero; pre-release suffixes after "-" are ignored.
func parseVersion(s string) ([3]int, error) {
	var out [3]int
	v := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if v == "" {
		return out, errors.New("empty version")
	}
	if idx := strings.IndexByte(v, '-'); idx >= 0 {
		v = v[:idx]
	}
	parts := strings.Split(v, ".")
	if len(parts) > 3 {
		return out, fmt.Errorf("invalid version %q", s)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return out, fmt.Errorf("invalid version %q", s)
		}
		out[i] = n
	}
	return out, nil
}
