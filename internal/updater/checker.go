// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package updater checks GitHub for newer vigil releases. The background
// check is rate limited through a cache file and fails silently; audits
// must never be interrupted by a flaky update endpoint.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

const (
	// ReleaseAPIURL is the endpoint for the latest published release.
	ReleaseAPIURL = "https://api.github.com/repos/dotandev/vigil/releases/latest"
	// CheckInterval rate-limits background checks.
	CheckInterval = 24 * time.Hour
	// RequestTimeout bounds the GitHub API call.
	RequestTimeout = 5 * time.Second
)

// Checker compares the running build against the latest release.
type Checker struct {
	currentVersion string
	cacheDir       string
	apiURL         string
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

type cacheData struct {
	LastCheck     time.Time `json:"last_check"`
	LatestVersion string    `json:"latest_version"`
}

// NewChecker returns a checker for the given build version.
func NewChecker(currentVersion string) *Checker {
	return &Checker{
		currentVersion: currentVersion,
		cacheDir:       cacheDir(),
		apiURL:         ReleaseAPIURL,
	}
}

// Check queries GitHub synchronously and reports whether a newer release
// exists. Used by `vigil version --check`.
func (c *Checker) Check(ctx context.Context) (latest string, newer bool, err error) {
	latest, err = c.fetchLatestVersion(ctx)
	if err != nil {
		return "", false, err
	}
	newer, err = c.isNewer(latest)
	if err != nil {
		return "", false, err
	}
	return latest, newer, nil
}

// CheckInBackground performs the rate-limited startup check. Every failure
// path is silent.
func (c *Checker) CheckInBackground() {
	if c.optedOut() || !c.cacheExpired() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()

	latest, err := c.fetchLatestVersion(ctx)
	if err != nil {
		return
	}
	if err := c.writeCache(latest); err != nil {
		return
	}

	newer, err := c.isNewer(latest)
	if err != nil || !newer {
		return
	}
	fmt.Fprintf(os.Stderr,
		"\nA new version (%s) is available. Run 'go install github.com/dotandev/vigil/cmd/vigil@latest' to update.\n\n",
		latest)
}

func (c *Checker) cacheExpired() bool {
	data, err := os.ReadFile(filepath.Join(c.cacheDir, "last_update_check"))
	if err != nil {
		return true
	}
	var cache cacheData
	if err := json.Unmarshal(data, &cache); err != nil {
		return true
	}
	return time.Since(cache.LastCheck) >= CheckInterval
}

func (c *Checker) fetchLatestVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "vigil-cli")
	req.Header.Set("Accept", "application/vnd.github+json")

	client := &http.Client{Timeout: RequestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var release githubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", err
	}
	return release.TagName, nil
}

// isNewer reports whether latest is strictly newer than the running
// build. Dev builds never update.
func (c *Checker) isNewer(latest string) (bool, error) {
	current := strings.TrimPrefix(c.currentVersion, "v")
	latest = strings.TrimPrefix(latest, "v")

	if current == "dev" || current == "" {
		return false, nil
	}

	currentVer, err := version.NewVersion(current)
	if err != nil {
		return false, err
	}
	latestVer, err := version.NewVersion(latest)
	if err != nil {
		return false, err
	}
	return latestVer.GreaterThan(currentVer), nil
}

func (c *Checker) writeCache(latest string) error {
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(cacheData{LastCheck: time.Now(), LatestVersion: latest})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.cacheDir, "last_update_check"), data, 0644)
}

// optedOut honors VIGIL_NO_UPDATE_CHECK and the check_for_updates key of
// the user config file.
func (c *Checker) optedOut() bool {
	if os.Getenv("VIGIL_NO_UPDATE_CHECK") != "" {
		return true
	}
	path := userConfigPath()
	if path == "" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var cfg struct {
		CheckForUpdates *bool `yaml:"check_for_updates"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return false
	}
	return cfg.CheckForUpdates != nil && !*cfg.CheckForUpdates
}

func userConfigPath() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "vigil", "config.yaml")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "vigil", "config.yaml")
	}
	return ""
}

func cacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "vigil")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache", "vigil")
	}
	return filepath.Join(os.TempDir(), "vigil")
}
