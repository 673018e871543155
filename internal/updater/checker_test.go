// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package updater

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		latest      string
		newer       bool
		expectError bool
	}{
		{name: "older version needs update", current: "v1.0.0", latest: "v1.1.0", newer: true},
		{name: "major bump needs update", current: "v1.2.3", latest: "v2.0.0", newer: true},
		{name: "prerelease to stable needs update", current: "v1.0.0-alpha", latest: "v1.0.0", newer: true},
		{name: "same version no update", current: "v1.0.0", latest: "v1.0.0", newer: false},
		{name: "newer local build no update", current: "v2.0.0", latest: "v1.0.0", newer: false},
		{name: "dev build never updates", current: "dev", latest: "v9.0.0", newer: false},
		{name: "empty version never updates", current: "", latest: "v1.0.0", newer: false},
		{name: "no v prefix", current: "1.0.0", latest: "1.1.0", newer: true},
		{name: "garbage latest errors", current: "v1.0.0", latest: "not-a-version", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(tt.current)
			newer, err := c.isNewer(tt.latest)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.newer, newer)
		})
	}
}

func TestCheckAgainstReleaseEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		json.NewEncoder(w).Encode(githubRelease{TagName: "v1.4.0"})
	}))
	defer srv.Close()

	c := NewChecker("v1.2.0")
	c.apiURL = srv.URL

	latest, newer, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", latest)
	assert.True(t, newer)
}

func TestCheckPropagatesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewChecker("v1.0.0")
	c.apiURL = srv.URL

	_, _, err := c.Check(context.Background())
	require.Error(t, err)
}

func TestCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewChecker("v1.0.0")
	c.cacheDir = dir

	assert.True(t, c.cacheExpired(), "missing cache forces a check")

	require.NoError(t, c.writeCache("v1.1.0"))
	assert.False(t, c.cacheExpired(), "fresh cache suppresses the check")

	stale, err := json.Marshal(cacheData{
		LastCheck:     time.Now().Add(-CheckInterval - time.Hour),
		LatestVersion: "v1.1.0",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "last_update_check"), stale, 0644))
	assert.True(t, c.cacheExpired(), "stale cache forces a check")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "last_update_check"), []byte("{corrupt"), 0644))
	assert.True(t, c.cacheExpired(), "corrupt cache forces a check")
}

func TestOptOutEnvVar(t *testing.T) {
	t.Setenv("VIGIL_NO_UPDATE_CHECK", "1")
	c := NewChecker("v1.0.0")
	assert.True(t, c.optedOut())
}
