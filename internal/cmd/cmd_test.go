// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vigil/internal/webhook"
)

func TestSubcommandsRegistered(t *testing.T) {
	expected := []string{"audit", "scenarios", "targets", "report", "version"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "missing subcommand %q", name)
	}
}

func TestDetectWebhookType(t *testing.T) {
	tests := []struct {
		url  string
		want webhook.WebhookType
	}{
		{"https://hooks.slack.com/services/T0/B0/xyz", webhook.SlackWebhook},
		{"https://discord.com/api/webhooks/1/abc", webhook.DiscordWebhook},
		{"https://discordapp.com/api/webhooks/1/abc", webhook.DiscordWebhook},
		{"https://example.com/hooks/audit", webhook.GenericWebhook},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectWebhookType(tt.url), tt.url)
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("anything else"))
}

func TestLoadCatalogFallsBackToSample(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.CatalogPath = ""

	targets, err := loadCatalog(cfg)
	require.NoError(t, err)
	assert.Greater(t, targets.Len(), 0)
}
