// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/dotandev/vigil/internal/catalog"
	"github.com/dotandev/vigil/internal/chain"
	"github.com/dotandev/vigil/internal/config"
	"github.com/dotandev/vigil/internal/logger"
	"github.com/dotandev/vigil/internal/webhook"
)

// loadConfig layers CLI flags over the environment and config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if RPCURLFlag != "" {
		cfg.RpcUrl = RPCURLFlag
	}
	if NetworkFlag != "" {
		cfg.Network = config.Network(NetworkFlag)
		cfg.RpcUrl = cfg.NetworkURL()
		if RPCURLFlag != "" {
			cfg.RpcUrl = RPCURLFlag
		}
	}
	if CatalogFlag != "" {
		cfg.CatalogPath = CatalogFlag
	}
	if VerboseFlag {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.SetLevel(parseLogLevel(cfg.LogLevel))
	if JSONLogFlag {
		logger.SetOutput(os.Stderr, true)
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadCatalog reads the configured target catalog, falling back to the
// built-in sample so every command works out of the box.
func loadCatalog(cfg *config.Config) (*catalog.Registry, error) {
	if cfg.CatalogPath != "" {
		return catalog.LoadFile(cfg.CatalogPath)
	}
	return catalog.Load(catalog.SampleCatalog())
}

func newChainClient(cfg *config.Config) *chain.Client {
	return chain.NewClientWithRetry(cfg.RpcUrl, cfg.RPCToken, chain.DefaultRetryConfig())
}

// newNotifier builds the webhook notifier from the configured URLs. A nil
// notifier means webhooks are disabled.
func newNotifier(cfg *config.Config) (*webhook.AuditNotifier, error) {
	if len(cfg.WebhookURLs) == 0 {
		return nil, nil
	}
	webhooks := make([]webhook.Config, 0, len(cfg.WebhookURLs))
	for _, u := range cfg.WebhookURLs {
		webhooks = append(webhooks, webhook.Config{
			Type: detectWebhookType(u),
			URL:  u,
		})
	}
	return webhook.NewAuditNotifier(webhook.NotifierConfig{
		Enabled:   true,
		ErrorOnly: cfg.WebhookErrorOnly,
		Webhooks:  webhooks,
	})
}

func detectWebhookType(url string) webhook.WebhookType {
	switch {
	case strings.Contains(url, "hooks.slack.com"):
		return webhook.SlackWebhook
	case strings.Contains(url, "discord.com/api/webhooks"), strings.Contains(url, "discordapp.com/api/webhooks"):
		return webhook.DiscordWebhook
	default:
		return webhook.GenericWebhook
	}
}
