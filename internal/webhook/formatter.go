// Copyright (c) 2026 dotandev
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package webhook

import (
	"fmt"
	"strings"
	"time"
)

// FindingData is the notification payload for one scenario result.
type FindingData struct {
	RunID           string    `json:"run_id"`
	Scenario        string    `json:"scenario"`
	Category        string    `json:"category"`
	Target          string    `json:"target"`
	Network         string    `json:"network"`
	Status          string    `json:"status"`
	Severity        string    `json:"severity,omitempty"`
	Confidence      int       `json:"confidence,omitempty"`
	Details         string    `json:"details,omitempty"`
	Error           string    `json:"error,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// SlackMessage represents Slack webhook payload
type SlackMessage struct {
	Blocks []interface{} `json:"blocks"`
	Text   string        `json:"text"`
}

// DiscordMessage represents Discord webhook payload
type DiscordMessage struct {
	Username string         `json:"username"`
	Content  string         `json:"content"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields"`
	Timestamp   string              `json:"timestamp"`
	Footer      DiscordEmbedFooter  `json:"footer"`
}

// DiscordEmbedField represents a field in Discord embed
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedFooter represents footer in Discord embed
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// FormatSlackMessage creates a formatted Slack webhook message
func FormatSlackMessage(finding FindingData) SlackMessage {
	headerSection := map[string]interface{}{
		"type": "header",
		"text": map[string]interface{}{
			"type": "plain_text",
			"text": "🛡️ Vigil Security Finding",
		},
	}

	statusEmoji := "❌"
	if finding.Status == "passed" {
		statusEmoji = "✅"
	}

	summaryBlock := map[string]interface{}{
		"type": "section",
		"text": map[string]interface{}{
			"type": "mrkdwn",
			"text": fmt.Sprintf(
				"%s *Scenario:* %s\n*Target:* %s\n*Network:* %s\n*Status:* %s",
				statusEmoji,
				finding.Scenario,
				finding.Target,
				finding.Network,
				finding.Status,
			),
		},
	}

	blocks := []interface{}{headerSection, summaryBlock}

	if finding.Severity != "" {
		severityBlock := map[string]interface{}{
			"type": "section",
			"fields": []interface{}{
				map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Severity:*\n%s", finding.Severity),
				},
				map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Confidence:*\n%d%%", finding.Confidence),
				},
			},
		}
		blocks = append(blocks, severityBlock)
	}

	if finding.Error != "" {
		errorBlock := map[string]interface{}{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Error:*\n```%s```", truncateString(finding.Error, 500)),
			},
		}
		blocks = append(blocks, errorBlock)
	}

	if len(finding.Recommendations) > 0 {
		recBlock := map[string]interface{}{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Recommendations:*\n• %s", strings.Join(finding.Recommendations, "\n• ")),
			},
		}
		blocks = append(blocks, recBlock)
	}

	blocks = append(blocks, map[string]interface{}{
		"type": "divider",
	})

	return SlackMessage{
		Blocks: blocks,
		Text:   fmt.Sprintf("Vigil finding: %s %s on %s", finding.Scenario, finding.Status, finding.Target),
	}
}

// FormatDiscordMessage creates a formatted Discord webhook message
func FormatDiscordMessage(finding FindingData) DiscordMessage {
	colorInt := hexToDecimal(colorForSeverity(finding.Severity, finding.Status))

	statusTitle := "❌ Exploit Not Prevented"
	switch finding.Status {
	case "passed":
		statusTitle = "✅ Attack Blocked"
	case "error":
		statusTitle = "⚠️ Infrastructure Error"
	}

	fields := []DiscordEmbedField{
		{
			Name:   "Scenario",
			Value:  finding.Scenario,
			Inline: true,
		},
		{
			Name:   "Category",
			Value:  finding.Category,
			Inline: true,
		},
		{
			Name:   "Target",
			Value:  fmt.Sprintf("`%s`", finding.Target),
			Inline: false,
		},
		{
			Name:   "Network",
			Value:  finding.Network,
			Inline: true,
		},
	}

	if finding.Severity != "" {
		fields = append(fields, DiscordEmbedField{
			Name:   "Severity",
			Value:  fmt.Sprintf("%s (%d%% confidence)", finding.Severity, finding.Confidence),
			Inline: true,
		})
	}

	if finding.Error != "" {
		fields = append(fields, DiscordEmbedField{
			Name:   "Error",
			Value:  fmt.Sprintf("```\n%s\n```", truncateString(finding.Error, 400)),
			Inline: false,
		})
	}

	if len(finding.Recommendations) > 0 {
		fields = append(fields, DiscordEmbedField{
			Name:   "Recommendations",
			Value:  truncateString("• "+strings.Join(finding.Recommendations, "\n• "), 800),
			Inline: false,
		})
	}

	embed := DiscordEmbed{
		Title:       statusTitle,
		Description: truncateString(finding.Details, 300),
		Color:       colorInt,
		Fields:      fields,
		Timestamp:   finding.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		Footer: DiscordEmbedFooter{
			Text: fmt.Sprintf("Vigil run %s", finding.RunID),
		},
	}

	return DiscordMessage{
		Username: "Vigil Auditor",
		Content:  fmt.Sprintf("Audit result: %s", finding.Status),
		Embeds:   []DiscordEmbed{embed},
	}
}

// Helper functions

func colorForSeverity(severity, status string) string {
	if status == "passed" {
		return "36a64f" // Green
	}
	switch severity {
	case "critical":
		return "8e24aa" // Purple
	case "high":
		return "e74c3c" // Red
	case "medium":
		return "f39c12" // Orange
	case "low":
		return "f1c40f" // Yellow
	default:
		return "95a5a6" // Gray
	}
}

func hexToDecimal(hex string) int {
	var value int
	fmt.Sscanf(hex, "%x", &value)
	return value
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
