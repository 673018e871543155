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

	"github.com/dotandev/vigil/internal/logger"
	"github.com/dotandev/vigil/internal/suite"
)

// AuditNotifier fans scenario results out to the configured webhooks.
type AuditNotifier struct {
	clients   []*Client
	enabled   bool
	errorOnly bool
}

// NotifierConfig contains configuration for the notifier
type NotifierConfig struct {
	Enabled   bool
	ErrorOnly bool
	Webhooks  []Config
}

// NewAuditNotifier creates a notifier for audit run events
func NewAuditNotifier(config NotifierConfig) (*AuditNotifier, error) {
	if !config.Enabled || len(config.Webhooks) == 0 {
		return &AuditNotifier{
			enabled: false,
		}, nil
	}

	clients := make([]*Client, 0, len(config.Webhooks))
	for _, whConfig := range config.Webhooks {
		client, err := NewClient(whConfig)
		if err != nil {
			logger.Logger.Warn(
				"Failed to create webhook client",
				"type", whConfig.Type,
				"error", err,
			)
			continue
		}
		clients = append(clients, client)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("no valid webhook clients could be created")
	}

	return &AuditNotifier{
		clients:   clients,
		enabled:   true,
		errorOnly: config.ErrorOnly,
	}, nil
}

// NotifyResult sends a notification for one completed scenario result.
// In error-only mode, passed results are skipped.
func (n *AuditNotifier) NotifyResult(runID, network string, result suite.TestResult) {
	if !n.enabled {
		return
	}
	if n.errorOnly && result.Status == suite.StatusPassed {
		return
	}

	finding := buildFindingData(runID, network, result)
	n.notifyAll(finding)
}

// buildFindingData constructs the payload from a scenario result
func buildFindingData(runID, network string, result suite.TestResult) FindingData {
	finding := FindingData{
		RunID:     runID,
		Scenario:  result.ScenarioName,
		Category:  string(result.Category),
		Target:    result.TargetProgram,
		Network:   network,
		Status:    string(result.Status),
		Details:   result.Details,
		Error:     result.Error,
		Timestamp: result.Timestamp,
	}

	if attack := result.Outcome.Attack; attack != nil && attack.Report != nil {
		finding.Severity = string(attack.Report.Severity)
		finding.Confidence = attack.Report.Confidence
		finding.Recommendations = attack.Report.Recommendations
	}

	return finding
}

// notifyAll sends the finding to all configured webhooks
func (n *AuditNotifier) notifyAll(finding FindingData) {
	for _, client := range n.clients {
		go func(c *Client) {
			if err := c.Send(finding); err != nil {
				logger.Logger.Error(
					"Failed to send webhook notification",
					"type", c.config.Type,
					"error", err,
				)
			}
		}(client)
	}
}

// IsEnabled returns whether notifications are enabled
func (n *AuditNotifier) IsEnabled() bool {
	return n.enabled
}

// ClientCount returns the number of configured webhook clients
func (n *AuditNotifier) ClientCount() int {
	return len(n.clients)
}
