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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/score"
	"github.com/dotandev/vigil/internal/suite"
)

func sampleFinding() FindingData {
	return FindingData{
		RunID:      "run-123",
		Scenario:   "unauthorized-admin-call",
		Category:   "access_control",
		Target:     "app_factory",
		Network:    "devnet",
		Status:     "failed",
		Severity:   "critical",
		Confidence: 80,
		Details:    "2 rule(s) matched",
		Recommendations: []string{
			"verify signer and authority constraints on every privileged instruction",
		},
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestSlackMessageFormatting(t *testing.T) {
	msg := FormatSlackMessage(sampleFinding())

	if msg.Text == "" {
		t.Error("Slack message text is empty")
	}
	if len(msg.Blocks) == 0 {
		t.Error("Slack message blocks are empty")
	}
	if _, err := json.Marshal(msg); err != nil {
		t.Fatalf("Failed to marshal Slack message: %v", err)
	}
}

func TestDiscordMessageFormatting(t *testing.T) {
	msg := FormatDiscordMessage(sampleFinding())

	if msg.Username == "" {
		t.Error("Discord message username is empty")
	}
	if len(msg.Embeds) == 0 {
		t.Fatal("Discord message embeds are empty")
	}
	if len(msg.Embeds[0].Fields) == 0 {
		t.Error("Discord embed fields are empty")
	}
	if _, err := json.Marshal(msg); err != nil {
		t.Fatalf("Failed to marshal Discord message: %v", err)
	}
}

func TestClientCreation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "Valid Slack config",
			config: Config{
				Type: SlackWebhook,
				URL:  "https://hooks.slack.com/services/T123/B456/xyz",
			},
			wantErr: false,
		},
		{
			name: "Valid generic config",
			config: Config{
				Type: GenericWebhook,
				URL:  "https://example.com/hook",
			},
			wantErr: false,
		},
		{
			name:    "Empty URL",
			config:  Config{Type: SlackWebhook},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientSendsGenericPayload(t *testing.T) {
	var received FindingData
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{Type: GenericWebhook, URL: srv.URL, Retries: 0})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := client.Send(sampleFinding()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if received.Scenario != "unauthorized-admin-call" {
		t.Errorf("unexpected scenario: %q", received.Scenario)
	}
}

func TestNotifierDisabledWithoutConfig(t *testing.T) {
	n, err := NewAuditNotifier(NotifierConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewAuditNotifier: %v", err)
	}
	if n.IsEnabled() {
		t.Error("notifier should be disabled")
	}
	// must be a no-op, not a panic
	n.NotifyResult("run", "devnet", suite.TestResult{Status: suite.StatusFailed})
}

func TestNotifierErrorOnlySkipsPassed(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := NewAuditNotifier(NotifierConfig{
		Enabled:   true,
		ErrorOnly: true,
		Webhooks:  []Config{{Type: GenericWebhook, URL: srv.URL, Retries: 0}},
	})
	if err != nil {
		t.Fatalf("NewAuditNotifier: %v", err)
	}
	if n.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", n.ClientCount())
	}

	n.NotifyResult("run", "devnet", suite.TestResult{Status: suite.StatusPassed})
	n.NotifyResult("run", "devnet", suite.TestResult{
		Status: suite.StatusFailed,
		Outcome: suite.Outcome{Attack: &suite.AttackOutcome{
			Report: &score.VulnerabilityReport{
				VulnerabilityFound: true,
				Severity:           detect.SeverityHigh,
				Confidence:         40,
			},
		}},
	})

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 webhook call, got %d", got)
	}
}
