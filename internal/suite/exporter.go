// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/dotandev/vigil/internal/errors"
)

// Exporter writes suite reports to disk.
type Exporter struct {
	outputDir string
}

// NewExporter creates the output directory if needed.
func NewExporter(outputDir string) (*Exporter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{outputDir: outputDir}, nil
}

// Export renders the report in the given format and returns the written
// path. Supported formats: json, html.
func (e *Exporter) Export(report *TestSuiteReport, format string) (string, error) {
	filename := generateFilename(report.RunID, format)
	path := filepath.Join(e.outputDir, filename)

	var data []byte
	var err error

	switch strings.ToLower(format) {
	case "json":
		data, err = json.MarshalIndent(report, "", "  ")
		if err != nil {
			err = errors.WrapMarshalFailed(err)
		}
	case "html":
		data, err = renderHTML(report)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// ExportMultiple renders the report in every requested format.
func (e *Exporter) ExportMultiple(report *TestSuiteReport, formats []string) (map[string]string, error) {
	results := make(map[string]string)
	for _, format := range formats {
		path, err := e.Export(report, format)
		if err != nil {
			return results, fmt.Errorf("failed to export %s: %w", format, err)
		}
		results[format] = path
	}
	return results, nil
}

func generateFilename(runID, format string) string {
	sanitized := sanitizeFilename(runID)
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("audit-%s-%s.%s", sanitized, timestamp, format)
}

var filenameUnsafe = regexp.MustCompile("[^a-zA-Z0-9-_]")

func sanitizeFilename(name string) string {
	out := filenameUnsafe.ReplaceAllString(name, "-")
	if out == "" {
		return "report"
	}
	return out
}

func renderHTML(report *TestSuiteReport) ([]byte, error) {
	tmpl, err := template.New("suite").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
		"escape":     html.EscapeString,
		"statusClass": func(s Status) string {
			switch s {
			case StatusPassed:
				return "status-passed"
			case StatusFailed:
				return "status-failed"
			case StatusError:
				return "status-error"
			default:
				return "status-other"
			}
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Security Audit {{escape .RunID}}</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2em; color: #222; }
h1 { border-bottom: 2px solid #444; padding-bottom: 0.3em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; font-size: 14px; }
th { background: #f4f4f4; }
.score { font-size: 2.4em; font-weight: bold; }
.status-passed { color: #1a7f37; }
.status-failed { color: #c62828; font-weight: bold; }
.status-error { color: #e65100; }
.status-other { color: #777; }
</style>
</head>
<body>
<h1>Security Audit Report</h1>
<p>Run <code>{{escape .RunID}}</code> on <b>{{escape .Network}}</b> at {{formatTime .Summary.TestDate}}</p>
<p class="score">{{.SecurityScore}}/100</p>
<p>{{.Summary.Passed}} passed, {{.Summary.Failed}} failed, {{.Summary.Errors}} errors, {{.Summary.Skipped}} skipped ({{.Summary.Total}} total, {{.Summary.ExecutionTimeMs}} ms)</p>
<h2>Results</h2>
<table>
<tr><th>Scenario</th><th>Category</th><th>Target</th><th>Status</th><th>Details</th></tr>
{{range .Results}}<tr>
<td>{{escape .ScenarioName}}</td>
<td>{{escape (printf "%s" .Category)}}</td>
<td>{{escape .TargetProgram}}</td>
<td class="{{statusClass .Status}}">{{.Status}}</td>
<td>{{escape .Details}}</td>
</tr>{{end}}
</table>
{{if .Recommendations}}<h2>Recommendations</h2>
<ul>{{range .Recommendations}}<li>{{escape .}}</li>{{end}}</ul>{{end}}
</body>
</html>
`
