package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Summary          metrics.Summary
	Metadata         ReportMetadata
	Percentiles      []percentileRow
	StatusCodes      []metrics.StatusBucket
	Errors           []metrics.ErrorBucket
	ThresholdResults []threshold.Result
	ThresholdsPassed int
}

// ReportMetadata describes what was tested.
type ReportMetadata struct {
	TargetURL string
	Method    string
}

type percentileRow struct {
	metrics.PercentileValue
	// Width is the bar length relative to the slowest row, in percent.
	Width float64
}

// GenerateHTMLReport writes a standalone HTML report with no external
// assets.
func GenerateHTMLReport(w io.Writer, s metrics.Summary, thresholdResults []threshold.Result, metadata ReportMetadata) error {
	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Summary:          s,
		Metadata:         metadata,
		StatusCodes:      metrics.FlattenStatusCodes(s.StatusCodes),
		Errors:           metrics.FlattenErrors(s.Errors),
		ThresholdResults: thresholdResults,
	}
	for _, r := range thresholdResults {
		if r.Pass {
			data.ThresholdsPassed++
		}
	}

	var slowest time.Duration
	for _, pv := range s.Percentiles {
		slowest = max(slowest, pv.Latency)
	}
	for _, pv := range s.Percentiles {
		row := percentileRow{PercentileValue: pv}
		if slowest > 0 {
			row.Width = float64(pv.Latency) / float64(slowest) * 100
		}
		data.Percentiles = append(data.Percentiles, row)
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return round(d).String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(part, total int) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Volley Load Test Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.error {
            border-left-color: #ef4444;
        }
        .card.warning {
            border-left-color: #f59e0b;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .latency-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 15px;
            margin-top: 20px;
        }
        .latency-item {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .latency-item .label {
            font-size: 0.85rem;
            color: #6c757d;
            margin-bottom: 5px;
        }
        .latency-item .value {
            font-size: 1.3rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .bar {
            height: 14px;
            background: #667eea;
            border-radius: 3px;
            min-width: 2px;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Volley Load Test Report</h1>
            {{if .Metadata.TargetURL}}
            <div class="meta" style="margin-top: 5px;">Target: {{if .Metadata.Method}}<span class="badge">{{.Metadata.Method}}</span> {{end}}{{.Metadata.TargetURL}}</div>
            {{end}}
            <div class="meta">Run {{.Summary.RunID}} | Generated: {{.GeneratedAt}} | Duration: {{formatDuration .Summary.TotalTime}}</div>
        </header>
        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Total Requests</h3>
                    <div class="value">{{.Summary.Total}}</div>
                    <div class="subvalue">concurrency {{.Summary.Concurrency}}</div>
                </div>
                <div class="card success">
                    <h3>OK</h3>
                    <div class="value">{{.Summary.OK}}</div>
                    <div class="subvalue">{{formatPercent .Summary.OK .Summary.Total}}%</div>
                </div>
                <div class="card warning">
                    <h3>Server Errors</h3>
                    <div class="value">{{.Summary.ServerErrors}}</div>
                    <div class="subvalue">{{formatPercent .Summary.ServerErrors .Summary.Total}}%</div>
                </div>
                <div class="card error">
                    <h3>Transport Errors</h3>
                    <div class="value">{{.Summary.TransportErrors}}</div>
                    <div class="subvalue">{{formatPercent .Summary.TransportErrors .Summary.Total}}%</div>
                </div>
                <div class="card">
                    <h3>Requests/sec</h3>
                    <div class="value">{{formatFloat .Summary.RequestsPerSec}}</div>
                </div>
            </div>

            <div class="section">
                <h2>Timing</h2>
                <div class="latency-grid">
                    <div class="latency-item">
                        <div class="label">Total Time Taken</div>
                        <div class="value">{{formatDuration .Summary.TotalTime}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Avg Time Taken</div>
                        <div class="value">{{formatDuration .Summary.AvgTimeTaken}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Total Time In Flight</div>
                        <div class="value">{{formatDuration .Summary.TotalTimeInFlight}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Avg Time In Flight</div>
                        <div class="value">{{formatDuration .Summary.AvgTimeInFlight}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Min</div>
                        <div class="value">{{formatDuration .Summary.MinLatency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Max</div>
                        <div class="value">{{formatDuration .Summary.MaxLatency}}</div>
                    </div>
                </div>
            </div>

            <div class="section">
                <h2>Latency Distribution</h2>
                <table>
                    <thead>
                        <tr><th>Percentile</th><th>Latency</th><th style="width: 60%"></th></tr>
                    </thead>
                    <tbody>
                        {{range .Percentiles}}
                        <tr>
                            <td>p{{.Percent}}</td>
                            <td>{{formatDuration .Latency}}</td>
                            <td><div class="bar" style="width: {{formatFloat .Width}}%"></div></td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>

            <div class="section">
                <h2>Status Codes</h2>
                {{if .StatusCodes}}
                <table>
                    <thead><tr><th>Status</th><th>Responses</th></tr></thead>
                    <tbody>
                        {{range .StatusCodes}}
                        <tr><td>{{if ge .Code 500}}<span class="badge badge-error">{{.Code}}</span>{{else}}<span class="badge badge-success">{{.Code}}</span>{{end}}</td><td>{{.Count}}</td></tr>
                        {{end}}
                    </tbody>
                </table>
                {{else}}
                <div class="no-data">No responses received</div>
                {{end}}
            </div>

            {{if .Errors}}
            <div class="section">
                <h2>Transport Errors</h2>
                <table>
                    <thead><tr><th>Error</th><th>Count</th></tr></thead>
                    <tbody>
                        {{range .Errors}}
                        <tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .ThresholdResults}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdsPassed}}/{{len .ThresholdResults}} Passed)</h2>
                <table>
                    <thead>
                        <tr><th>Threshold</th><th>Metric</th><th>Expected</th><th>Actual</th><th>Status</th></tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdResults}}
                        <tr>
                            <td>{{.Threshold.Raw}}</td>
                            <td>{{.Threshold.Metric}} ({{.Threshold.Aggregate}})</td>
                            <td>{{.Threshold.Operator}} {{formatFloat .Threshold.Value}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">PASS</span>
                                {{else}}
                                <span class="badge badge-error">FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
