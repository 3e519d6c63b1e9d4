package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/volley/internal/metrics"
)

const (
	historySize = 100
	maxListRows = 10
)

// TestConfig holds load test configuration parameters for display.
type TestConfig struct {
	TargetURL   string        // Full target URL
	Method      string        // HTTP method
	Total       int           // Requests to send (N)
	Concurrency int           // Concurrency limit (C)
	Timeout     time.Duration // Request timeout
	ConfigFile  string        // Path to config file if used
	RunID       string
}

// Dashboard renders a live terminal UI for load test metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid           *ui.Grid
	summaryPara    *widgets.Paragraph
	progressGauge  *widgets.Gauge
	inFlightGauge  *widgets.Gauge
	latencySparkle *widgets.SparklineGroup
	latencyPara    *widgets.Paragraph
	statusList     *widgets.List
	errorList      *widgets.List
	latencyHistory []float64
	testConfig     TestConfig
}

// New initialises the terminal and creates a Dashboard. shutdownFunc is
// called when the user presses q or Ctrl-C.
func New(collector *metrics.Collector, cfg TestConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := newDashboard(collector, cfg, shutdownFunc)
	d.setupGrid()
	return d, nil
}

func newDashboard(collector *metrics.Collector, cfg TestConfig, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, historySize),
		testConfig:     cfg,
	}
	d.initWidgets()
	return d
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Test Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Completed"
	d.progressGauge.BarColor = ui.ColorGreen
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.inFlightGauge = widgets.NewGauge()
	d.inFlightGauge.Title = "In Flight"
	d.inFlightGauge.BarColor = ui.ColorBlue
	d.inFlightGauge.BorderStyle.Fg = ui.ColorCyan
	d.inFlightGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	sparkline := widgets.NewSparkline()
	sparkline.Title = "P50 (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Waiting for data..."
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.statusList = widgets.NewList()
	d.statusList.Title = "Status Codes"
	d.statusList.Rows = []string{"Awaiting responses"}
	d.statusList.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Transport Errors"
	d.errorList.Rows = []string{"[No transport errors](fg:green)"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(0.5, d.progressGauge),
			ui.NewCol(0.5, d.inFlightGauge),
		),
		ui.NewRow(0.36,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.5, d.statusList),
			ui.NewCol(0.5, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Stop() ends the loop once the run has drained.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update(d.collector.Stats(d.collector.Elapsed()))
			d.render()
		}
	}
}

// update refreshes all widget data from a stats snapshot.
func (d *Dashboard) update(stats metrics.Stats) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if stats.Total > 0 {
		d.latencyHistory = append(d.latencyHistory, stats.P50LatencyMs)
		if len(d.latencyHistory) > historySize {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf(
			"Latency | P50: %.2fms | Min: %.2fms | Max: %.2fms",
			stats.P50LatencyMs,
			stats.MinLatencyMs,
			stats.MaxLatencyMs,
		)
	}

	d.progressGauge.Percent = percentOf(stats.Total, int64(d.testConfig.Total))
	d.progressGauge.Label = fmt.Sprintf("%d / %d", stats.Total, d.testConfig.Total)

	d.inFlightGauge.Percent = percentOf(stats.InFlight, int64(d.testConfig.Concurrency))
	d.inFlightGauge.Label = fmt.Sprintf("%d / %d", stats.InFlight, d.testConfig.Concurrency)

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s | OK: %d | Server errors: %d | Transport errors: %d | RPS: %.1f",
		d.testConfig.TargetURL,
		d.formatTestParams(),
		stats.Duration.Round(time.Second),
		stats.OK,
		stats.ServerErrors,
		stats.TransportErrors,
		stats.RequestsPerSec,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms\nMax:  %.2fms",
		stats.MinLatencyMs,
		stats.MeanLatencyMs,
		stats.P50LatencyMs,
		stats.P90LatencyMs,
		stats.P99LatencyMs,
		stats.MaxLatencyMs,
	)

	d.statusList.Rows = formatStatusRows(stats.StatusCodes)
	d.errorList.Rows = formatErrorRows(stats.Errors)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func percentOf(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(min(part*100/whole, 100))
}

func formatStatusRows(codes map[int]int) []string {
	rows := metrics.FlattenStatusCodes(codes)
	if len(rows) == 0 {
		return []string{"Awaiting responses"}
	}
	rows = rows[:min(len(rows), maxListRows)]
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		colour := "green"
		switch {
		case row.Code >= 500:
			colour = "red"
		case row.Code >= 400:
			colour = "yellow"
		}
		formatted = append(formatted, fmt.Sprintf("[%d](fg:%s) %d", row.Code, colour, row.Count))
	}
	return formatted
}

func formatErrorRows(errs map[string]int) []string {
	rows := metrics.FlattenErrors(errs)
	if len(rows) == 0 {
		return []string{"[No transport errors](fg:green)"}
	}
	rows = rows[:min(len(rows), maxListRows)]
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		formatted = append(formatted, fmt.Sprintf("[%s](fg:red) %d", row.Label, row.Count))
	}
	return formatted
}

// formatTestParams formats the test configuration parameters for display.
func (d *Dashboard) formatTestParams() string {
	var parts []string

	// Method (only show if non-default)
	if d.testConfig.Method != "" && d.testConfig.Method != "GET" {
		parts = append(parts, fmt.Sprintf("Method: %s", d.testConfig.Method))
	}
	if d.testConfig.Total > 0 {
		parts = append(parts, fmt.Sprintf("Requests: %d", d.testConfig.Total))
	}
	if d.testConfig.Concurrency > 0 {
		parts = append(parts, fmt.Sprintf("Concurrency: %d", d.testConfig.Concurrency))
	}
	if d.testConfig.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", d.testConfig.Timeout))
	}
	if d.testConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.testConfig.ConfigFile))
	}
	if d.testConfig.RunID != "" {
		parts = append(parts, fmt.Sprintf("Run: %s", d.testConfig.RunID))
	}

	return strings.Join(parts, " | ")
}
