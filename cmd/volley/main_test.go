package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/testserver"
)

func startTarget(t *testing.T) (*testserver.Server, string) {
	t.Helper()
	srv := testserver.New()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunJSONReportAgainstEchoServer(t *testing.T) {
	srv, url := startTarget(t)

	out, _, err := runCLI(t, "-n", "5", "-c", "5", "--json-output", url+"/echo")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out), out)

	assert.Equal(t, int64(5), gjson.Get(out, "total").Int())
	assert.Equal(t, int64(5), gjson.Get(out, "concurrency").Int())
	assert.Equal(t, int64(5), gjson.Get(out, "ok").Int())
	assert.Equal(t, int64(0), gjson.Get(out, "server_errors").Int())
	assert.Equal(t, int64(0), gjson.Get(out, "transport_errors").Int())
	assert.Equal(t, int64(5), gjson.Get(out, "status_codes.200").Int())
	assert.Equal(t, int64(8), gjson.Get(out, "percentiles.#").Int())
	assert.Len(t, gjson.Get(out, "run_id").String(), 26, "run id is a ULID")
	assert.Equal(t, int64(5), srv.Hits())
}

func TestRunCountsServerErrorsAsResponses(t *testing.T) {
	_, url := startTarget(t)

	out, _, err := runCLI(t, "-n", "6", "-c", "2", "-o", "json", url+"/status/503")
	require.NoError(t, err)

	assert.Equal(t, int64(6), gjson.Get(out, "ok").Int())
	assert.Equal(t, int64(6), gjson.Get(out, "server_errors").Int())
	assert.Equal(t, int64(0), gjson.Get(out, "transport_errors").Int())
}

func TestRunCountsTransportErrors(t *testing.T) {
	ts := httptest.NewServer(testserver.New())
	url := ts.URL
	ts.Close()

	out, _, err := runCLI(t, "-n", "4", "-c", "2", "-o", "json", url+"/echo")
	require.NoError(t, err)

	assert.Equal(t, int64(4), gjson.Get(out, "total").Int())
	assert.Equal(t, int64(0), gjson.Get(out, "ok").Int())
	assert.Equal(t, int64(4), gjson.Get(out, "transport_errors").Int())
	assert.Equal(t, int64(4), gjson.Get(out, "errors.connection_refused").Int())
}

func TestRunFailsOnThresholdsAfterReporting(t *testing.T) {
	_, url := startTarget(t)

	out, _, err := runCLI(t, "-n", "3", "-o", "json",
		"--threshold", "http_req_server_error:count == 0",
		"--threshold", "http_requests:count > 100",
		url+"/echo")
	require.ErrorIs(t, err, errThresholdsFailed)

	assert.Equal(t, int64(2), gjson.Get(out, "thresholds.#").Int())
	assert.True(t, gjson.Get(out, "thresholds.0.pass").Bool())
	assert.False(t, gjson.Get(out, "thresholds.1.pass").Bool())
}

func TestRunRejectsInvalidThresholdsBeforeSending(t *testing.T) {
	srv, url := startTarget(t)

	_, _, err := runCLI(t, "--threshold", "latency < 5", url+"/echo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid thresholds")
	assert.Equal(t, int64(0), srv.Hits())
}

func TestRunTextReport(t *testing.T) {
	_, url := startTarget(t)

	out, stderr, err := runCLI(t, "-n", "3", "-c", "1", "--no-color", url+"/echo")
	require.NoError(t, err)

	assert.Contains(t, out, "--- Load Test Results ---")
	assert.Contains(t, out, "Total Requests:       3")
	assert.Contains(t, out, "Concurrency:          1")
	assert.Contains(t, out, "[200] 3 responses")
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, stderr, "Requests: 3/3", "progress line goes to stderr")
}

func TestRunWithoutProgress(t *testing.T) {
	_, url := startTarget(t)

	_, stderr, err := runCLI(t, "-n", "2", "--progress=false", url+"/echo")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestRunYAMLReport(t *testing.T) {
	_, url := startTarget(t)

	out, stderr, err := runCLI(t, "-n", "2", "-o", "yaml", url+"/echo")
	require.NoError(t, err)
	assert.Empty(t, stderr, "no progress line for machine-readable output")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc["total"])
	assert.Equal(t, 2, doc["ok"])
}

func TestRunWritesHTMLReport(t *testing.T) {
	_, url := startTarget(t)
	path := filepath.Join(t.TempDir(), "report.html")

	_, _, err := runCLI(t, "-n", "2", "-o", "json", "--html-output", path, url+"/echo")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Volley Load Test Report")
	assert.Contains(t, string(data), url+"/echo")
}

func TestRunServesMetricsDuringRun(t *testing.T) {
	_, url := startTarget(t)

	out, _, err := runCLI(t, "-n", "3", "-o", "json", "--metrics-addr", "127.0.0.1:0", url+"/echo")
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.Get(out, "ok").Int())
}

func TestRunSendsMethodHeadersAndBody(t *testing.T) {
	srv, url := startTarget(t)

	out, _, err := runCLI(t, "-n", "2", "-o", "json",
		"-X", "post", "-H", "X-Test=1", "--body", `{"a":1}`, url+"/echo")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.Get(out, "ok").Int())
	assert.Equal(t, int64(2), srv.Hits())
}

func TestRunValidationErrors(t *testing.T) {
	_, url := startTarget(t)

	tests := [][]string{
		{"-n", "0", url},
		{"-c", "0", url},
		{"ftp://example.com"},
		{"--dashboard", "-o", "json", url},
		{url, url},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, _, err := runCLI(t, args...)
			require.Error(t, err)
		})
	}
}

func TestRunValidationErrorListsIssues(t *testing.T) {
	_, _, err := runCLI(t, "-n", "0", "-c", "0", "http://localhost:3000/echo")
	var verr config.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.GreaterOrEqual(t, len(verr.Issues()), 2)
}

func TestRunHelp(t *testing.T) {
	t.Setenv("VOLLEY_TARGET", "")
	_, _, err := runCLI(t)
	assert.NoError(t, err)

	_, _, err = runCLI(t, "--help")
	assert.NoError(t, err)
}

func TestRunTargetFromEnvironment(t *testing.T) {
	srv, url := startTarget(t)
	t.Setenv("VOLLEY_TARGET", url+"/echo")
	t.Setenv("VOLLEY_TOTAL", "4")

	out, _, err := runCLI(t, "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, int64(4), gjson.Get(out, "total").Int())
	assert.Equal(t, int64(4), srv.Hits())
}
