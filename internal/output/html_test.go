package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/volley/internal/metrics"
)

func TestGenerateHTMLReport(t *testing.T) {
	s := sampleSummary(t)

	var buf bytes.Buffer
	err := GenerateHTMLReport(&buf, s, sampleResults(t, s), ReportMetadata{
		TargetURL: "http://localhost:3000/echo",
		Method:    "GET",
	})
	require.NoError(t, err)
	html := buf.String()

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	for _, want := range []string{
		"Volley Load Test Report",
		"http://localhost:3000/echo",
		"Run 01TESTRUN",
		"Total Time In Flight",
		"Avg Time In Flight",
		"p66",
		"p100",
		`<span class="badge badge-error">503</span>`,
		`<span class="badge badge-success">200</span>`,
		"Connection refused",
		"Thresholds (1/2 Passed)",
		"FAIL",
		`style="width: 100.00%"`,
	} {
		assert.Contains(t, html, want)
	}
	assert.NotContains(t, html, "<script", "report must be standalone")
}

func TestGenerateHTMLReportMinimal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateHTMLReport(&buf, metrics.Summary{}, nil, ReportMetadata{}))
	html := buf.String()

	assert.Contains(t, html, "No responses received")
	assert.NotContains(t, html, "Thresholds (")
	assert.NotContains(t, html, "Target:")
}

func TestGenerateHTMLReportEscapesTarget(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateHTMLReport(&buf, sampleSummary(t), nil, ReportMetadata{
		TargetURL: `http://example.com/?q=<script>alert(1)</script>`,
	}))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}
