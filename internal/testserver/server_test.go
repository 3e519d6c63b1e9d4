package testserver_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/torosent/volley/internal/testserver"
)

func get(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Test", "yes")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestEcho(t *testing.T) {
	srv := testserver.New()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	status, body := get(t, http.MethodPost, ts.URL+"/echo?x=1", "hello")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "POST", gjson.Get(body, "method").String())
	assert.Equal(t, "/echo", gjson.Get(body, "path").String())
	assert.Equal(t, "x=1", gjson.Get(body, "query").String())
	assert.Equal(t, "hello", gjson.Get(body, "body").String())
	assert.Equal(t, "yes", gjson.Get(body, "headers.X-Test.0").String())
	assert.Equal(t, int64(1), srv.Hits())
}

func TestStatus(t *testing.T) {
	ts := httptest.NewServer(testserver.New())
	defer ts.Close()

	for _, code := range []int{200, 404, 500, 503} {
		status, body := get(t, http.MethodGet, ts.URL+"/status/"+strconv.Itoa(code), "")
		assert.Equal(t, code, status)
		assert.Equal(t, int64(code), gjson.Get(body, "status").Int())
	}

	status, _ := get(t, http.MethodGet, ts.URL+"/status/999", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = get(t, http.MethodGet, ts.URL+"/status/abc", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDelay(t *testing.T) {
	ts := httptest.NewServer(testserver.New())
	defer ts.Close()

	start := time.Now()
	status, body := get(t, http.MethodGet, ts.URL+"/delay/30", "")
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(30), gjson.Get(body, "delay_ms").Int())
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestNotFoundIsCounted(t *testing.T) {
	srv := testserver.New()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	status, body := get(t, http.MethodGet, ts.URL+"/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "/nope", gjson.Get(body, "path").String())
	assert.Equal(t, int64(1), srv.Hits())
}
