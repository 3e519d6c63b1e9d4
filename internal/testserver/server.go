// Package testserver is a small HTTP target for exercising volley locally
// and in tests.
package testserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

// MaxDelay bounds /delay so a typo cannot park a connection for hours.
const MaxDelay = time.Minute

// Server routes:
//
//	/echo           echoes method, path, headers and body as JSON
//	/status/{code}  responds with the given status code
//	/delay/{ms}     waits ms milliseconds, then responds 200
type Server struct {
	router *mux.Router
	hits   atomic.Int64
}

func New() *Server {
	s := &Server{router: mux.NewRouter()}
	s.router.Use(s.count)
	s.router.HandleFunc("/echo", handleEcho)
	s.router.HandleFunc("/status/{code:[0-9]{3}}", handleStatus)
	s.router.HandleFunc("/delay/{ms:[0-9]+}", handleDelay)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "not found", "path": r.URL.Path})
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hits returns how many requests the server has handled.
func (s *Server) Hits() int64 { return s.hits.Load() }

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		next.ServeHTTP(w, r)
	})
}

func handleEcho(w http.ResponseWriter, r *http.Request) {
	body := ""
	if r.Body != nil {
		bodyBytes, _ := io.ReadAll(r.Body)
		body = string(bodyBytes)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"method":       r.Method,
		"path":         r.URL.Path,
		"query":        r.URL.RawQuery,
		"headers":      r.Header,
		"body":         body,
		"content_type": r.Header.Get("Content-Type"),
		"timestamp":    time.Now().UnixNano(),
	})
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	code, _ := strconv.Atoi(mux.Vars(r)["code"])
	if code < 100 || code > 599 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "status must be 100-599"})
		return
	}
	respondJSON(w, code, map[string]any{"status": code})
}

func handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(mux.Vars(r)["ms"])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid delay"})
		return
	}
	delay := min(time.Duration(ms)*time.Millisecond, MaxDelay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		respondJSON(w, http.StatusOK, map[string]any{"delay_ms": delay.Milliseconds()})
	case <-r.Context().Done():
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
