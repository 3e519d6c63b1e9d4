package httpclient

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestBodySourceFromFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "body.txt")
	content := "file body payload"
	if err := os.WriteFile(filePath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	source, err := NewBodySource("", filePath)
	if err != nil {
		t.Fatalf("expected body source, got error: %v", err)
	}
	if source.ContentLength() != int64(len(content)) {
		t.Fatalf("expected length %d, got %d", len(content), source.ContentLength())
	}

	// The file is read once; removing it must not affect later readers.
	if err := os.Remove(filePath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for i := 0; i < 2; i++ {
		reader, err := source.NewReader()
		if err != nil {
			t.Fatalf("expected reader #%d, got error: %v", i+1, err)
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			t.Fatalf("read body #%d failed: %v", i+1, err)
		}
		if string(data) != content {
			t.Fatalf("expected body %q, got %q on iteration %d", content, string(data), i+1)
		}
	}
}

func TestBodySourceEmpty(t *testing.T) {
	source, err := NewBodySource("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reader, _ := source.NewReader()
	if reader != http.NoBody {
		t.Fatalf("expected http.NoBody for an empty payload")
	}
	if source.ContentLength() != 0 {
		t.Fatalf("expected zero length, got %d", source.ContentLength())
	}
}

func TestBodySourceErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, body, file string
	}{
		{"both set", "inline", filepath.Join(dir, "x")},
		{"missing file", "", filepath.Join(dir, "missing.json")},
		{"directory", "", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBodySource(tt.body, tt.file); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
