package metrics

import (
	"reflect"
	"testing"
)

func TestFlattenStatusCodes(t *testing.T) {
	tests := []struct {
		name  string
		codes map[int]int
		want  []StatusBucket
	}{
		{
			name:  "nil codes",
			codes: nil,
			want:  nil,
		},
		{
			name:  "single code",
			codes: map[int]int{200: 10},
			want:  []StatusBucket{{Code: 200, Count: 10}},
		},
		{
			name:  "sorted by count desc",
			codes: map[int]int{200: 10, 500: 5, 404: 7},
			want: []StatusBucket{
				{Code: 200, Count: 10},
				{Code: 404, Count: 7},
				{Code: 500, Count: 5},
			},
		},
		{
			name:  "ties sorted by code",
			codes: map[int]int{503: 3, 201: 3, 500: 3},
			want: []StatusBucket{
				{Code: 201, Count: 3},
				{Code: 500, Count: 3},
				{Code: 503, Count: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlattenStatusCodes(tt.codes); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FlattenStatusCodes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlattenErrors(t *testing.T) {
	got := FlattenErrors(map[string]int{"timeout": 2, "dns": 2, "connection_refused": 5})
	want := []ErrorBucket{
		{Kind: "connection_refused", Label: "Connection refused", Count: 5},
		{Kind: "dns", Label: "DNS lookup failed", Count: 2},
		{Kind: "timeout", Label: "Request timeout", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FlattenErrors() = %v, want %v", got, want)
	}
	if FlattenErrors(nil) != nil {
		t.Fatalf("expected nil for no errors")
	}
}

func TestFriendlyErrorName(t *testing.T) {
	tests := map[string]string{
		"":                   "Unknown error",
		"tls":                "TLS handshake failed",
		"CANCELED":           "Canceled",
		"broken_pipe":        "Broken pipe",
		"too-many-redirects": "Too many redirects",
	}
	for in, want := range tests {
		if got := FriendlyErrorName(in); got != want {
			t.Errorf("FriendlyErrorName(%q) = %q, want %q", in, got, want)
		}
	}
}
