package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// BodySource yields a fresh reader over the same payload for every request.
type BodySource interface {
	NewReader() (io.ReadCloser, error)
	ContentLength() int64
}

// NewBodySource returns the payload given inline or read from bodyFile. The
// file is read once; every request replays the same bytes.
func NewBodySource(body, bodyFile string) (BodySource, error) {
	bodyFile = strings.TrimSpace(bodyFile)
	if body != "" && bodyFile != "" {
		return nil, errors.New("body and body file cannot both be provided")
	}

	if body != "" {
		return bytesBodySource(body), nil
	}

	if bodyFile != "" {
		info, err := os.Stat(bodyFile)
		if err != nil {
			return nil, fmt.Errorf("body file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("body file %q is a directory", bodyFile)
		}
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return nil, fmt.Errorf("body file: %w", err)
		}
		return bytesBodySource(data), nil
	}

	return bytesBodySource(nil), nil
}

type bytesBodySource []byte

func (s bytesBodySource) NewReader() (io.ReadCloser, error) {
	if len(s) == 0 {
		return http.NoBody, nil
	}
	return io.NopCloser(bytes.NewReader(s)), nil
}

func (s bytesBodySource) ContentLength() int64 { return int64(len(s)) }
