package upstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds how much of an upstream response is read.
const MaxBodyBytes = 4 << 20

// ErrBodyTooLarge marks a response body longer than MaxBodyBytes.
var ErrBodyTooLarge = errors.New("upstream: response body too large")

// ReadBody reads the response body as raw bytes; callers decode it themselves
// because upstream bodies are not guaranteed to be JSON. Bodies over
// MaxBodyBytes are a 502 rather than a silently truncated document.
func ReadBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upstream: read body: %w", err)
	}
	if len(data) > MaxBodyBytes {
		return nil, &Error{Kind: KindUpstreamMalformed, Code: http.StatusBadGateway, Message: "Upstream response too large", Err: ErrBodyTooLarge}
	}
	return data, nil
}

// DecodeSuccess validates a 2xx body: empty bodies yield a 502 and bodies that
// do not parse yield a 500. The raw JSON is returned untouched.
func DecodeSuccess(data []byte, emptyMessage, malformedMessage string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &Error{Kind: KindUpstreamEmpty, Code: http.StatusBadGateway, Message: emptyMessage}
	}
	if !json.Valid(trimmed) {
		var decoded any
		err := json.Unmarshal(trimmed, &decoded)
		return nil, &Error{Kind: KindUpstreamMalformed, Code: http.StatusInternalServerError, Message: malformedMessage, Err: err}
	}
	return json.RawMessage(trimmed), nil
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// Snippet shortens a body for log output.
func Snippet(data []byte, limit int) string {
	if limit <= 0 || len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
