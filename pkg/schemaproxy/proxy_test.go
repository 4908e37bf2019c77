package schemaproxy_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-gfbridge/pkg/schemaproxy"
	"github.com/goliatone/go-gfbridge/pkg/upstream"
)

func newProxy(t *testing.T, handler http.HandlerFunc) *schemaproxy.Proxy {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return schemaproxy.New(
		schemaproxy.WithProxyURL(srv.URL+"/?gf-oauth-proxy=1"),
		schemaproxy.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestFetch_BuildsProxyTarget(t *testing.T) {
	proxy := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "/wp-json/gf/v2/forms/2" {
			t.Errorf("unexpected proxied id %q", got)
		}
		if got := r.URL.Query().Get("gf-oauth-proxy"); got != "1" {
			t.Errorf("proxy marker dropped: %q", got)
		}
		_, _ = io.WriteString(w, `{"id":"2","title":"Contact"}`)
	})

	schema, err := proxy.Fetch(context.Background(), "2")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(schema) != `{"id":"2","title":"Contact"}` {
		t.Fatalf("expected raw schema, got %s", schema)
	}
}

func TestFetch_Errors(t *testing.T) {
	cases := []struct {
		name     string
		id       string
		status   int
		body     string
		wantCode int
		wantMsg  string
	}{
		{name: "missing id", id: "", wantCode: http.StatusBadRequest, wantMsg: schemaproxy.MessageMissingID},
		{name: "non numeric id", id: "2&x=y", wantCode: http.StatusBadRequest, wantMsg: "Invalid id"},
		{name: "zero id", id: "0", wantCode: http.StatusBadRequest, wantMsg: "Invalid id"},
		{name: "upstream text", id: "2", status: http.StatusNotFound, body: "Form not found", wantCode: http.StatusNotFound, wantMsg: "Form not found"},
		{name: "upstream empty error", id: "2", status: http.StatusUnauthorized, wantCode: http.StatusUnauthorized, wantMsg: schemaproxy.MessageRequestFailed},
		{name: "empty body", id: "2", status: http.StatusOK, wantCode: http.StatusBadGateway, wantMsg: schemaproxy.MessageEmptyResponse},
		{name: "invalid json", id: "2", status: http.StatusOK, body: "<html>", wantCode: http.StatusInternalServerError, wantMsg: schemaproxy.MessageInvalidJSON},
		{name: "no content", id: "2", status: http.StatusNoContent, wantCode: http.StatusBadGateway, wantMsg: schemaproxy.MessageEmptyResponse},
		{name: "oversized body", id: "2", status: http.StatusOK, body: strings.Repeat("a", upstream.MaxBodyBytes+1), wantCode: http.StatusBadGateway, wantMsg: "Upstream response too large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proxy := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := proxy.Fetch(context.Background(), tc.id)
			upErr, ok := upstream.As(err)
			if !ok {
				t.Fatalf("expected upstream error, got %v", err)
			}
			if upErr.StatusCode() != tc.wantCode || upErr.Message != tc.wantMsg {
				t.Fatalf("unexpected error: code=%d msg=%q", upErr.StatusCode(), upErr.Message)
			}
		})
	}
}

func TestFetch_AcceptsAny2xx(t *testing.T) {
	proxy := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = io.WriteString(w, `{"id":"2"}`)
	})
	schema, err := proxy.Fetch(context.Background(), "2")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(schema) != `{"id":"2"}` {
		t.Fatalf("unexpected schema %s", schema)
	}
}

func TestTargetURL_RejectsBadProxy(t *testing.T) {
	proxy := schemaproxy.New(schemaproxy.WithProxyURL("not a url"))
	_, err := proxy.TargetURL("2")
	upErr, ok := upstream.As(err)
	if !ok || upErr.Kind != upstream.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
