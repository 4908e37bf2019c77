package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-gfbridge/internal/config"
)

const contactFormGraphQL = `{"data":{"gfForm":{"databaseId":2,"title":"Contact","formFields":{"nodes":[
	{"__typename":"NameField","databaseId":1,"type":"NAME","label":"Name","isRequired":true,
	 "inputs":[{"id":1.3,"label":"First"},{"id":1.6,"label":"Last"}]},
	{"__typename":"EmailField","databaseId":3,"type":"EMAIL","label":"Email","isRequired":true}
]}}}}`

const postsGraphQL = `{"data":{"posts":{"nodes":[
	{"title":"Hello","date":"2024-05-01T10:00:00","categories":{"nodes":[{"name":"News"}]},
	 "excerpt":"<p>Hi</p>","uri":"/hello/","content":"<p>Body</p>"}
]}}}`

type upstreamStub struct {
	mu       sync.Mutex
	last     map[string]any
	status   int
	response string
}

func (u *upstreamStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	u.mu.Lock()
	u.last = body
	status, response := u.status, u.response
	u.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, response)
}

func (u *upstreamStub) received() map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last
}

type fixture struct {
	handler  http.Handler
	upstream *upstreamStub
}

func newFixture(t *testing.T, defaultFormID int) fixture {
	t.Helper()

	wp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if _, ok := req.Variables["first"]; ok {
			_, _ = io.WriteString(w, postsGraphQL)
			return
		}
		if req.Variables["id"] != "2" {
			_, _ = io.WriteString(w, `{"data":{"gfForm":null}}`)
			return
		}
		_, _ = io.WriteString(w, contactFormGraphQL)
	}))
	t.Cleanup(wp.Close)

	stub := &upstreamStub{status: http.StatusOK, response: `{"is_valid":true,"confirmation_message":"We will be in touch."}`}
	gf := httptest.NewServer(stub)
	t.Cleanup(gf.Close)

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"2","title":"Contact","fields":[]}`)
	}))
	t.Cleanup(proxy.Close)

	cfg := config.Config{
		APIURL:         gf.URL,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		ProxyURL:       proxy.URL + "/gf-oauth-proxy=1",
		WordPressURL:   wp.URL,
		Port:           "0",
		DefaultFormID:  defaultFormID,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := newServer(cfg, logger, func(string) string { return "" })
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return fixture{handler: srv.Handler(), upstream: stub}
}

func (f fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
}

func TestServer_HomeRedirectsToDefaultForm(t *testing.T) {
	rec := newFixture(t, 2).do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/forms/2" {
		t.Fatalf("expected redirect to /forms/2, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = newFixture(t, 0).do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a default form, got %d", rec.Code)
	}
}

func TestServer_SubmitEndpointAndMetrics(t *testing.T) {
	f := newFixture(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/gravity-submit", strings.NewReader(`{"form_id":2,"input_values":{"input_3":"jane@example.com"}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := f.upstream.received()["input_3"]; got != "jane@example.com" {
		t.Fatalf("upstream did not receive input_3, got %v", got)
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `gfbridge_submissions_total{outcome="ok"} 1`) {
		t.Fatalf("submission counter missing from metrics output")
	}
}

func TestServer_SchemaEndpoint(t *testing.T) {
	rec := newFixture(t, 0).do(t, httptest.NewRequest(http.MethodGet, "/api/gravity-forms?id=2", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"title":"Contact"`) {
		t.Fatalf("unexpected schema response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_OpenAPIDocument(t *testing.T) {
	rec := newFixture(t, 0).do(t, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "submitForm") {
		t.Fatalf("openapi document missing submitForm operation")
	}
}

func TestServer_ShowForm(t *testing.T) {
	rec := newFixture(t, 0).do(t, httptest.NewRequest(http.MethodGet, "/forms/2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`action="/forms/2"`, `name="input_1.3"`, `name="input_3"`, `<h2 class="gf-contact__title">Contact</h2>`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestServer_ShowFormNotFound(t *testing.T) {
	f := newFixture(t, 0)
	for _, path := range []string{"/forms/abc", "/forms/0", "/forms/42"} {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/forms/2", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestServer_SubmitFormSuccess(t *testing.T) {
	f := newFixture(t, 0)
	rec := f.do(t, postForm(url.Values{
		"input_1.3": {"Jane"},
		"input_1.6": {"Doe"},
		"input_3":   {"jane@example.com"},
		"form_id":   {"99"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "We will be in touch.") {
		t.Fatalf("expected confirmation in page:\n%s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "<form") {
		t.Fatalf("form should not render after success")
	}

	got := f.upstream.received()
	if got["input_1"] != "Jane Doe" || got["input_3"] != "jane@example.com" {
		t.Fatalf("unexpected upstream payload %v", got)
	}
}

func TestServer_SubmitFormValidation(t *testing.T) {
	f := newFixture(t, 0)
	f.upstream.mu.Lock()
	f.upstream.status = http.StatusBadRequest
	f.upstream.response = `{"is_valid":false,"validation_messages":{"3":"Please enter a valid email."}}`
	f.upstream.mu.Unlock()

	rec := f.do(t, postForm(url.Values{"input_1.3": {"Jane"}, "input_3": {"nope"}}))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Please enter a valid email.", `value="Jane"`, `aria-invalid="true"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
}

func TestServer_SubmitFormValidationWithSuccessStatus(t *testing.T) {
	f := newFixture(t, 0)
	f.upstream.mu.Lock()
	f.upstream.status = http.StatusOK
	f.upstream.response = `{"is_valid":false,"validation_messages":{"3":"Please enter a valid email."}}`
	f.upstream.mu.Unlock()

	rec := f.do(t, postForm(url.Values{"input_1.3": {"Jane"}, "input_3": {"nope"}}))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<form", "Please enter a valid email.", `value="Jane"`, `value="nope"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Thanks!") {
		t.Fatalf("rejected submission rendered a confirmation:\n%s", body)
	}
}

func TestServer_SubmitFormUpstreamFailure(t *testing.T) {
	f := newFixture(t, 0)
	f.upstream.mu.Lock()
	f.upstream.status = http.StatusServiceUnavailable
	f.upstream.response = `{"message":"Maintenance"}`
	f.upstream.mu.Unlock()

	rec := f.do(t, postForm(url.Values{"input_3": {"jane@example.com"}}))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `role="alert">Maintenance</p>`) {
		t.Fatalf("expected upstream message in page:\n%s", rec.Body.String())
	}
}

func TestServer_Posts(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/posts?first=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data []postView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].URI != "/hello/" || payload.Data[0].Categories[0] != "News" {
		t.Fatalf("unexpected posts %+v", payload.Data)
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/posts?first=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for first=0, got %d", rec.Code)
	}
}

func TestServer_CheckDocumentedRoutes(t *testing.T) {
	cfg := config.Config{ProxyURL: config.DefaultProxyURL, WordPressURL: config.DefaultWordPressURL, Port: "0"}
	srv, err := newServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), func(string) string { return "" })
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.checkDocumented(); err != nil {
		t.Fatalf("documented routes: %v", err)
	}

	srv.router = chi.NewRouter()
	if err := srv.checkDocumented(); err == nil || !strings.Contains(err.Error(), "getFormFields") {
		t.Fatalf("expected missing route error, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug") != slog.LevelDebug || parseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unexpected level parsing")
	}
}
