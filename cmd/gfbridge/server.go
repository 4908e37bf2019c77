package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-gfbridge/components/gravityforms"
	"github.com/goliatone/go-gfbridge/internal/config"
	"github.com/goliatone/go-gfbridge/pkg/apidoc"
	"github.com/goliatone/go-gfbridge/pkg/forwarder"
	"github.com/goliatone/go-gfbridge/pkg/renderers/contact"
	"github.com/goliatone/go-gfbridge/pkg/schemaproxy"
	"github.com/goliatone/go-gfbridge/pkg/wpgraphql"
)

type server struct {
	cfg       config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	graphql   *wpgraphql.Client
	forwarder *forwarder.Forwarder
	renderer  *contact.Renderer
	apidoc    *apidoc.Document
	routes    gravityforms.Routes
	router    chi.Router
}

// newServer wires the bridge. getenv is consulted on every submission for the
// Gravity Forms credentials.
func newServer(cfg config.Config, logger *slog.Logger, getenv func(string) string) (*server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := gravityforms.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	doc, err := apidoc.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("api doc: %w", err)
	}

	rendererOpts := []contact.Option{
		contact.WithTemplatesDir(cfg.TemplatesDir),
		contact.WithSubmitLabel(cfg.SubmitLabel),
	}
	if manifest := cfg.Theme.Manifest(); manifest != nil {
		rendererOpts = append(rendererOpts, contact.WithTheme(contact.ThemeConfig(manifest, cfg.Theme.Variant)))
	}
	renderer, err := contact.New(rendererOpts...)
	if err != nil {
		return nil, err
	}

	fwd := forwarder.New(
		forwarder.WithSettings(cfg.ForwarderSettings(getenv)),
		forwarder.WithLogger(logger),
	)
	proxy := schemaproxy.New(
		schemaproxy.WithProxyURL(cfg.ProxyURL),
		schemaproxy.WithLogger(logger),
	)
	component := gravityforms.New(
		gravityforms.WithProxy(proxy),
		gravityforms.WithForwarder(fwd),
		gravityforms.WithMetrics(metrics),
		gravityforms.WithLogger(logger),
	)

	s := &server{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		graphql:   wpgraphql.New(wpgraphql.WithURL(cfg.WordPressURL), wpgraphql.WithLogger(logger)),
		forwarder: fwd,
		renderer:  renderer,
		apidoc:    doc,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	routes, err := component.RegisterRoutes(r, "/")
	if err != nil {
		return nil, err
	}
	s.routes = routes

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Handle("/api/openapi.json", doc.Handler())
	r.Get("/api/posts", s.listPosts)
	r.Get("/", s.home)
	r.Get("/forms/{id}", s.showForm)
	r.Post("/forms/{id}", s.submitForm)

	s.router = r
	if err := s.checkDocumented(); err != nil {
		return nil, err
	}
	return s, nil
}

// checkDocumented fails when the OpenAPI document names a route the router
// does not serve.
func (s *server) checkDocumented() error {
	for _, op := range s.apidoc.Operations() {
		if !s.router.Match(chi.NewRouteContext(), op.Method, op.Path) {
			return fmt.Errorf("api doc: %s (%s %s) is not routed", op.ID, op.Method, op.Path)
		}
		s.logger.Debug("route", "operation", op.ID, "method", op.Method, "path", op.Path)
	}
	return nil
}

func (s *server) Handler() http.Handler {
	return s.router
}

func (s *server) home(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DefaultFormID <= 0 {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/forms/"+strconv.Itoa(s.cfg.DefaultFormID), http.StatusFound)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
