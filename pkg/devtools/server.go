package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/scheduler"
)

// Config configures a Server.
type Config struct {
	// Runtime is the inspected runtime. Required.
	Runtime *component.Runtime

	// Loop is the goroutine the runtime runs on. Required.
	Loop *scheduler.Loop

	// Hub streams the feed. Optional.
	Hub *Hub

	// Gatherer backs /metrics. Optional.
	Gatherer prometheus.Gatherer

	// Exporter backs POST /snapshot. Optional.
	Exporter Exporter

	Logger *slog.Logger

	// Now is used for snapshot names. Default: time.Now.
	Now func() time.Time
}

// Server serves the devtools routes.
type Server struct {
	config Config
	logger *slog.Logger
	router chi.Router
}

// NewServer creates a server.
func NewServer(config Config) (*Server, error) {
	if config.Runtime == nil || config.Loop == nil {
		return nil, errors.New("devtools: runtime and loop are required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	s := &Server{
		config: config,
		logger: config.Logger.With("component", "devtools"),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/instances", s.handleInstances)
	r.Get("/instances/{id}", s.handleInstance)
	r.Get("/stats", s.handleStats)
	r.Post("/snapshot", s.handleSnapshot)
	if s.config.Hub != nil {
		r.Handle("/ws", s.config.Hub)
	}
	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("devtools listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// snapshot reads the forest on the runtime loop.
func (s *Server) snapshot(ctx context.Context) ([]component.Snapshot, error) {
	var snaps []component.Snapshot
	err := s.config.Loop.Call(ctx, func() {
		snaps = s.config.Runtime.Snapshot()
	})
	return snaps, err
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.snapshot(r.Context())
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}
	body, err := json.Marshal(snaps)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleInstance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid instance id: %w", err))
		return
	}
	var (
		snap  component.Snapshot
		found bool
	)
	err = s.config.Loop.Call(r.Context(), func() {
		if inst, ok := s.config.Runtime.Lookup(component.ID(id)); ok {
			snap, found = inst.Snapshot(), true
		}
	})
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}
	if !found {
		s.fail(w, http.StatusNotFound, fmt.Errorf("instance %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Stats is the /stats payload.
type Stats struct {
	Instances int    `json:"instances"`
	Flushes   uint64 `json:"flushes"`
	Pending   int    `json:"pending"`
	Clients   int    `json:"clients"`
	Sent      uint64 `json:"sent"`
	Dropped   uint64 `json:"dropped"`
	Summary   string `json:"summary"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var st Stats
	err := s.config.Loop.Call(r.Context(), func() {
		rt := s.config.Runtime
		st.Instances = rt.Len()
		st.Flushes = rt.Scheduler().Flushes()
		st.Pending = rt.Scheduler().Pending()
	})
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}
	if hub := s.config.Hub; hub != nil {
		st.Clients = hub.Clients()
		st.Sent, st.Dropped = hub.Stats()
	}
	st.Summary = fmt.Sprintf("%s instances, %s flushes", humanize.Comma(int64(st.Instances)), humanize.Comma(int64(st.Flushes)))
	writeJSON(w, http.StatusOK, st)
}

// SnapshotResult is the POST /snapshot payload.
type SnapshotResult struct {
	Location string `json:"location"`
	Bytes    int    `json:"bytes"`
	Size     string `json:"size"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.config.Exporter == nil {
		s.fail(w, http.StatusNotImplemented, ErrNoExporter)
		return
	}
	snaps, err := s.snapshot(r.Context())
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}
	body, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	name := fmt.Sprintf("snapshot-%s.json", s.config.Now().UTC().Format("20060102T150405Z"))
	loc, err := s.config.Exporter.Export(r.Context(), name, body)
	if err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	s.logger.Info("snapshot exported", "location", loc, "size", humanize.Bytes(uint64(len(body))))
	writeJSON(w, http.StatusCreated, SnapshotResult{
		Location: loc,
		Bytes:    len(body),
		Size:     humanize.Bytes(uint64(len(body))),
	})
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
