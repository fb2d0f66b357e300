// Package handlers provides the HTTP API for parley.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/engine"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/export"
	"github.com/parleyhq/parley/internal/panels"
	"github.com/parleyhq/parley/internal/persona"
	"github.com/parleyhq/parley/internal/provider"
	"github.com/parleyhq/parley/internal/storage"
)

// backgroundRunTimeout bounds a debate run started over the API.
const backgroundRunTimeout = 30 * time.Minute

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine      *engine.Engine
	registry    *provider.Registry
	broadcaster *events.Broadcaster
	panels      *panels.Manager
	healthCache *providerHealthCache
}

// New creates a new Handler. The broadcaster must be wired into the
// engine's event sink by the caller; the stream endpoint subscribes to it
// for live events.
func New(eng *engine.Engine, registry *provider.Registry, broadcaster *events.Broadcaster, rosters *panels.Manager) *Handler {
	return &Handler{
		engine:      eng,
		registry:    registry,
		broadcaster: broadcaster,
		panels:      rosters,
		healthCache: newProviderHealthCache(defaultProviderHealthCachePath(), providerHealthCacheTTL),
	}
}

// Router builds the HTTP route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Minute))

	r.Get("/healthz", h.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", h.handleListProviders)
		r.Get("/providers/health", h.handleProvidersHealth)
		r.Get("/personas", h.handleListPersonas)

		r.Route("/debates", func(r chi.Router) {
			r.Get("/", h.handleListDebates)
			r.Post("/", h.handleCreateDebate)

			r.Route("/{threadID}", func(r chi.Router) {
				r.Get("/", h.handleGetDebate)
				r.Delete("/", h.handleDeleteDebate)
				r.Post("/step", h.handleStepDebate)
				r.Post("/run", h.handleRunDebate)
				r.Post("/resume", h.handleResumeDebate)
				r.Get("/events", h.handleListEvents)
				r.Get("/stream", h.handleDebateStream)
				r.Get("/arguments", h.handleListArguments)
				r.Get("/stances", h.handleListStances)
				r.Get("/export/{format}", h.handleExportDebate)
			})
		})

		r.Route("/panels", func(r chi.Router) {
			r.Get("/", h.handleListPanels)
			r.Post("/", h.handleSavePanel)
			r.Get("/{name}", h.handleGetPanel)
			r.Delete("/{name}", h.handleDeletePanel)
		})
	})

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.json(w, map[string]string{"status": "ok"})
}

// Debate handlers

// createDebateRequest accepts a full panel, a spec string, or a saved
// roster name as the panel source, checked in that order.
type createDebateRequest struct {
	core.NewDebateConfig
	PanelSpec string `json:"panel_spec,omitempty"`
	Roster    string `json:"roster,omitempty"`
	AutoRun   bool   `json:"auto_run,omitempty"`
}

func (h *Handler) handleCreateDebate(w http.ResponseWriter, r *http.Request) {
	var req createDebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Topic) == "" {
		h.jsonError(w, "topic is required", http.StatusBadRequest)
		return
	}

	if err := h.resolvePanel(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := h.engine.CreateDebate(r.Context(), req.NewDebateConfig)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.AutoRun {
		go h.runInBackground(state.ThreadID)
	}

	h.jsonStatus(w, http.StatusCreated, state)
}

// resolvePanel fills req.Panel from whichever source the request used.
func (h *Handler) resolvePanel(req *createDebateRequest) error {
	if len(req.Panel) > 0 {
		return nil
	}

	if req.PanelSpec != "" {
		panel, err := core.ParsePanelistSpecs(req.PanelSpec)
		if err != nil {
			return err
		}
		req.Panel = panel
		return nil
	}

	if req.Roster != "" {
		roster, err := h.panels.Get(req.Roster)
		if err != nil {
			return err
		}
		panel, err := roster.Panel()
		if err != nil {
			return err
		}
		req.Panel = panel
		if req.DebateMode == "" {
			req.DebateMode = roster.DebateMode
		}
		if req.StanceMode == "" {
			req.StanceMode = roster.StanceMode
		}
		if req.MaxRounds == 0 {
			req.MaxRounds = roster.MaxRounds
		}
		return nil
	}

	return fmt.Errorf("panel is required: provide panel, panel_spec or roster")
}

func (h *Handler) handleListDebates(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 {
		limit = 20
	}

	debates, err := h.engine.ListDebates(r.Context(), limit, offset)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.json(w, debates)
}

func (h *Handler) handleGetDebate(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	state, err := h.engine.GetDebate(r.Context(), threadID)
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.json(w, state)
}

func (h *Handler) handleDeleteDebate(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	if err := h.engine.DeleteDebate(r.Context(), threadID); err != nil {
		h.storageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStepDebate(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	state, err := h.engine.Step(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, engine.ErrStepInProgress) {
			h.jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		h.storageError(w, err)
		return
	}

	h.json(w, state)
}

func (h *Handler) handleRunDebate(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	// Existence check before accepting the background run.
	if _, err := h.engine.GetDebate(r.Context(), threadID); err != nil {
		h.storageError(w, err)
		return
	}

	go h.runInBackground(threadID)
	w.WriteHeader(http.StatusAccepted)
}

type resumeRequest struct {
	core.ResumeInput
	Run bool `json:"run,omitempty"`
}

func (h *Handler) handleResumeDebate(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var req resumeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	state, err := h.engine.Resume(r.Context(), threadID, req.ResumeInput)
	if err != nil {
		if errors.Is(err, engine.ErrStepInProgress) {
			h.jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		h.storageError(w, err)
		return
	}

	if req.Run {
		go h.runInBackground(threadID)
	}

	h.json(w, state)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	afterSeq := int64(-1)
	if after := r.URL.Query().Get("after"); after != "" {
		parsed, err := strconv.ParseInt(after, 10, 64)
		if err != nil {
			h.jsonError(w, "invalid after parameter", http.StatusBadRequest)
			return
		}
		afterSeq = parsed
	}

	evs, err := h.engine.Events(r.Context(), threadID, afterSeq)
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.json(w, evs)
}

func (h *Handler) handleListArguments(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	units, err := h.engine.ArgumentUnits(r.Context(), threadID)
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.json(w, units)
}

func (h *Handler) handleListStances(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	stances, err := h.engine.Stances(r.Context(), threadID)
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.json(w, stances)
}

func (h *Handler) handleExportDebate(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	format := chi.URLParam(r, "format")

	state, err := h.engine.GetDebate(r.Context(), threadID)
	if err != nil {
		h.storageError(w, err)
		return
	}

	exporter, err := export.GetExporter(export.Format(format))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := export.GenerateFilename(state, exporter.FileExtension())

	switch exporter.FileExtension() {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
	case "json":
		w.Header().Set("Content-Type", "application/json")
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/markdown")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := exporter.Export(state, w); err != nil {
		slog.Error("Export failed", "thread_id", threadID, "format", format, "error", err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
	}
}

// runInBackground drives a debate to its next stop without holding the
// request open.
func (h *Handler) runInBackground(threadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundRunTimeout)
	defer cancel()

	if _, err := h.engine.Run(ctx, threadID); err != nil {
		slog.Error("Background run failed", "thread_id", threadID, "error", err)
	}
}

// Provider handlers

func (h *Handler) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.registry.List()
	result := make([]map[string]any, 0, len(providers))

	for _, p := range providers {
		if p.Name() == "mock" {
			continue
		}
		result = append(result, map[string]any{
			"name":          p.Name(),
			"display_name":  p.DisplayName(),
			"available":     p.Available(),
			"models":        p.Models(),
			"default_model": p.DefaultModel(),
		})
	}

	h.json(w, result)
}

func (h *Handler) handleProvidersHealth(w http.ResponseWriter, r *http.Request) {
	result := make(map[string]provider.HealthStatus)

	for _, p := range h.registry.List() {
		if p.Name() == "mock" {
			continue
		}

		if status, ok := h.healthCache.GetFresh(p.Name()); ok {
			result[p.Name()] = status
			continue
		}

		status := provider.HealthCheck(r.Context(), p)
		h.healthCache.Set(p.Name(), status)
		result[p.Name()] = status
	}

	h.json(w, map[string]any{"providers": result})
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	h.json(w, persona.DefaultPersonas())
}

// Panel roster handlers

func (h *Handler) handleListPanels(w http.ResponseWriter, r *http.Request) {
	rosters, err := h.panels.List()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rosters == nil {
		rosters = []*panels.Roster{}
	}
	h.json(w, rosters)
}

func (h *Handler) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	roster, err := h.panels.Get(name)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.json(w, roster)
}

func (h *Handler) handleSavePanel(w http.ResponseWriter, r *http.Request) {
	var roster panels.Roster
	if err := json.NewDecoder(r.Body).Decode(&roster); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.panels.Save(&roster); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.jsonStatus(w, http.StatusCreated, roster)
}

func (h *Handler) handleDeletePanel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.panels.Delete(name); err != nil {
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (h *Handler) json(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// storageError maps storage failures onto HTTP status codes: a missing
// thread is the client's mistake, everything else is ours.
func (h *Handler) storageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.jsonError(w, err.Error(), http.StatusInternalServerError)
}

// requestLogger logs one line per completed request. Stream requests are
// skipped: they stay open for the debate's lifetime.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/stream") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
