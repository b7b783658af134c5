/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend implements the persistence collaborator consumed by the
// markup bridge: blueprint records with a single mutable live markup field
// and independently named saves. The service is plain request/response; the
// only push surface is the in-process save-event hub.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bluemark/internal/domain"
	applog "bluemark/internal/log"
	"bluemark/internal/schema"
	"bluemark/internal/version"
)

// Config holds server configuration.
type Config struct {
	DBURL string // empty selects the in-memory dev store
	Addr  string // http bind address, e.g. ":8080"
}

// ConfigFromEnv reads BMK_PG_DSN / DATABASE_URL and PORT / ADDR.
func ConfigFromEnv() Config {
	cfg := Config{DBURL: os.Getenv("DATABASE_URL"), Addr: ":8080"}
	if v := os.Getenv("BMK_PG_DSN"); v != "" {
		cfg.DBURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	return cfg
}

// Server wires the store, the save-event hub, and the HTTP routes.
type Server struct {
	store Store
	hub   *Hub
	log   *slog.Logger
}

// NewServer builds a server over the given store.
func NewServer(store Store) *Server {
	return &Server{store: store, hub: NewHub(), log: applog.WithComponent("backend")}
}

// Hub exposes the save-event registry, e.g. for an in-process listener.
func (s *Server) Hub() *Hub { return s.hub }

// Routes returns the HTTP handler for the blueprint markup API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.String()})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/jobs/{jobID}/blueprints", s.handleListBlueprints)
		r.Post("/blueprints", s.handleCreateBlueprint)
		r.Get("/blueprints/{id}", s.handleLoadBlueprint)
		r.Put("/blueprints/{id}/markup", s.handleSaveLiveMarkup)
		r.Post("/blueprints/{id}/saves", s.handleCreateNamedSave)
		r.Get("/blueprints/{id}/saves", s.handleListNamedSaves)
		r.Get("/saves/{id}", s.handleGetNamedSave)
	})
	return r
}

// Start runs the HTTP server until ctx is cancelled.
func Start(ctx context.Context, cfg Config) error {
	l := applog.WithComponent("backend")
	var store Store
	if strings.TrimSpace(cfg.DBURL) == "" {
		l.Warn("no database configured, using in-memory dev store")
		store = NewMemStore()
	} else {
		pg, err := OpenPG(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		store = pg
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewServer(store).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	l.Info("listening", slog.String("addr", cfg.Addr))

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleLoadBlueprint(w http.ResponseWriter, r *http.Request) {
	bp, err := s.store.LoadBlueprint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bp)
}

func (s *Server) handleListBlueprints(w http.ResponseWriter, r *http.Request) {
	bps, err := s.store.ListBlueprints(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if bps == nil {
		bps = []domain.Blueprint{}
	}
	writeJSON(w, http.StatusOK, bps)
}

type createBlueprintRequest struct {
	JobID          string `json:"jobId"`
	SourceImageURL string `json:"sourceImageUrl"`
}

func (s *Server) handleCreateBlueprint(w http.ResponseWriter, r *http.Request) {
	var req createBlueprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, "body", "request body is not valid JSON")
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		writeValidation(w, "jobId", "job id must not be empty")
		return
	}
	if strings.TrimSpace(req.SourceImageURL) == "" {
		writeValidation(w, "sourceImageUrl", "source image url must not be empty")
		return
	}
	bp, err := s.store.CreateBlueprint(r.Context(), domain.Blueprint{
		JobID:          req.JobID,
		SourceImageURL: req.SourceImageURL,
		LiveMarkup:     domain.EmptyMarkup,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bp)
}

type saveLiveMarkupRequest struct {
	MarkupJSON string `json:"markupJson"`
}

type saveLiveMarkupResponse struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Server) handleSaveLiveMarkup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req saveLiveMarkupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, "body", "request body is not valid JSON")
		return
	}
	if err := schema.ValidateMarkup(req.MarkupJSON); err != nil {
		writeValidation(w, "markupJson", err.Error())
		return
	}
	bp, err := s.store.SaveLiveMarkup(r.Context(), id, req.MarkupJSON)
	if err != nil {
		s.writeError(w, err)
		return
	}
	now := time.Now().UTC()
	s.hub.Publish(SaveEvent{BlueprintID: bp.ID, Version: bp.Version, SavedAt: now})
	s.log.Info("live markup saved",
		slog.String("blueprint", bp.ID), slog.Int64("version", bp.Version))
	writeJSON(w, http.StatusOK, saveLiveMarkupResponse{ID: bp.ID, Version: bp.Version, UpdatedAt: now})
}

type createNamedSaveRequest struct {
	Name        string `json:"name"`
	MarkupJSON  string `json:"markupJson"`
	Description string `json:"description"`
	IsShared    bool   `json:"isShared"`
	OwnerID     string `json:"ownerId"`
}

func (s *Server) handleCreateNamedSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req createNamedSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, "body", "request body is not valid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeValidation(w, "name", "save name must not be empty")
		return
	}
	if err := schema.ValidateMarkup(req.MarkupJSON); err != nil {
		writeValidation(w, "markupJson", err.Error())
		return
	}
	save, err := s.store.CreateNamedSave(r.Context(), domain.NamedSave{
		BlueprintID: id,
		Name:        req.Name,
		Markup:      req.MarkupJSON,
		Description: req.Description,
		IsShared:    req.IsShared,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, save)
}

func (s *Server) handleListNamedSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := s.store.ListNamedSaves(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if saves == nil {
		saves = []domain.NamedSave{}
	}
	writeJSON(w, http.StatusOK, saves)
}

func (s *Server) handleGetNamedSave(w http.ResponseWriter, r *http.Request) {
	save, err := s.store.GetNamedSave(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, save)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	s.log.Error("request failed", slog.Any("err", err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeValidation(w http.ResponseWriter, field, reason string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"field": field, "reason": reason})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.WithComponent("backend").Error("encode response", slog.Any("err", err))
	}
}
