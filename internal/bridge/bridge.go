/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package bridge serializes markup snapshots to and from the persistence
// collaborator over HTTP. Two modes exist: the single mutable live markup
// per blueprint (overwritten on save, last write wins, no version check) and
// independently named saves (created and listed, never implicitly deleted).
// Calls are plain request/response round-trips; the editing session keeps
// running while a save is in flight.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bluemark/internal/domain"
	applog "bluemark/internal/log"
	"bluemark/internal/schema"
)

// Client talks to the persistence collaborator's HTTP API.
type Client struct {
	BaseURL string
	Token   string // bearer token, may be empty for open deployments

	// StrictWire, when set, validates outgoing markup against the wire
	// schema before sending. Decode paths always validate structurally.
	StrictWire bool

	client *http.Client
	log    *slog.Logger
}

// NewClient normalizes the base URL and applies the default timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     applog.WithComponent("bridge"),
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		var e struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		}
		if jerr := json.NewDecoder(resp.Body).Decode(&e); jerr == nil && e.Reason != "" {
			return &ValidationError{Field: e.Field, Reason: e.Reason}
		}
		return &ValidationError{Field: "request", Reason: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NetworkError{Op: method + " " + path, Err: fmt.Errorf("server: %s", resp.Status)}
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return &NetworkError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// LoadLive fetches a blueprint and decodes its live markup into the initial
// snapshot. Malformed stored markup is not a blocking error: the snapshot
// falls back to empty, the failure is logged, and the blueprint still opens.
func (c *Client) LoadLive(ctx context.Context, blueprintID string) (domain.Snapshot, *domain.Blueprint, error) {
	var bp domain.Blueprint
	if err := c.doJSON(ctx, http.MethodGet, "/api/blueprints/"+url.PathEscape(blueprintID), nil, &bp); err != nil {
		return nil, nil, err
	}
	snap, err := domain.DecodeSnapshot(bp.LiveMarkup)
	if err != nil {
		derr := &DecodeError{BlueprintID: blueprintID, Err: err}
		c.log.Warn("live markup undecodable, opening empty",
			slog.String("blueprint", blueprintID), slog.Any("err", derr))
		return domain.Snapshot{}, &bp, nil
	}
	return snap, &bp, nil
}

type saveLiveRequest struct {
	MarkupJSON string `json:"markupJson"`
}

// SaveLiveResult mirrors the collaborator's response to a live overwrite.
type SaveLiveResult struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SaveLive serializes the snapshot and overwrites the blueprint's live
// markup. There is no merge and no version precondition: concurrent sessions
// race and the last response to land wins.
func (c *Client) SaveLive(ctx context.Context, blueprintID string, snap domain.Snapshot) (*SaveLiveResult, error) {
	raw, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if c.StrictWire {
		if err := schema.ValidateMarkup(raw); err != nil {
			return nil, &ValidationError{Field: "markup", Reason: err.Error()}
		}
	}
	var res SaveLiveResult
	path := "/api/blueprints/" + url.PathEscape(blueprintID) + "/markup"
	if err := c.doJSON(ctx, http.MethodPut, path, saveLiveRequest{MarkupJSON: raw}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type createSaveRequest struct {
	Name        string `json:"name"`
	MarkupJSON  string `json:"markupJson"`
	Description string `json:"description,omitempty"`
	IsShared    bool   `json:"isShared"`
}

// SaveNamed creates a new named save of the snapshot. An empty name is
// rejected locally before anything is sent.
func (c *Client) SaveNamed(ctx context.Context, blueprintID, name string, snap domain.Snapshot, description string, isShared bool) (*domain.NamedSave, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "save name must not be empty"}
	}
	raw, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if c.StrictWire {
		if err := schema.ValidateMarkup(raw); err != nil {
			return nil, &ValidationError{Field: "markup", Reason: err.Error()}
		}
	}
	var save domain.NamedSave
	path := "/api/blueprints/" + url.PathEscape(blueprintID) + "/saves"
	req := createSaveRequest{Name: name, MarkupJSON: raw, Description: description, IsShared: isShared}
	if err := c.doJSON(ctx, http.MethodPost, path, req, &save); err != nil {
		return nil, err
	}
	return &save, nil
}

// ListNamed returns all saves for a blueprint, most recently updated first.
func (c *Client) ListNamed(ctx context.Context, blueprintID string) ([]domain.NamedSave, error) {
	var saves []domain.NamedSave
	path := "/api/blueprints/" + url.PathEscape(blueprintID) + "/saves"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &saves); err != nil {
		return nil, err
	}
	return saves, nil
}

// LoadNamed fetches one save and decodes its snapshot. The caller replaces
// the working element list with it and must reseed history to a single
// entry, otherwise the stack no longer matches what is rendered. Unlike
// LoadLive, a decode failure here is surfaced: the user asked for this
// specific save, so silently handing back an empty list would be worse than
// the error.
func (c *Client) LoadNamed(ctx context.Context, saveID string) (domain.Snapshot, *domain.NamedSave, error) {
	var save domain.NamedSave
	if err := c.doJSON(ctx, http.MethodGet, "/api/saves/"+url.PathEscape(saveID), nil, &save); err != nil {
		return nil, nil, err
	}
	snap, err := domain.DecodeSnapshot(save.Markup)
	if err != nil {
		return nil, &save, &DecodeError{BlueprintID: save.BlueprintID, Err: err}
	}
	return snap, &save, nil
}
