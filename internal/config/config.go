/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in
// the user scope. Environment variables are treated as read-only overrides
// at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type EditorConfig struct {
	DefaultColor       string  `yaml:"default_color"`
	DefaultStrokeWidth float64 `yaml:"default_stroke_width"`
	AutosaveDraft      bool    `yaml:"autosave_draft"`
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark" (informational for now)
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Editor        EditorConfig  `yaml:"editor"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Backend:       BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000, TLSInsecure: false},
		Editor:        EditorConfig{DefaultColor: "#d32f2f", DefaultStrokeWidth: 2, AutosaveDraft: true},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "BMK_BACKEND_URL"
	EnvBackendTimeoutMs = "BMK_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "BMK_TLS_INSECURE"
	EnvTelemetryOptIn   = "BMK_TELEMETRY_OPT_IN"
	EnvDefaultColor     = "BMK_DEFAULT_COLOR"
	EnvAutosaveDraft    = "BMK_AUTOSAVE_DRAFT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "BMK_LOG_LEVEL"
	EnvLogFormat = "BMK_LOG_FORMAT"
	EnvLogSource = "BMK_LOG_SOURCE"
	EnvLogFile   = "BMK_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "BlueMark"
	keyringToken   = "backend_token"
)

// TokenStore abstracts keyring, so we can stub in tests.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// osKeyring implements TokenStore via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}
func (osKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// SetTokenStore swaps the keyring backend, returning the previous one.
// Intended for tests.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "BlueMark")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "BlueMark")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "bluemark")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. The backend token comes from the OS keyring and is
// returned separately so it never ends up in a YAML dump.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS
// keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ForgetToken removes the stored backend token from the OS keyring.
func ForgetToken() error {
	return tokenStore.Delete(keyringService, keyringToken)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	// editor
	if strings.TrimSpace(src.Editor.DefaultColor) != "" {
		dst.Editor.DefaultColor = strings.TrimSpace(src.Editor.DefaultColor)
	}
	if src.Editor.DefaultStrokeWidth > 0 {
		dst.Editor.DefaultStrokeWidth = src.Editor.DefaultStrokeWidth
	}
	dst.Editor.AutosaveDraft = src.Editor.AutosaveDraft
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultColor)); v != "" {
		cfg.Editor.DefaultColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveDraft)); v != "" {
		cfg.Editor.AutosaveDraft = isTruthy(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func isTruthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var name string
	switch key {
	case "backend.base_url":
		name = EnvBackendURL
	case "backend.timeout_ms":
		name = EnvBackendTimeoutMs
	case "backend.tls_insecure":
		name = EnvBackendTLSInsec
	case "general.telemetry_opt_in":
		name = EnvTelemetryOptIn
	case "editor.default_color":
		name = EnvDefaultColor
	case "editor.autosave_draft":
		name = EnvAutosaveDraft
	case "logging.level":
		name = EnvLogLevel
	case "logging.format":
		name = EnvLogFormat
	case "logging.source":
		name = EnvLogSource
	case "logging.file":
		name = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}

// EffectiveTimeout returns the backend timeout as a duration for http.Client.
func (b BackendConfig) EffectiveTimeout() time.Duration {
	ms := b.TimeoutMs
	if ms <= 0 {
		ms = Defaults().Backend.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}
