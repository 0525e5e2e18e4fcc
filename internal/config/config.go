/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
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

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
// The generation service API key never lives in the file; it is kept in the OS keyring.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	DefaultStyle   string `yaml:"default_style"`
	DefaultTier    string `yaml:"default_tier"` // standard | high | ultra
}

type GeneratorConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// TimeoutMs of 0 disables the client timeout; generation calls then run until the service answers.
	TimeoutMs int `yaml:"timeout_ms"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	DataDir     string `yaml:"data_dir"`
	DatabaseURL string `yaml:"database_url"` // optional Postgres; empty uses the embedded SQLite store
}

type RenderConfig struct {
	Preset   string `yaml:"preset"`
	FontFile string `yaml:"font_file"` // optional TTF; the bundled Go font is used otherwise
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Generator     GeneratorConfig `yaml:"generator"`
	Server        ServerConfig    `yaml:"server"`
	Render        RenderConfig    `yaml:"render"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, DefaultStyle: "Bold Creator", DefaultTier: "standard"},
		Generator:     GeneratorConfig{BaseURL: "http://localhost:8090", Model: "layout-prompt-1", TimeoutMs: 0},
		Server:        ServerConfig{Addr: ":8080", DataDir: ""},
		Render:        RenderConfig{Preset: "youtube"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvGeneratorURL     = "TS_GENERATOR_URL"
	EnvGeneratorModel   = "TS_GENERATOR_MODEL"
	EnvGeneratorTimeout = "TS_GENERATOR_TIMEOUT_MS"
	EnvGeneratorKey     = "TS_GENERATOR_KEY"
	EnvTelemetryOptIn   = "TS_TELEMETRY_OPT_IN"
	EnvServerAddr       = "TS_ADDR"
	EnvDataDir          = "TS_DATA_DIR"
	EnvDatabaseURL      = "TS_DATABASE_URL"
	EnvRenderPreset     = "TS_RENDER_PRESET"
	EnvLogLevel         = "TS_LOG_LEVEL"
	EnvLogFormat        = "TS_LOG_FORMAT"
	EnvLogSource        = "TS_LOG_SOURCE"
	EnvLogFile          = "TS_LOG_FILE"
)

const (
	keyringService = "thumbstudio"
	keyringAPIKey  = "generator_api_key"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

var tokenStore TokenStore = osKeyring{}

// UseTokenStore swaps the keyring implementation and returns a restore func.
func UseTokenStore(ts TokenStore) (restore func()) {
	prev := tokenStore
	tokenStore = ts
	return func() { tokenStore = prev }
}

// configPathOverride is set by tests to avoid touching the real user config.
var configPathOverride string

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if configPathOverride != "" {
		return configPathOverride, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "thumbstudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "thumbstudio")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "thumbstudio")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "thumbstudio")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// The generator API key is returned separately: env TS_GENERATOR_KEY wins over the keyring.
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
	if v := strings.TrimSpace(os.Getenv(EnvGeneratorKey)); v != "" {
		return cfg, v, nil
	}
	key, _ := tokenStore.Get(keyringService, keyringAPIKey)
	return cfg, key, nil
}

// Save writes the user config YAML and persists the API key into the OS keyring (if non-empty).
func Save(cfg AppConfig, apiKey string) error {
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
	if apiKey != "" {
		return tokenStore.Set(keyringService, keyringAPIKey, apiKey)
	}
	return nil
}

// ForgetAPIKey removes the stored generator key. A missing entry is not an error.
func ForgetAPIKey() error {
	err := tokenStore.Delete(keyringService, keyringAPIKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	setString(&dst.General.DefaultStyle, src.General.DefaultStyle)
	if v := strings.ToLower(strings.TrimSpace(src.General.DefaultTier)); v != "" {
		dst.General.DefaultTier = v
	}
	setString(&dst.Generator.BaseURL, src.Generator.BaseURL)
	setString(&dst.Generator.Model, src.Generator.Model)
	if src.Generator.TimeoutMs > 0 {
		dst.Generator.TimeoutMs = src.Generator.TimeoutMs
	}
	setString(&dst.Server.Addr, src.Server.Addr)
	setString(&dst.Server.DataDir, src.Server.DataDir)
	setString(&dst.Server.DatabaseURL, src.Server.DatabaseURL)
	setString(&dst.Render.Preset, src.Render.Preset)
	setString(&dst.Render.FontFile, src.Render.FontFile)
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	setString(&dst.Logging.File, src.Logging.File)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvGeneratorURL)); v != "" {
		cfg.Generator.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGeneratorModel)); v != "" {
		cfg.Generator.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGeneratorTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Generator.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Server.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		cfg.Server.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRenderPreset)); v != "" {
		cfg.Render.Preset = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// GeneratorTimeout returns the generation client timeout; zero means none.
func (g GeneratorConfig) GeneratorTimeout() time.Duration {
	if g.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// DataDirOrDefault resolves the directory holding the embedded store and saved layouts.
func (s ServerConfig) DataDirOrDefault() string {
	if s.DataDir != "" {
		return s.DataDir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "thumbstudio")
	}
	return filepath.Join(os.TempDir(), "thumbstudio")
}
