// Package config provides the configuration schema, loader, provider
// registry, and file watcher for the advisor service.
package config

import (
	"log/slog"
	"time"

	"github.com/studyvoice/advisor/internal/extract"
	"github.com/studyvoice/advisor/internal/match"
)

// LogLevel controls log verbosity for the advisor server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to the corresponding [slog.Level]. Unrecognised or empty
// values map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure for the advisor.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	LLM        LLMConfig        `yaml:"llm"`
	Matching   MatchingConfig   `yaml:"matching"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Planner    PlannerConfig    `yaml:"planner"`
}

// ServerConfig holds network and logging settings for the advisor server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// CatalogConfig locates the module-catalog document.
type CatalogConfig struct {
	// Source is a filesystem path or an http(s) URL of the catalog JSON.
	// When empty, the service runs with an empty catalog and matching
	// degrades to identity passthrough.
	Source string `yaml:"source"`
}

// LLMConfig configures the remote fallback extractor.
type LLMConfig struct {
	// Primary is the first provider tried for remote extraction. An empty
	// Name disables the remote fallback entirely.
	Primary ProviderEntry `yaml:"primary"`

	// Fallbacks are tried in order when the primary's circuit is open or the
	// call fails.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`

	// Temperature is the sampling temperature for extraction calls.
	// Zero keeps the extractor's default (0.1).
	Temperature float64 `yaml:"temperature"`

	// TimeoutSeconds bounds one remote extraction call. Zero keeps the
	// extractor's default (15s).
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the configured call timeout, or 0 when unset.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProviderEntry is the configuration block shared by all LLM providers.
// The Name field selects the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai",
	// "gemini", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API, if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o").
	Model string `yaml:"model"`

	// Options holds provider-specific values not covered by the standard
	// fields above.
	Options map[string]any `yaml:"options"`
}

// MatchingConfig tunes the catalog-matching cascade. Zero fields keep the
// defaults from [match.DefaultPolicy].
type MatchingConfig struct {
	SignificantWordLen int     `yaml:"significant_word_len"`
	MinTokenLen        int     `yaml:"min_token_len"`
	TokenOverlapFloor  float64 `yaml:"token_overlap_floor"`
	PhoneticThreshold  float64 `yaml:"phonetic_threshold"`
	AcceptFloor        float64 `yaml:"accept_floor"`
}

// Policy converts c into a [match.Policy], filling zero fields with
// defaults.
func (c MatchingConfig) Policy() match.Policy {
	p := match.DefaultPolicy()
	if c.SignificantWordLen > 0 {
		p.SignificantWordLen = c.SignificantWordLen
	}
	if c.MinTokenLen > 0 {
		p.MinTokenLen = c.MinTokenLen
	}
	if c.TokenOverlapFloor > 0 {
		p.TokenOverlapFloor = c.TokenOverlapFloor
	}
	if c.PhoneticThreshold > 0 {
		p.PhoneticThreshold = c.PhoneticThreshold
	}
	if c.AcceptFloor > 0 {
		p.AcceptFloor = c.AcceptFloor
	}
	return p
}

// ExtractionConfig tunes the transcript extractor's context windows and
// name-length guards. Zero fields keep the extractor defaults.
type ExtractionConfig struct {
	CommitBefore      int `yaml:"commit_before"`
	CommitAfter       int `yaml:"commit_after"`
	BookingBefore     int `yaml:"booking_before"`
	BookingAfter      int `yaml:"booking_after"`
	ProximityRadius   int `yaml:"proximity_radius"`
	MinCommitNameLen  int `yaml:"min_commit_name_len"`
	MinBookingNameLen int `yaml:"min_booking_name_len"`
	MinBookingWords   int `yaml:"min_booking_words"`
}

// Limits converts c into [extract.Limits]. Zero fields are filled with
// defaults by the extractor itself.
func (c ExtractionConfig) Limits() extract.Limits {
	return extract.Limits{
		CommitBefore:      c.CommitBefore,
		CommitAfter:       c.CommitAfter,
		BookingBefore:     c.BookingBefore,
		BookingAfter:      c.BookingAfter,
		ProximityRadius:   c.ProximityRadius,
		MinCommitNameLen:  c.MinCommitNameLen,
		MinBookingNameLen: c.MinBookingNameLen,
		MinBookingWords:   c.MinBookingWords,
	}
}

// PlannerConfig seeds the semester planner.
type PlannerConfig struct {
	// Semesters are the buckets created at startup. When empty, the planner
	// seeds its built-in WS 2024 / SS 2025 pair.
	Semesters []SemesterSeed `yaml:"semesters"`
}

// SemesterSeed describes one startup semester bucket.
type SemesterSeed struct {
	// Name is the bucket label (e.g., "WS 2024").
	Name string `yaml:"name"`

	// Color is the display color, a hex string. Empty picks the default.
	Color string `yaml:"color"`

	// ECTSGoal is the target credit sum. Zero picks the default of 30.
	ECTSGoal float64 `yaml:"ects_goal"`
}
