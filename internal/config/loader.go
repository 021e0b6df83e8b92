package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known LLM provider names. Used by [Validate] to
// warn about unrecognised names without rejecting third-party providers.
var ValidProviderNames = []string{
	"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Catalog availability warning: an empty source is legal but degrades
	// every match to identity passthrough.
	if cfg.Catalog.Source == "" {
		slog.Warn("catalog.source is empty; matching will run against an empty catalog")
	}

	// LLM providers
	validateProviderName("llm.primary", cfg.LLM.Primary.Name)
	for i, entry := range cfg.LLM.Fallbacks {
		prefix := fmt.Sprintf("llm.fallbacks[%d]", i)
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		validateProviderName(prefix, entry.Name)
	}
	if cfg.LLM.Primary.Name == "" {
		if len(cfg.LLM.Fallbacks) > 0 {
			errs = append(errs, errors.New("llm.fallbacks configured without llm.primary"))
		} else {
			slog.Warn("llm.primary is empty; remote fallback extraction is disabled")
		}
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %.2f is out of range [0, 2]", cfg.LLM.Temperature))
	}
	if cfg.LLM.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_seconds %d must not be negative", cfg.LLM.TimeoutSeconds))
	}

	// Matching thresholds
	if f := cfg.Matching.TokenOverlapFloor; f < 0 || f > 1 {
		errs = append(errs, fmt.Errorf("matching.token_overlap_floor %.2f is out of range [0, 1]", f))
	}
	if f := cfg.Matching.AcceptFloor; f < 0 || f > 1 {
		errs = append(errs, fmt.Errorf("matching.accept_floor %.2f is out of range [0, 1]", f))
	}
	if cfg.Matching.PhoneticThreshold < 0 {
		errs = append(errs, fmt.Errorf("matching.phonetic_threshold %.2f must not be negative", cfg.Matching.PhoneticThreshold))
	}
	if cfg.Matching.SignificantWordLen < 0 || cfg.Matching.MinTokenLen < 0 {
		errs = append(errs, errors.New("matching word/token lengths must not be negative"))
	}

	// Extraction windows
	ext := cfg.Extraction
	for _, v := range []struct {
		name  string
		value int
	}{
		{"commit_before", ext.CommitBefore},
		{"commit_after", ext.CommitAfter},
		{"booking_before", ext.BookingBefore},
		{"booking_after", ext.BookingAfter},
		{"proximity_radius", ext.ProximityRadius},
		{"min_commit_name_len", ext.MinCommitNameLen},
		{"min_booking_name_len", ext.MinBookingNameLen},
		{"min_booking_words", ext.MinBookingWords},
	} {
		if v.value < 0 {
			errs = append(errs, fmt.Errorf("extraction.%s %d must not be negative", v.name, v.value))
		}
	}

	// Planner seeds: duplicate bucket names would break auto-assignment's
	// case-insensitive lookup.
	seen := make(map[string]int, len(cfg.Planner.Semesters))
	for i, s := range cfg.Planner.Semesters {
		prefix := fmt.Sprintf("planner.semesters[%d]", i)
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := seen[s.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of planner.semesters[%d]", prefix, s.Name, prev))
		}
		seen[s.Name] = i
		if s.ECTSGoal < 0 {
			errs = append(errs, fmt.Errorf("%s.ects_goal %.1f must not be negative", prefix, s.ECTSGoal))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// [ValidProviderNames].
func validateProviderName(field, name string) {
	if name == "" || slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"field", field,
		"name", name,
		"known", ValidProviderNames,
	)
}
