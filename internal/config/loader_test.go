package config

import (
	"strings"
	"testing"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: debug
catalog:
  source: "data/modules.json"
llm:
  primary:
    name: openai
    api_key: sk-test
    model: gpt-4o-mini
  fallbacks:
    - name: gemini
      api_key: g-test
      model: gemini-2.0-flash
  temperature: 0.1
  timeout_seconds: 10
matching:
  accept_floor: 0.2
  phonetic_threshold: 0.88
extraction:
  proximity_radius: 100
planner:
  semesters:
    - name: "WS 2024"
      color: "#3b82f6"
      ects_goal: 30
    - name: "SS 2025"
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("log_level = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Catalog.Source != "data/modules.json" {
		t.Errorf("catalog.source = %q", cfg.Catalog.Source)
	}
	if cfg.LLM.Primary.Name != "openai" || cfg.LLM.Primary.Model != "gpt-4o-mini" {
		t.Errorf("llm.primary = %+v", cfg.LLM.Primary)
	}
	if len(cfg.LLM.Fallbacks) != 1 || cfg.LLM.Fallbacks[0].Name != "gemini" {
		t.Errorf("llm.fallbacks = %+v", cfg.LLM.Fallbacks)
	}
	if cfg.LLM.Timeout().Seconds() != 10 {
		t.Errorf("llm timeout = %v, want 10s", cfg.LLM.Timeout())
	}
	if len(cfg.Planner.Semesters) != 2 {
		t.Errorf("planner.semesters = %+v", cfg.Planner.Semesters)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("server:\n  listen_adr: \":8080\"\n"))
	if err == nil {
		t.Fatal("expected an error for a misspelled field")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{LogLevel: "verbose"},
		LLM: LLMConfig{
			Temperature: 3,
			Fallbacks:   []ProviderEntry{{Name: "gemini"}},
		},
		Matching: MatchingConfig{AcceptFloor: 1.5},
		Planner: PlannerConfig{Semesters: []SemesterSeed{
			{Name: "WS 2024"},
			{Name: "WS 2024"},
			{Name: ""},
		}},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"server.log_level",
		"llm.fallbacks configured without llm.primary",
		"llm.temperature",
		"matching.accept_floor",
		"planner.semesters[1].name \"WS 2024\" is a duplicate",
		"planner.semesters[2].name is required",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	// A bare config degrades (no catalog, no remote fallback) but is legal.
	if err := Validate(&Config{}); err != nil {
		t.Errorf("Validate(empty) = %v, want nil", err)
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	cfg := &Config{Server: ServerConfig{TLS: &TLSConfig{CertFile: "cert.pem"}}}
	if err := Validate(cfg); err == nil {
		t.Error("expected an error for TLS with a missing key_file")
	}
}

func TestMatchingConfig_PolicyDefaults(t *testing.T) {
	p := MatchingConfig{}.Policy()
	if p.AcceptFloor != 0.2 || p.TokenOverlapFloor != 0.3 {
		t.Errorf("zero config should keep defaults, got %+v", p)
	}

	p = MatchingConfig{AcceptFloor: 0.5}.Policy()
	if p.AcceptFloor != 0.5 {
		t.Errorf("accept_floor override not applied: %+v", p)
	}
	if p.TokenOverlapFloor != 0.3 {
		t.Errorf("unset fields should keep defaults: %+v", p)
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		in   LogLevel
		want string
	}{
		{LogDebug, "DEBUG"},
		{LogInfo, "INFO"},
		{LogWarn, "WARN"},
		{LogError, "ERROR"},
		{"", "INFO"},
	}
	for _, tc := range tests {
		if got := tc.in.SlogLevel().String(); got != tc.want {
			t.Errorf("SlogLevel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
