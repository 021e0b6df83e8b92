package match_test

import (
	"testing"

	"github.com/studyvoice/advisor/internal/match"
)

var testCatalog = []string{
	"Machine Learning - Basic Methods",
	"Machine Learning for Robotic Systems 1",
	"Control Systems Engineering",
	"Thermodynamics",
	"Ethics of Artificial Intelligence",
}

func TestResolveExact(t *testing.T) {
	t.Parallel()

	r := match.NewResolver()

	res := r.Resolve("Machine Learning - Basic Methods", testCatalog)
	if res.Name != "Machine Learning - Basic Methods" {
		t.Fatalf("Resolve: got %q, want exact catalog name", res.Name)
	}
	if res.Tier != "exact" {
		t.Errorf("Resolve: tier = %q, want %q", res.Tier, "exact")
	}
	if res.Confidence != 1.0 {
		t.Errorf("Resolve: confidence = %v, want 1.0 for exact match", res.Confidence)
	}
}

func TestResolveExactIgnoresCaseAndWhitespace(t *testing.T) {
	t.Parallel()

	r := match.NewResolver()

	res := r.Resolve("  thermodynamics ", testCatalog)
	if res.Name != "Thermodynamics" || res.Tier != "exact" {
		t.Fatalf("Resolve: got (%q, %q), want (Thermodynamics, exact)", res.Name, res.Tier)
	}
}

func TestResolveContains(t *testing.T) {
	t.Parallel()

	r := match.NewResolver()

	res := r.Resolve("Robotic Systems 1", testCatalog)
	if res.Name != "Machine Learning for Robotic Systems 1" {
		t.Fatalf("Resolve: got %q, want containment match", res.Name)
	}
	if res.Tier != "contains" {
		t.Errorf("Resolve: tier = %q, want %q", res.Tier, "contains")
	}
}

func TestResolveSignificantWords(t *testing.T) {
	t.Parallel()

	r := match.NewResolver()

	// "Control" and "Engineering" both appear in the catalog entry, but the
	// full string is not contained either direction.
	res := r.Resolve("Engineering advanced Control topics", testCatalog)
	if res.Name != "Control Systems Engineering" {
		t.Fatalf("Resolve: got %q, want significant-word match", res.Name)
	}
	if res.Tier != "words" {
		t.Errorf("Resolve: tier = %q, want %q", res.Tier, "words")
	}
}

func TestResolvePhoneticAssist(t *testing.T) {
	t.Parallel()

	r := match.NewResolver()

	// A close misspelling that shares no ≥3-char word with the entry and is
	// not a substring. Jaro-Winkler similarity is high.
	res := r.Resolve("Thermodynamix", []string{"Thermodynamics"})
	if res.Name != "Thermodynamics" {
		t.Fatalf("Resolve: got %q, want phonetic match", res.Name)
	}
	if res.Tier != "phonetic" {
		t.Errorf("Resolve: tier = %q, want %q", res.Tier, "phonetic")
	}
}

func TestResolveNoMatchFallsBackToIdentity(t *testing.T) {
	t.Parallel()

	r := match.NewResolver()

	res := r.Resolve("Underwater Basket Weaving", testCatalog)
	if res.Name != "Underwater Basket Weaving" {
		t.Fatalf("Resolve: got %q, want identity passthrough", res.Name)
	}
	if res.Confidence != 0 {
		t.Errorf("Resolve: confidence = %v, want 0", res.Confidence)
	}
	if res.Tier != "none" {
		t.Errorf("Resolve: tier = %q, want %q", res.Tier, "none")
	}
}

func TestResolveEmptyCatalog(t *testing.T) {
	t.Parallel()

	r := match.NewResolver()

	res := r.Resolve("Thermodynamics", nil)
	if res.Name != "Thermodynamics" || res.Confidence != 0 {
		t.Fatalf("Resolve with empty catalog: got (%q, %v), want identity with confidence 0",
			res.Name, res.Confidence)
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	r := match.NewResolver()

	tests := []struct {
		name      string
		candidate string
		resolved  string
		want      float64
	}{
		{"identical", "Machine Learning", "Machine Learning", 1.0},
		{"case-insensitive", "machine learning", "Machine Learning", 1.0},
		{"half overlap", "Machine Basket", "Machine Learning", 0.5},
		{"no overlap", "Underwater Weaving", "Machine Learning", 0.0},
		{"prefix counts", "Thermo", "Thermodynamics", 1.0},
		{"empty candidate", "", "Machine Learning", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := r.Score(tt.candidate, tt.resolved); got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.candidate, tt.resolved, got, tt.want)
			}
		})
	}
}

func TestPolicyThresholdsAreApplied(t *testing.T) {
	t.Parallel()

	// With an impossible token-overlap floor and a disabled phonetic tier,
	// anything short of a word-tier hit must fall through to identity.
	p := match.DefaultPolicy()
	p.TokenOverlapFloor = 1.1
	p.PhoneticThreshold = 1.1
	r := match.NewResolver(match.WithPolicy(p))

	res := r.Resolve("Machine Basket", testCatalog)
	if res.Tier == "tokens" || res.Tier == "phonetic" {
		t.Fatalf("Resolve: tier %q should be unreachable with disabled thresholds", res.Tier)
	}
}
