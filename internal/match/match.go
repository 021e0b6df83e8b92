// Package match maps a cleaned candidate course name to the closest entry of
// the official module catalog.
//
// Resolution runs as a cascade, first hit wins:
//
//  1. Exact case/whitespace-insensitive equality.
//  2. Containment in either direction.
//  3. Significant-word overlap: words of length ≥ SignificantWordLen in the
//     candidate; the first catalog entry containing at least
//     min(2, wordCount) of them is accepted.
//  4. Jaro-Winkler assist: when the precision tiers miss, the catalog entry
//     with the highest Jaro-Winkler similarity to the candidate is accepted
//     if it clears PhoneticThreshold. This resolves garbled speech-to-text
//     names that share almost no literal tokens with the canonical spelling.
//  5. Best token-overlap score across the whole catalog, accepted at
//     TokenOverlapFloor; otherwise the input is returned unchanged with
//     confidence 0.
//
// Whichever tier resolves the name, the reported confidence is always
// recomputed by the prefix token-overlap scorer ([Resolver.Score]) between
// the candidate and the resolved name, so downstream gating is independent of
// the tier that matched. Tiers 1–3 optimise precision on common cases; tiers
// 4–5 provide graceful degradation for mangled input.
package match

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Policy collects the acceptance thresholds of the matching cascade. All
// values have working defaults from [DefaultPolicy]; they are exposed so the
// thresholds can be tuned and tested independently of the cascade logic.
type Policy struct {
	// SignificantWordLen is the minimum length for a candidate word to count
	// in the significant-word tier.
	SignificantWordLen int

	// MinTokenLen is the minimum token length considered by the
	// token-overlap tier.
	MinTokenLen int

	// TokenOverlapFloor is the minimum best token-overlap score for the
	// final fallback tier to accept a catalog entry.
	TokenOverlapFloor float64

	// PhoneticThreshold is the minimum Jaro-Winkler similarity for the
	// phonetic-assist tier. Set above 1 to disable the tier.
	PhoneticThreshold float64

	// AcceptFloor is the global confidence floor applied by callers before a
	// resolved candidate becomes a stored recommendation. It is carried here
	// so the whole gate lives in one tunable structure.
	AcceptFloor float64
}

// DefaultPolicy returns the thresholds the advising pipeline ships with.
func DefaultPolicy() Policy {
	return Policy{
		SignificantWordLen: 3,
		MinTokenLen:        2,
		TokenOverlapFloor:  0.3,
		PhoneticThreshold:  0.88,
		AcceptFloor:        0.2,
	}
}

// Resolution is the outcome of resolving a candidate name against the
// catalog. When no tier accepts, Name echoes the input and Confidence is 0.
type Resolution struct {
	// Name is the resolved catalog name, or the input unchanged.
	Name string

	// Confidence is the prefix token-overlap score between the candidate and
	// Name, in [0, 1].
	Confidence float64

	// Tier names the cascade stage that resolved the name: "exact",
	// "contains", "words", "phonetic", "tokens", or "none".
	Tier string
}

// Option is a functional option for configuring a [Resolver].
type Option func(*Resolver)

// WithPolicy replaces the resolver's default [Policy].
func WithPolicy(p Policy) Option {
	return func(r *Resolver) {
		r.policy = p
	}
}

// Resolver runs the matching cascade. It is read-only after construction and
// safe for concurrent use.
type Resolver struct {
	policy Policy
}

// NewResolver returns a [Resolver] with [DefaultPolicy], overridable via
// options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{policy: DefaultPolicy()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Policy returns the thresholds the resolver was built with.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve maps name to the closest entry of catalog. catalog holds canonical
// module names; an empty catalog degrades to identity passthrough with
// confidence 0.
func (r *Resolver) Resolve(name string, catalog []string) Resolution {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" || len(catalog) == 0 {
		return Resolution{Name: name, Confidence: 0, Tier: "none"}
	}

	// Tier 1: exact.
	for _, c := range catalog {
		if strings.ToLower(strings.TrimSpace(c)) == target {
			return Resolution{Name: c, Confidence: r.Score(name, c), Tier: "exact"}
		}
	}

	// Tier 2: containment either direction.
	for _, c := range catalog {
		cl := strings.ToLower(c)
		if strings.Contains(cl, target) || strings.Contains(target, cl) {
			return Resolution{Name: c, Confidence: r.Score(name, c), Tier: "contains"}
		}
	}

	// Tier 3: significant-word overlap.
	var significant []string
	for _, w := range strings.Fields(target) {
		if len(w) >= r.policy.SignificantWordLen {
			significant = append(significant, w)
		}
	}
	if len(significant) > 0 {
		need := min(2, len(significant))
		for _, c := range catalog {
			cl := strings.ToLower(c)
			hits := 0
			for _, w := range significant {
				if strings.Contains(cl, w) {
					hits++
				}
			}
			if hits >= need {
				return Resolution{Name: c, Confidence: r.Score(name, c), Tier: "words"}
			}
		}
	}

	// Tier 4: Jaro-Winkler assist for garbled names.
	if r.policy.PhoneticThreshold <= 1 {
		bestName, bestScore := "", 0.0
		for _, c := range catalog {
			if s := matchr.JaroWinkler(target, strings.ToLower(c), false); s > bestScore {
				bestName, bestScore = c, s
			}
		}
		if bestScore >= r.policy.PhoneticThreshold {
			return Resolution{Name: bestName, Confidence: r.Score(name, bestName), Tier: "phonetic"}
		}
	}

	// Tier 5: best token-overlap score across the whole catalog.
	bestName, bestScore := name, 0.0
	for _, c := range catalog {
		if s := r.overlapScore(target, strings.ToLower(c)); s > bestScore {
			bestName, bestScore = c, s
		}
	}
	if bestScore >= r.policy.TokenOverlapFloor {
		return Resolution{Name: bestName, Confidence: r.Score(name, bestName), Tier: "tokens"}
	}

	return Resolution{Name: name, Confidence: 0, Tier: "none"}
}

// Score computes the prefix token-overlap ratio between a candidate name and
// a resolved catalog name: the fraction of candidate tokens that stand in a
// prefix relationship with some token of the other name. This is the
// confidence formula used for the downstream acceptance gate.
func (r *Resolver) Score(candidate, resolved string) float64 {
	a := strings.Fields(strings.ToLower(candidate))
	b := strings.Fields(strings.ToLower(resolved))
	if len(a) == 0 {
		return 0
	}
	overlap := 0
	for _, t := range a {
		for _, c := range b {
			if strings.HasPrefix(c, t) || strings.HasPrefix(t, c) {
				overlap++
				break
			}
		}
	}
	return float64(overlap) / float64(len(a))
}

// overlapScore is the tier-5 scorer: the fraction of candidate tokens of
// length ≥ MinTokenLen that have a prefix or substring relationship with some
// token of the catalog entry. More permissive than [Resolver.Score]: it also
// accepts substring containment, which helps with compound German module
// names split differently by the speech recogniser.
func (r *Resolver) overlapScore(target, candidate string) float64 {
	var a []string
	for _, t := range strings.Fields(target) {
		if len(t) >= r.policy.MinTokenLen {
			a = append(a, t)
		}
	}
	if len(a) == 0 {
		return 0
	}
	var b []string
	for _, t := range strings.Fields(candidate) {
		if len(t) >= r.policy.MinTokenLen {
			b = append(b, t)
		}
	}

	overlap := 0
	for _, t := range a {
		for _, c := range b {
			if strings.HasPrefix(c, t) || strings.HasPrefix(t, c) ||
				strings.Contains(c, t) || strings.Contains(t, c) {
				overlap++
				break
			}
		}
	}
	return float64(overlap) / float64(max(1, len(a)))
}
