// Package llmextract implements a language-model-based extraction stage that
// recovers booked courses the pattern families missed.
//
// The [Extractor] sends the conversation summary to an [llm.Provider] with a
// conservative prompt asking for a strict JSON array of booked modules. Every
// item the model returns is re-validated locally before it enters the
// pipeline: names shorter than two characters are dropped, credit values
// outside [0, 30] are discarded, and semester labels pass through
// [extract.NormalizeSemester]. The model's output is never trusted to name a
// real catalog module; resolution still happens downstream.
//
// This stage runs only when the deterministic families produce nothing, so
// its latency sits off the common path. When the model response cannot be
// parsed the extractor returns an empty list rather than surfacing an error,
// ensuring the analysis pass always completes.
package llmextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/studyvoice/advisor/internal/extract"
	llm "github.com/studyvoice/advisor/pkg/provider/llm"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 800
	defaultTimeout     = 15 * time.Second

	minNameLen = 2
	maxECTS    = 30
)

// systemPrompt keeps the model on a short leash: JSON only, no invented
// modules.
const systemPrompt = `You are extracting booked university modules from a conversation summary.
Return ONLY JSON (no markdown), an array of objects with fields: name (string), ects (number, optional), semester (string, optional).
Do not invent modules. If unsure, omit the item.`

// rawItem is one array element as the model returns it. Field aliases cover
// the shapes different models produce; ects accepts both numbers and strings.
type rawItem struct {
	Name       string `json:"name"`
	CourseName string `json:"courseName"`
	Title      string `json:"title"`
	ECTS       any    `json:"ects"`
	Credits    any    `json:"credits"`
	Semester   string `json:"semester"`
}

// Option is a functional option for configuring an [Extractor].
type Option func(*Extractor)

// WithTemperature sets the LLM sampling temperature. Default: 0.1.
func WithTemperature(temp float64) Option {
	return func(e *Extractor) {
		e.temperature = temp
	}
}

// WithTimeout bounds each extraction call. Default: 15s.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		e.timeout = d
	}
}

// Extractor uses an [llm.Provider] to pull booked courses out of free-form
// summary text. It is safe for concurrent use.
//
// Model selection follows the one-provider-per-model pattern: to use a
// specific model, construct the [llm.Provider] with that model configured.
type Extractor struct {
	llm         llm.Provider
	temperature float64
	timeout     time.Duration
}

// New returns a new [Extractor] backed by the given [llm.Provider].
func New(provider llm.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		llm:         provider,
		temperature: defaultTemperature,
		timeout:     defaultTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract sends summary to the model and returns the validated course list.
//
// An unparseable or non-array response yields an empty list with a nil error
// (graceful degradation: the analysis pass must continue). Context
// cancellation and network errors are returned as non-nil errors so the
// caller's failover can react.
func (e *Extractor) Extract(ctx context.Context, summary string) ([]extract.Candidate, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Temperature:  e.temperature,
		MaxTokens:    defaultMaxTokens,
		JSONOnly:     true,
		Messages: []llm.Message{
			{Role: "user", Content: "Text:\n" + summary + "\n"},
		},
	}

	resp, err := e.llm.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm extractor: complete: %w", err)
	}

	items, parseErr := parseResponse(resp.Content)
	if parseErr != nil {
		// Unparseable response: treat as "nothing found".
		return nil, nil //nolint:nilerr // intentional graceful fallback
	}
	return items, nil
}

// parseResponse unmarshals the model output into validated candidates.
// Markdown code fences are stripped before parsing.
func parseResponse(content string) ([]extract.Candidate, error) {
	items, err := unwrapArray([]byte(stripMarkdown(content)))
	if err != nil {
		return nil, err
	}

	out := make([]extract.Candidate, 0, len(items))
	for _, it := range items {
		name := firstNonEmpty(it.Name, it.CourseName, it.Title)
		name = strings.TrimSpace(name)
		if len(name) < minNameLen {
			continue
		}

		ects, ok := normalizeECTS(it.ECTS)
		if !ok {
			ects, _ = normalizeECTS(it.Credits)
		}

		out = append(out, extract.Candidate{
			Name:     name,
			ECTS:     ects,
			Semester: extract.NormalizeSemester(it.Semester),
		})
	}
	return out, nil
}

// unwrapArray decodes the item array from data, accepting either a bare
// array or an object wrapping one under a single key. JSON-object response
// formats (OpenAI json_object among them) cannot emit a top-level array, so
// a compliant model replies with something like {"courses": [...]}.
func unwrapArray(data []byte) ([]rawItem, error) {
	var items []rawItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("llm extractor: parse response: %w", err)
	}
	for _, raw := range wrapped {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			continue
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}
	return nil, fmt.Errorf("llm extractor: parse response: no item array found")
}

// nonNumeric strips everything but digits and decimal points from string
// credit values ("7.5 ECTS" -> "7.5").
var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// normalizeECTS coerces a model-supplied credit value to a float in [0, 30].
// Returns ok=false for missing or out-of-range values.
func normalizeECTS(v any) (float64, bool) {
	var num float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		num = t
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(t, ""), 64)
		if err != nil {
			return 0, false
		}
		num = parsed
	default:
		return 0, false
	}
	if num < 0 || num > maxECTS {
		return 0, false
	}
	return num, true
}

// firstNonEmpty returns the first string with non-whitespace content.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models prepend and append to JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
