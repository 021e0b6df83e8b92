// Package advisor runs the conversational course-extraction pipeline: it
// takes the transcript of an advising conversation and turns confirmed
// bookings into catalog-matched course recommendations.
//
// The pipeline is two-staged. Local pattern extraction with a booking-verb
// proximity filter runs first; only when it comes up empty does the analyzer
// try the single-course confirmation heuristic and, after that, the remote
// extractor. Every failure mode degrades to fewer or no courses, never to an
// error surfaced to the caller.
package advisor

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/studyvoice/advisor/internal/catalog"
	"github.com/studyvoice/advisor/internal/extract"
	"github.com/studyvoice/advisor/internal/match"
	"github.com/studyvoice/advisor/internal/normalize"
	"github.com/studyvoice/advisor/internal/observe"
	"github.com/studyvoice/advisor/internal/recommend"
)

const (
	// summaryTurns is how many trailing assistant turns form the summary text.
	summaryTurns = 3

	// minConfirmationNameLen guards the single-course confirmation heuristic
	// against pronouns and short fragments.
	minConfirmationNameLen = 10
)

// genericNameRe rejects bare generic mentions that slipped past matching.
var genericNameRe = regexp.MustCompile(`(?i)^(?:module|course|subject)\b`)

// RoleAssistant marks transcript turns produced by the assistant. Only those
// turns are analyzed; user turns restate intent without confirming it.
const RoleAssistant = "assistant"

// Message is one transcript turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Result is the outcome of one analysis pass. BookedCourses carries the
// store records for every course confirmed in the transcript, in extraction
// order. AssignedBySemester groups the same records by their semester label;
// courses without one appear only in BookedCourses.
type Result struct {
	BookedCourses      []recommend.Course            `json:"bookedCourses"`
	AssignedBySemester map[string][]recommend.Course `json:"assignedBySemester"`
}

// FallbackExtractor is the remote extraction stage invoked when local
// pattern extraction finds nothing. Implementations must treat every failure
// as "no candidates" internally; a returned error is still tolerated here
// and degrades to an empty result.
type FallbackExtractor interface {
	Extract(ctx context.Context, summary string) ([]extract.Candidate, error)
}

// Option is a functional option for configuring an [Analyzer].
type Option func(*Analyzer)

// WithFallback sets the remote fallback extractor. Without one, an empty
// local extraction ends the pipeline with an empty result.
func WithFallback(f FallbackExtractor) Option {
	return func(a *Analyzer) {
		a.fallback = f
	}
}

// WithMetrics overrides the metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// Analyzer owns one extraction pipeline over one recommendation store.
// Analysis passes are serialized by an internal guard: the store's
// check-then-add merge is not atomic across candidates, and a rapid double
// trigger (utterance end racing session end) must not interleave.
type Analyzer struct {
	catalog   catalog.Client
	resolver  *match.Resolver
	extractor *extract.Extractor
	store     recommend.Store
	fallback  FallbackExtractor
	metrics   *observe.Metrics

	mu sync.Mutex
}

// New creates an [Analyzer] over the given collaborators.
func New(cat catalog.Client, resolver *match.Resolver, extractor *extract.Extractor, store recommend.Store, opts ...Option) *Analyzer {
	a := &Analyzer{
		catalog:   cat,
		resolver:  resolver,
		extractor: extractor,
		store:     store,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a
}

// AnalyzeTranscript extracts confirmed course bookings from messages, merges
// them into the recommendation store, and returns the merged batch. The
// transcript summary is the concatenation of the last three assistant turns.
//
// The method never fails: low-confidence matches, rejected names, remote
// extraction errors, and an empty or unloaded catalog all resolve to fewer
// or zero returned courses.
func (a *Analyzer) AnalyzeTranscript(ctx context.Context, messages []Message) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	defer func() {
		a.metrics.AnalysisDuration.Record(ctx, time.Since(start).Seconds())
	}()

	log := observe.Logger(ctx)

	summary, final := summaryText(messages)
	if summary == "" {
		a.metrics.RecordExtractionRun(ctx, "patterns", "empty")
		return emptyResult()
	}

	// Stage 1: local pattern families plus the booking-verb proximity filter.
	candidates := a.extractor.FilterBooked(a.extractor.Candidates(summary), summary)
	a.metrics.RecordCandidates(ctx, "patterns", len(candidates))
	stage := "patterns"

	if len(candidates) == 0 {
		candidates, stage = a.fallbackCandidates(ctx, summary, final)
		if len(candidates) == 0 {
			a.metrics.RecordExtractionRun(ctx, stage, "empty")
			return emptyResult()
		}
	}

	log.Debug("extraction produced candidates", "stage", stage, "count", len(candidates))

	booked := a.merge(ctx, summary, candidates)
	if booked == nil {
		booked = []recommend.Course{}
	}
	a.metrics.RecordExtractionRun(ctx, stage, "ok")
	if len(booked) > 0 {
		a.metrics.CoursesBooked.Add(ctx, int64(len(booked)))
	}

	return Result{
		BookedCourses:      booked,
		AssignedBySemester: groupBySemester(booked),
	}
}

// fallbackCandidates runs the two recovery stages: the single-course
// confirmation heuristic on the final assistant turn, then the remote
// extractor over the whole summary.
func (a *Analyzer) fallbackCandidates(ctx context.Context, summary, final string) ([]extract.Candidate, string) {
	if name := extract.ExtractBookingName(final); name != "" {
		// A present confirmation is terminal either way: a name shorter
		// than the minimum is a pronoun or fragment and ends the pass
		// without consulting the remote extractor.
		if len(name) < minConfirmationNameLen {
			return nil, "confirmation"
		}
		a.metrics.RecordCandidates(ctx, "confirmation", 1)
		return []extract.Candidate{{
			Name:     name,
			ECTS:     extract.ExtractECTS(final),
			Semester: extract.ExtractSemester(final),
		}}, "confirmation"
	}

	if a.fallback == nil {
		return nil, "confirmation"
	}

	llmStart := time.Now()
	candidates, err := a.fallback.Extract(ctx, summary)
	a.metrics.LLMDuration.Record(ctx, time.Since(llmStart).Seconds())
	if err != nil {
		a.metrics.LLMErrors.Add(ctx, 1)
		observe.Logger(ctx).Warn("remote extraction failed", "err", err)
		return nil, "fallback"
	}
	a.metrics.RecordCandidates(ctx, "llm", len(candidates))
	return candidates, "fallback"
}

// merge resolves each candidate against the catalog, applies the confidence
// and generic-name gates, fills in credits, page, and semester, and adds the
// survivors to the store. The batch is deduplicated by resolved name, first
// occurrence wins; the store applies its own dedup on top.
func (a *Analyzer) merge(ctx context.Context, summary string, candidates []extract.Candidate) []recommend.Course {
	log := observe.Logger(ctx)

	globalECTS := extract.ExtractECTS(summary)
	globalSemester := extract.ExtractSemester(summary)
	names := a.catalog.Names(ctx)
	floor := a.resolver.Policy().AcceptFloor

	seen := make(map[string]bool, len(candidates))
	var booked []recommend.Course

	for _, c := range candidates {
		cleaned := normalize.Normalize(c.Name)
		if cleaned == "" {
			continue
		}

		res := a.resolver.Resolve(cleaned, names)
		a.metrics.RecordConfidence(ctx, res.Confidence)
		if res.Confidence < floor {
			a.metrics.RecordRejected(ctx, "confidence")
			log.Debug("rejected low-confidence match",
				"candidate", cleaned, "resolved", res.Name, "confidence", res.Confidence)
			continue
		}

		// The guard runs on the cleaned name, independent of confidence, so
		// a one-word mention never books even when it matches the catalog.
		if genericNameRe.MatchString(cleaned) || len(strings.Fields(cleaned)) < 2 {
			a.metrics.RecordRejected(ctx, "generic")
			log.Debug("rejected generic or incomplete mention", "candidate", cleaned)
			continue
		}

		key := strings.ToLower(res.Name)
		if seen[key] {
			a.metrics.RecordRejected(ctx, "duplicate")
			continue
		}
		seen[key] = true

		booked = append(booked, a.buildCourse(ctx, c, res.Name, globalECTS, globalSemester))
	}

	for i, c := range booked {
		stored, _ := a.store.Add(ctx, c)
		booked[i] = stored
	}
	return booked
}

// buildCourse assembles the store record for one resolved candidate. ECTS
// priority: candidate value, then the whole-summary fallback, then the
// catalog's own value. Page comes from the catalog entry, with an
// independent page lookup as backstop.
func (a *Analyzer) buildCourse(ctx context.Context, c extract.Candidate, official string, globalECTS float64, globalSemester string) recommend.Course {
	mod, found := a.catalog.ByName(ctx, official)

	ects := c.ECTS
	if ects == 0 {
		ects = globalECTS
	}
	if ects == 0 && found && mod.ECTS != nil {
		ects = *mod.ECTS
	}

	page := 0
	if found {
		page = mod.Page
	}
	if page == 0 {
		page = a.catalog.FindPage(ctx, official)
	}

	semester := c.Semester
	if semester == "" {
		semester = globalSemester
	}

	course := recommend.Course{
		Name:     official,
		ECTS:     ects,
		Semester: semester,
		Page:     page,
	}
	if ects > 0 {
		course.Credits = strconv.FormatFloat(ects, 'f', -1, 64) + " ECTS"
	}
	return course
}

// summaryText joins the last [summaryTurns] assistant turns and returns the
// joined text along with the content of the final assistant turn.
func summaryText(messages []Message) (summary, final string) {
	var assistant []string
	for _, m := range messages {
		if m.Role == RoleAssistant {
			assistant = append(assistant, m.Content)
		}
	}
	if len(assistant) == 0 {
		return "", ""
	}
	if len(assistant) > summaryTurns {
		assistant = assistant[len(assistant)-summaryTurns:]
	}
	return strings.Join(assistant, "\n\n"), assistant[len(assistant)-1]
}

// groupBySemester buckets the batch by semester label, preserving order.
func groupBySemester(courses []recommend.Course) map[string][]recommend.Course {
	out := make(map[string][]recommend.Course)
	for _, c := range courses {
		if c.Semester == "" {
			continue
		}
		out[c.Semester] = append(out[c.Semester], c)
	}
	return out
}

// emptyResult is the canonical zero outcome, with non-nil collections so the
// JSON encoding stays `[]` / `{}` rather than `null`.
func emptyResult() Result {
	return Result{
		BookedCourses:      []recommend.Course{},
		AssignedBySemester: map[string][]recommend.Course{},
	}
}
