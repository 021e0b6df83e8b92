package advisor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/studyvoice/advisor/internal/advisor"
	"github.com/studyvoice/advisor/internal/catalog"
	"github.com/studyvoice/advisor/internal/extract"
	"github.com/studyvoice/advisor/internal/match"
	"github.com/studyvoice/advisor/internal/recommend"
)

const catalogDoc = `[
  {"name":"Machine Learning - Basic Methods","page":42,"ects":6},
  {"name":"Advanced Thermodynamics","page":17,"ects":6},
  {"name":"Distributed Systems Engineering","page":73,"ects":8},
  {"name":"Control Systems Theory","page":88,"ects":6},
  {"name":"Ethics","page":5,"ects":3}
]`

// staticSource serves a fixed catalog document.
type staticSource struct {
	data []byte
	err  error
}

func (s staticSource) Fetch(_ context.Context) ([]byte, error) {
	return s.data, s.err
}

// fakeFallback is a scripted remote extractor.
type fakeFallback struct {
	candidates []extract.Candidate
	err        error
	calls      int
	lastInput  string
}

func (f *fakeFallback) Extract(_ context.Context, summary string) ([]extract.Candidate, error) {
	f.calls++
	f.lastInput = summary
	return f.candidates, f.err
}

func newTestAnalyzer(t *testing.T, source staticSource, fallback advisor.FallbackExtractor) (*advisor.Analyzer, *recommend.MemStore) {
	t.Helper()
	store := recommend.NewMemStore()
	var opts []advisor.Option
	if fallback != nil {
		opts = append(opts, advisor.WithFallback(fallback))
	}
	a := advisor.New(
		catalog.NewCachedClient(source),
		match.NewResolver(),
		extract.NewExtractor(),
		store,
		opts...,
	)
	return a, store
}

func assistant(content string) advisor.Message {
	return advisor.Message{Role: advisor.RoleAssistant, Content: content}
}

func TestAnalyzeTranscript_CommitmentWithECTS(t *testing.T) {
	t.Parallel()

	a, store := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, nil)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		{Role: "user", Content: "What about machine learning?"},
		assistant("Great. I'll add Machine Learning - Basic Methods with five ECTS to my plan."),
	})

	if len(res.BookedCourses) != 1 {
		t.Fatalf("booked %d courses, want 1: %+v", len(res.BookedCourses), res.BookedCourses)
	}
	c := res.BookedCourses[0]
	if c.Name != "Machine Learning - Basic Methods" {
		t.Errorf("name = %q, want catalog name", c.Name)
	}
	if c.ECTS != 5 {
		t.Errorf("ects = %v, want 5", c.ECTS)
	}
	if c.Credits != "5 ECTS" {
		t.Errorf("credits = %q, want %q", c.Credits, "5 ECTS")
	}
	if c.Page != 42 {
		t.Errorf("page = %d, want 42", c.Page)
	}

	stored := store.List(context.Background())
	if len(stored) != 1 || stored[0].ID != c.ID {
		t.Errorf("store = %+v, want the booked course", stored)
	}
}

func TestAnalyzeTranscript_NoBookingVerb(t *testing.T) {
	t.Parallel()

	fallback := &fakeFallback{}
	a, store := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, fallback)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		assistant("Control Systems is an interesting module."),
	})

	if len(res.BookedCourses) != 0 {
		t.Errorf("booked %d courses, want 0", len(res.BookedCourses))
	}
	if len(res.AssignedBySemester) != 0 {
		t.Errorf("assigned = %v, want empty", res.AssignedBySemester)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.calls)
	}
	if got := store.List(context.Background()); len(got) != 0 {
		t.Errorf("store has %d courses, want 0", len(got))
	}
}

func TestAnalyzeTranscript_FallbackCandidates(t *testing.T) {
	t.Parallel()

	fallback := &fakeFallback{candidates: []extract.Candidate{
		{Name: "Control Systems Theory", ECTS: 6, Semester: "WS 2024"},
	}}
	a, _ := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, fallback)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		assistant("We talked about a few different topics today."),
	})

	if len(res.BookedCourses) != 1 {
		t.Fatalf("booked %d courses, want 1: %+v", len(res.BookedCourses), res.BookedCourses)
	}
	c := res.BookedCourses[0]
	if c.Name != "Control Systems Theory" || c.ECTS != 6 || c.Page != 88 {
		t.Errorf("course = %+v", c)
	}
	if c.Semester != "WS 2024" {
		t.Errorf("semester = %q, want %q", c.Semester, "WS 2024")
	}
	if got := res.AssignedBySemester["WS 2024"]; len(got) != 1 {
		t.Errorf("assignedBySemester[WS 2024] = %v, want the booked course", got)
	}
}

func TestAnalyzeTranscript_FallbackError(t *testing.T) {
	t.Parallel()

	fallback := &fakeFallback{err: errors.New("model unavailable")}
	a, store := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, fallback)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		assistant("We talked about a few different topics today."),
	})

	if len(res.BookedCourses) != 0 {
		t.Errorf("booked %d courses, want 0", len(res.BookedCourses))
	}
	if got := store.List(context.Background()); len(got) != 0 {
		t.Errorf("store has %d courses, want 0", len(got))
	}
}

func TestAnalyzeTranscript_ConfirmationHeuristic(t *testing.T) {
	t.Parallel()

	// No pattern family matches, but the final turn carries an explicit
	// confirmation. The remote extractor must not be consulted.
	fallback := &fakeFallback{}
	a, _ := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, fallback)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		assistant("Booking: Distributed Systems Engineering, confirmed!"),
	})

	if fallback.calls != 0 {
		t.Errorf("fallback calls = %d, want 0", fallback.calls)
	}
	if len(res.BookedCourses) != 1 {
		t.Fatalf("booked %d courses, want 1: %+v", len(res.BookedCourses), res.BookedCourses)
	}
	c := res.BookedCourses[0]
	if c.Name != "Distributed Systems Engineering" {
		t.Errorf("name = %q", c.Name)
	}
	// No credit value in the transcript, so the catalog's own value applies.
	if c.ECTS != 8 || c.Credits != "8 ECTS" {
		t.Errorf("ects = %v credits = %q, want catalog value 8", c.ECTS, c.Credits)
	}
	if c.Page != 73 {
		t.Errorf("page = %d, want 73", c.Page)
	}
}

func TestAnalyzeTranscript_ShortConfirmationIsTerminal(t *testing.T) {
	t.Parallel()

	// The final turn carries a confirmation, but the name is too short to be
	// a course. That ends the pass; the remote extractor must not run even
	// though it has candidates to offer.
	fallback := &fakeFallback{candidates: []extract.Candidate{
		{Name: "Control Systems Theory", ECTS: 6},
	}}
	a, store := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, fallback)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		assistant("Booking: Ethics, confirmed!"),
	})

	if fallback.calls != 0 {
		t.Errorf("fallback calls = %d, want 0", fallback.calls)
	}
	if len(res.BookedCourses) != 0 {
		t.Errorf("booked %d courses, want 0: %+v", len(res.BookedCourses), res.BookedCourses)
	}
	if got := store.List(context.Background()); len(got) != 0 {
		t.Errorf("store has %d courses, want 0", len(got))
	}
}

func TestAnalyzeTranscript_GenericNameRejected(t *testing.T) {
	t.Parallel()

	// "Ethics" matches the catalog exactly (confidence 1.0) but is a single
	// word; the guard must reject it regardless of confidence.
	fallback := &fakeFallback{candidates: []extract.Candidate{{Name: "Ethics"}}}
	a, store := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, fallback)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		assistant("Ethics might interest you."),
	})

	if len(res.BookedCourses) != 0 {
		t.Errorf("booked %d courses, want 0: %+v", len(res.BookedCourses), res.BookedCourses)
	}
	if got := store.List(context.Background()); len(got) != 0 {
		t.Errorf("store has %d courses, want 0", len(got))
	}
}

func TestAnalyzeTranscript_Idempotent(t *testing.T) {
	t.Parallel()

	a, store := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, nil)
	messages := []advisor.Message{
		assistant("Booking: Advanced Thermodynamics with 6 ECTS confirmed."),
	}

	first := a.AnalyzeTranscript(context.Background(), messages)
	second := a.AnalyzeTranscript(context.Background(), messages)

	if len(first.BookedCourses) != 1 || len(second.BookedCourses) != 1 {
		t.Fatalf("booked = %d then %d, want 1 and 1",
			len(first.BookedCourses), len(second.BookedCourses))
	}
	if first.BookedCourses[0].ID != second.BookedCourses[0].ID {
		t.Errorf("second pass returned a different identity: %q vs %q",
			first.BookedCourses[0].ID, second.BookedCourses[0].ID)
	}
	if got := store.List(context.Background()); len(got) != 1 {
		t.Errorf("store has %d courses after two passes, want 1", len(got))
	}
}

func TestAnalyzeTranscript_EmptyCatalogDegrades(t *testing.T) {
	t.Parallel()

	// A failed catalog load leaves matching in identity passthrough with
	// confidence 0, so every candidate falls below the acceptance floor.
	fallback := &fakeFallback{candidates: []extract.Candidate{
		{Name: "Control Systems Theory", ECTS: 6},
	}}
	a, store := newTestAnalyzer(t, staticSource{err: errors.New("http 500")}, fallback)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		assistant("We talked about a few different topics today."),
	})

	if len(res.BookedCourses) != 0 {
		t.Errorf("booked %d courses, want 0", len(res.BookedCourses))
	}
	if got := store.List(context.Background()); len(got) != 0 {
		t.Errorf("store has %d courses, want 0", len(got))
	}
}

func TestAnalyzeTranscript_NoAssistantTurns(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, nil)

	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		{Role: "user", Content: "I want to book Thermodynamics."},
	})

	if res.BookedCourses == nil || len(res.BookedCourses) != 0 {
		t.Errorf("booked = %v, want empty non-nil slice", res.BookedCourses)
	}
	if res.AssignedBySemester == nil {
		t.Error("assignedBySemester is nil, want empty map")
	}
}

func TestAnalyzeTranscript_UsesLastThreeAssistantTurns(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, staticSource{data: []byte(catalogDoc)}, nil)

	// The booking statement sits four assistant turns back, outside the
	// summary window, so nothing is extracted.
	res := a.AnalyzeTranscript(context.Background(), []advisor.Message{
		assistant("Booking: Advanced Thermodynamics with 6 ECTS confirmed."),
		assistant("Anything else?"),
		assistant("Let me know."),
		assistant("Goodbye!"),
	})

	if len(res.BookedCourses) != 0 {
		t.Errorf("booked %d courses, want 0: %+v", len(res.BookedCourses), res.BookedCourses)
	}
}
