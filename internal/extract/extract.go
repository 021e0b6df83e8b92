// Package extract scans conversation transcript text for course-booking
// statements and produces candidate (name, ECTS, semester) triples.
//
// Five pattern families are applied independently and unioned, deduplicated
// by case-insensitive raw name:
//
//   - explicit "booking: <name> with ..." confirmations
//   - "<Name> with <five|5> E C T S" phrasing (tolerant of spelled-out ECTS)
//   - "<Name>, <five|5> credits" phrasing
//   - "I'll add <Name>" commitment phrases
//   - booking-verb + course-name proximity ("will book <Name>")
//
// A candidate survives [Extractor.FilterBooked] only when a booking-intent
// verb occurs within a bounded window of some occurrence of its name. Credit
// values outside (0, 30] are treated as noise (misread years or course
// codes) and dropped. Semester phrases are normalised to "WS 20YY" /
// "SS 20YY" where possible.
//
// All functions are pure with respect to their inputs and perform no I/O.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/studyvoice/advisor/internal/normalize"
)

// maxECTS is the largest credible per-course credit value. Larger numbers in
// booking context are almost always misread years or module codes.
const maxECTS = 30

// Candidate is a tentative course extraction before catalog resolution.
type Candidate struct {
	// Name is the course name as found in the text, untrimmed of speech
	// artifacts; normalisation happens downstream.
	Name string

	// ECTS is the credit value found near the mention; 0 when absent.
	ECTS float64

	// Semester is the normalised semester label found near the mention;
	// empty when absent.
	Semester string
}

// Limits bounds the context windows and name-length guards of the pattern
// families. Zero values are replaced with defaults by [NewExtractor].
type Limits struct {
	// CommitBefore/CommitAfter bound the context window around an
	// "I'll add X" commitment from which ECTS and semester are pulled.
	CommitBefore, CommitAfter int

	// BookingBefore/BookingAfter bound the context window around a
	// booking-verb match.
	BookingBefore, BookingAfter int

	// ProximityRadius is how far (in characters) a booking-intent verb may
	// be from a course-name occurrence for the mention to count as booked.
	ProximityRadius int

	// MinCommitNameLen guards the commitment family against matching
	// pronouns and short fragments.
	MinCommitNameLen int

	// MinBookingNameLen and MinBookingWords guard the booking-verb family:
	// a name must have at least MinBookingWords words or
	// MinBookingNameLen characters.
	MinBookingNameLen int
	MinBookingWords   int
}

// defaultLimits mirror the windows the pipeline was tuned with.
var defaultLimits = Limits{
	CommitBefore:      80,
	CommitAfter:       120,
	BookingBefore:     50,
	BookingAfter:      100,
	ProximityRadius:   100,
	MinCommitNameLen:  10,
	MinBookingNameLen: 10,
	MinBookingWords:   3,
}

var (
	// booking: <name> with ... / booking: <name>,
	bookingNameRe     = regexp.MustCompile(`(?i)booking:\s*(.+?)\s+with\s+`)
	bookingNameFallRe = regexp.MustCompile(`(?i)booking:\s*([^,]+)`)

	// <Name> with five E C T S
	withECTSRe = regexp.MustCompile(`(?i)([A-Z][A-Za-z\s\-]+?)\s+with\s+([a-z]+|\d+)\s+E\s*C\s*T\s*S`)

	// <Name>, five credits
	commaCreditRe = regexp.MustCompile(`(?i)([A-Z][A-Za-z\s\-]+?),\s*([a-z]+|\d+)\s*(?:credits?|ECTS)`)

	// I'll add <Name>
	commitRe = regexp.MustCompile(`(?i)(?:I(?:'|’)ll|I will|I(?:'|’)m going to)\s+(?:add|register|book|enroll(?: in)?|put|place)\s+([A-Z][A-Za-z\s\-]{10,}?)(?:[.,\n]|\s+to|\s+for|$)`)

	// will book <Name>
	bookingVerbObjRe = regexp.MustCompile(`(?i)(?:will|want to|decided to|going to)\s+(?:book|register|enroll|add|take)\s+([A-Z][A-Za-z\s\-]+?)(?:\s+for|\s+with|\.|$)`)

	// Booking-intent marker used by the proximity filter.
	bookingIntentRe = regexp.MustCompile(`(?i)(add(?:ed)?|i(?:'|’)ll\s+add|i\s+will\s+take|i\s+decided\s+to\s+book|including\s+in\s+plan|already\s+in\s+my\s+semester\s+plan|confirming\s+enrollment|register|book|enroll)`)

	// Credit value patterns, applied after number-word substitution.
	ectsValueRe   = regexp.MustCompile(`(?i)(\d+)\s*E\s*C\s*T\s*S`)
	creditValueRe = regexp.MustCompile(`(?i)(\d+)\s*credits?`)

	// Semester patterns.
	semesterCodeRe    = regexp.MustCompile(`(?i)(WS|SS)\s*20\d{2}`)
	seasonYearRe      = regexp.MustCompile(`(?i)(winter|summer)\s*(?:semester|term)?\s*20\d{2}`)
	seasonRe          = regexp.MustCompile(`(?i)(winter|summer)\s*(?:semester|term)`)
	customSemesterRe  = regexp.MustCompile(`(?:to|for|in)\s+([A-Z][A-Za-z0-9\s]+(?:20\d{2})?)`)
	semesterKeywordRe = regexp.MustCompile(`(?i)20\d{2}|semester|term|fall|spring|winter|summer|WS|SS`)
	yearRe            = regexp.MustCompile(`20\d{2}`)
	winterRe          = regexp.MustCompile(`(?i)winter`)
	summerRe          = regexp.MustCompile(`(?i)summer`)
	codeOnlyRe        = regexp.MustCompile(`(?i)^(WS|SS)\s*20\d{2}$`)
	wsRun             = regexp.MustCompile(`\s+`)
)

// quickDetectRes are the cheap signals [QuickDetect] looks for before any
// full analysis is attempted.
var quickDetectRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(recommend|suggesting|suggest)\b`),
	regexp.MustCompile(`(?i)\b(I'll add|I'm adding|adding|add)\b.*\bcourse\b`),
	regexp.MustCompile(`(?i)\b(take|taking|enroll|enrolling|book|booking)\b`),
	regexp.MustCompile(`(?i)\bconsider\b`),
	regexp.MustCompile(`(?i)\b(here are|here's)\b.*\bcourse`),
	regexp.MustCompile(`(?i)\bECTS\b`),
	regexp.MustCompile(`\d{7}`),
	regexp.MustCompile(`\b(WS|SS)\b`),
}

// Option is a functional option for configuring an [Extractor].
type Option func(*Extractor)

// WithLimits overrides the default context windows and name-length guards.
// Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(e *Extractor) {
		if l.CommitBefore > 0 {
			e.limits.CommitBefore = l.CommitBefore
		}
		if l.CommitAfter > 0 {
			e.limits.CommitAfter = l.CommitAfter
		}
		if l.BookingBefore > 0 {
			e.limits.BookingBefore = l.BookingBefore
		}
		if l.BookingAfter > 0 {
			e.limits.BookingAfter = l.BookingAfter
		}
		if l.ProximityRadius > 0 {
			e.limits.ProximityRadius = l.ProximityRadius
		}
		if l.MinCommitNameLen > 0 {
			e.limits.MinCommitNameLen = l.MinCommitNameLen
		}
		if l.MinBookingNameLen > 0 {
			e.limits.MinBookingNameLen = l.MinBookingNameLen
		}
		if l.MinBookingWords > 0 {
			e.limits.MinBookingWords = l.MinBookingWords
		}
	}
}

// Extractor applies the pattern families with a fixed set of [Limits].
// It is read-only after construction and safe for concurrent use.
type Extractor struct {
	limits Limits
}

// NewExtractor returns an [Extractor] with default limits, overridable via
// options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{limits: defaultLimits}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Candidates scans text with every pattern family and returns the union of
// matches, deduplicated by case-insensitive name. Credit and semester values
// are pulled from a bounded context window around each match where the
// family supports it.
func (e *Extractor) Candidates(text string) []Candidate {
	var out []Candidate
	seen := func(name string) bool {
		for _, c := range out {
			if strings.EqualFold(c.Name, name) {
				return true
			}
		}
		return false
	}

	// Family: "<Name> with five E C T S".
	for _, m := range withECTSRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		out = append(out, Candidate{Name: name, ECTS: ExtractECTS(m[0])})
	}

	// Family: "<Name>, five credits".
	for _, m := range commaCreditRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if seen(name) {
			continue
		}
		out = append(out, Candidate{Name: name, ECTS: ExtractECTS(m[0])})
	}

	// Family: "I'll add <Name>". ECTS and semester come from the window
	// around the commitment.
	for _, idx := range commitRe.FindAllStringSubmatchIndex(text, -1) {
		name := strings.TrimSpace(text[idx[2]:idx[3]])
		if seen(name) || len(name) <= e.limits.MinCommitNameLen {
			continue
		}
		window := clampWindow(text, idx[0], e.limits.CommitBefore, e.limits.CommitAfter)
		out = append(out, Candidate{
			Name:     name,
			ECTS:     ExtractECTS(window),
			Semester: ExtractSemester(window),
		})
	}

	// Family: "will book <Name>". Only names that look like real course
	// names are accepted.
	for _, idx := range bookingVerbObjRe.FindAllStringSubmatchIndex(text, -1) {
		name := strings.TrimSpace(text[idx[2]:idx[3]])
		if seen(name) {
			continue
		}
		if len(strings.Fields(name)) < e.limits.MinBookingWords && len(name) < e.limits.MinBookingNameLen {
			continue
		}
		window := clampWindow(text, idx[0], e.limits.BookingBefore, e.limits.BookingAfter)
		out = append(out, Candidate{
			Name:     name,
			ECTS:     ExtractECTS(window),
			Semester: ExtractSemester(window),
		})
	}

	return out
}

// FilterBooked keeps only candidates whose name occurs within
// ProximityRadius characters of a booking-intent verb somewhere in text.
// When no occurrence window qualifies, the verb pattern is tested against
// the whole text as a last resort before the candidate is dropped.
func (e *Extractor) FilterBooked(candidates []Candidate, text string) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if e.bookedInContext(c.Name, text) {
			out = append(out, c)
		}
	}
	return out
}

// bookedInContext reports whether some occurrence of name has a
// booking-intent verb within the proximity window.
func (e *Extractor) bookedInContext(name, text string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	nameRe, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name))
	if err != nil {
		return false
	}
	for _, loc := range nameRe.FindAllStringIndex(text, -1) {
		start := max(0, loc[0]-e.limits.ProximityRadius)
		end := min(len(text), loc[1]+e.limits.ProximityRadius)
		if bookingIntentRe.MatchString(text[start:end]) {
			return true
		}
	}
	return bookingIntentRe.MatchString(text)
}

// ExtractBookingName pulls the course name out of an explicit
// "booking: <name> with ..." confirmation, falling back to everything up to
// the first comma. Returns "" when no confirmation is present.
func ExtractBookingName(text string) string {
	if m := bookingNameRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bookingNameFallRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractECTS finds a credit value in text, accepting digit and number-word
// forms ("5 ECTS", "five E C T S", "6 credits"). Returns 0 when no value in
// (0, 30] is present.
func ExtractECTS(text string) float64 {
	normalized := normalize.Digits(text)
	for _, re := range []*regexp.Regexp{ectsValueRe, creditValueRe} {
		if m := re.FindStringSubmatch(normalized); m != nil {
			v, err := strconv.Atoi(m[1])
			if err == nil && v > 0 && v <= maxECTS {
				return float64(v)
			}
		}
	}
	return 0
}

// ExtractSemester finds a semester label in text. Standard winter/summer
// phrasing is normalised to "WS 20YY" / "SS 20YY" (defaulting to WS 2024 /
// SS 2025 when no year is spoken); free-form labels that contain a year or a
// semester keyword are passed through verbatim. Returns "" when nothing
// semester-like is found.
func ExtractSemester(text string) string {
	for _, re := range []*regexp.Regexp{semesterCodeRe, seasonYearRe, seasonRe} {
		m := re.FindString(text)
		if m == "" {
			continue
		}
		switch {
		case winterRe.MatchString(m):
			if y := yearRe.FindString(m); y != "" {
				return "WS " + y
			}
			return "WS 2024"
		case summerRe.MatchString(m):
			if y := yearRe.FindString(m); y != "" {
				return "SS " + y
			}
			return "SS 2025"
		default:
			return strings.ToUpper(m)
		}
	}

	// Free-form labels like "Semester 1" or "Fall 2024".
	if m := customSemesterRe.FindStringSubmatch(text); m != nil {
		label := strings.TrimSpace(m[1])
		if semesterKeywordRe.MatchString(label) {
			return label
		}
	}
	return ""
}

// NormalizeSemester validates and canonicalises a semester string coming
// from an untrusted source (the remote fallback extractor). Winter/summer
// phrasing with a year becomes "WS 20YY" / "SS 20YY"; an already-formatted
// code is upper-cased with collapsed whitespace; any other non-empty label
// is passed through trimmed.
func NormalizeSemester(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if y := yearRe.FindString(s); y != "" {
		if winterRe.MatchString(s) {
			return "WS " + y
		}
		if summerRe.MatchString(s) {
			return "SS " + y
		}
	}
	if codeOnlyRe.MatchString(s) {
		return strings.ToUpper(wsRun.ReplaceAllString(s, " "))
	}
	return s
}

// QuickDetect reports whether text carries any cheap course-advising signal
// (booking verbs, credit mentions, 7-digit module codes, semester markers).
// The API layer uses it to skip full analysis of messages that cannot
// contain bookings.
func QuickDetect(text string) bool {
	for _, re := range quickDetectRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// clampWindow returns text[idx-before : idx+after] clamped to the text
// bounds.
func clampWindow(text string, idx, before, after int) string {
	start := max(0, idx-before)
	end := min(len(text), idx+after)
	return text[start:end]
}
