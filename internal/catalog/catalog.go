// Package catalog provides the official module-catalog client for the
// advising pipeline.
//
// The catalog is a JSON document, either a bare array of module entries or
// an object of the form {"generatedAt": ..., "modules": [...]}, produced
// from the university's course handbook. It is loaded once per process from
// a [Source] (local file or HTTP endpoint) and cached for the session.
// Records are never mutated in place; an edit produces a new record that
// replaces the old one by name.
//
// A load failure leaves the catalog permanently empty for the session: every
// lookup then degrades to an empty result and downstream matching falls back
// to identity passthrough. Nothing in this package is fatal to the caller.
package catalog

import "strings"

// Module is one catalog entry, immutable after load.
type Module struct {
	// Name is the canonical module name.
	Name string `json:"name"`

	// Page is the handbook page the viewer should jump to. Always ≥ 1 after
	// load.
	Page int `json:"page"`

	// ListedPage is the page number as printed in the handbook index, when
	// it differs from the actual page.
	ListedPage int `json:"listedPage,omitempty"`

	// ECTS is the credit value. Nil when the handbook does not state one.
	ECTS *float64 `json:"ects,omitempty"`

	// Term states when the module runs: "WS", "SS", "Both", or "irregular".
	Term string `json:"term,omitempty"`

	// Type categorises the module (lecture, seminar, practical).
	Type string `json:"type,omitempty"`

	// PartOf lists the curriculum classifications this module belongs to.
	PartOf []Classification `json:"partOf,omitempty"`

	// Schedule carries timetable metadata for the UI, when available.
	Schedule *Schedule `json:"schedule,omitempty"`

	// Exam carries examination metadata for the UI, when available.
	Exam *Exam `json:"exam,omitempty"`
}

// Classification is one {area, subcategory} curriculum tag pair.
type Classification struct {
	Type        string `json:"type"`
	Area        string `json:"area,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
}

// Schedule holds timetable details parsed from the handbook.
type Schedule struct {
	Times       []string `json:"times,omitempty"`
	Rooms       []string `json:"rooms,omitempty"`
	Instructors []string `json:"instructors,omitempty"`
	SourcePage  int      `json:"source_page,omitempty"`
}

// Exam holds examination details parsed from the handbook.
type Exam struct {
	Type      string `json:"type,omitempty"`
	Date      string `json:"date,omitempty"`
	DayOfWeek string `json:"day_of_week,omitempty"`
}

// matchesName reports whether m's name equals name, ignoring case and
// surrounding whitespace.
func (m Module) matchesName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(name))
}
