// Package recommend holds the booked-course list that the analysis pass
// produces and the UI consumes.
//
// A [Course] is identified by a name-derived ID so the same module booked
// twice in a conversation collapses into one record. The [Store] is the
// single source of truth for the session; the semester planner and the API
// layer subscribe to its change feed instead of polling.
package recommend

import "context"

// Course is one recommended or booked course.
type Course struct {
	// ID uniquely identifies the course. When empty at Add time it is
	// derived from the name as "module-<name>".
	ID string `json:"id"`

	// Name is the resolved module name.
	Name string `json:"name"`

	// ECTS is the credit value; 0 when unknown.
	ECTS float64 `json:"ects,omitempty"`

	// Credits is the display form of the credit value ("5 ECTS").
	Credits string `json:"credits,omitempty"`

	// Semester is the normalised semester label the course was booked for,
	// empty when the conversation never said.
	Semester string `json:"semester,omitempty"`

	// Page is the handbook page for the viewer; 0 when unknown.
	Page int `json:"page,omitempty"`

	// Code is the optional module code.
	Code string `json:"code,omitempty"`

	// Color is the display color assigned by the planner UI.
	Color string `json:"color,omitempty"`

	// Notes carries free-form user notes.
	Notes string `json:"notes,omitempty"`
}

// Store manages the session's course list.
//
// All implementations must be safe for concurrent use. Mutations notify
// subscribers registered with OnChange after the lock is released, with a
// snapshot of the full list.
type Store interface {
	// Add inserts c, deriving an ID from the name when c.ID is empty.
	// A course whose name matches an existing record (case-insensitive)
	// is not inserted again; the existing record is returned with
	// created=false.
	Add(ctx context.Context, c Course) (Course, bool)

	// Update replaces the record with c's ID. Returns false when no record
	// has that ID.
	Update(ctx context.Context, c Course) bool

	// Remove deletes the record with the given ID. Returns false when no
	// record has that ID.
	Remove(ctx context.Context, id string) bool

	// Get retrieves a course by ID.
	Get(ctx context.Context, id string) (Course, bool)

	// List returns all courses in insertion order.
	List(ctx context.Context) []Course

	// Clear removes every course.
	Clear(ctx context.Context)

	// OnChange registers fn to run after every mutation with a snapshot of
	// the current list. Callbacks run synchronously on the mutating
	// goroutine, outside the store lock, in registration order.
	OnChange(fn func([]Course))
}
