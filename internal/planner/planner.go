// Package planner maintains the semester plan: named buckets of booked
// courses with a per-semester ECTS goal.
//
// Two semesters are seeded at startup so a fresh session always has
// somewhere to put courses. Assignment is reactive: the planner subscribes
// to the course store's change feed and files every course that names a
// semester into the matching bucket, creating the bucket on the fly when the
// conversation mentions a semester the plan does not have yet. Automatic
// assignment never moves or removes a course; once filed, a course stays
// where it is until the user intervenes.
package planner

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/studyvoice/advisor/internal/recommend"
)

const (
	// defaultColor is used for manually created semesters without a color.
	defaultColor = "#3b82f6"

	// autoColor marks buckets the planner created on its own.
	autoColor = "#8b5cf6"

	// defaultGoal is the ECTS goal for new semesters.
	defaultGoal = 30
)

// Semester is one bucket of the plan.
type Semester struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Color    string             `json:"color"`
	ECTSGoal float64            `json:"ectsGoal"`
	Courses  []recommend.Course `json:"courses"`
}

// TotalECTS sums the credit values of the semester's courses.
func (s Semester) TotalECTS() float64 {
	var sum float64
	for _, c := range s.Courses {
		sum += c.ECTS
	}
	return sum
}

// Planner holds the semester plan. It is safe for concurrent use.
type Planner struct {
	mu        sync.RWMutex
	semesters []Semester
}

// Seed describes a semester bucket to create at startup.
type Seed struct {
	Name  string
	Color string
	Goal  float64
}

// Option configures a [Planner].
type Option func(*Planner)

// WithSeeds replaces the default startup buckets. Seeds with a blank name
// are skipped; an empty color or non-positive goal falls back to the
// defaults. Passing no seeds keeps the built-in pair.
func WithSeeds(seeds []Seed) Option {
	return func(p *Planner) {
		if len(seeds) == 0 {
			return
		}
		p.semesters = p.semesters[:0]
		for i, s := range seeds {
			name := strings.TrimSpace(s.Name)
			if name == "" {
				continue
			}
			color := s.Color
			if color == "" {
				color = defaultColor
			}
			goal := s.Goal
			if goal <= 0 {
				goal = defaultGoal
			}
			p.semesters = append(p.semesters, Semester{
				ID:       strconv.Itoa(i + 1),
				Name:     name,
				Color:    color,
				ECTSGoal: goal,
			})
		}
	}
}

// New returns a [Planner] seeded with the default winter and summer
// semesters unless [WithSeeds] overrides them.
func New(opts ...Option) *Planner {
	p := &Planner{
		semesters: []Semester{
			{ID: "1", Name: "WS 2024", Color: defaultColor, ECTSGoal: defaultGoal},
			{ID: "2", Name: "SS 2025", Color: "#10b981", ECTSGoal: defaultGoal},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AutoAssign files every course that names a semester into the matching
// bucket. Intended as a course-store change subscriber.
//
// A course already present in any bucket is left alone, whatever its
// current semester field says. Bucket lookup is case-insensitive on the
// semester name; a miss creates a new bucket with the auto color and the
// default goal.
func (p *Planner) AutoAssign(courses []recommend.Course) {
	p.mu.Lock()
	defer p.mu.Unlock()

	assigned := make(map[string]bool)
	for _, sem := range p.semesters {
		for _, c := range sem.Courses {
			if c.ID != "" {
				assigned[c.ID] = true
			}
		}
	}

	for _, course := range courses {
		if course.ID == "" || course.Semester == "" || assigned[course.ID] {
			continue
		}

		idx := p.indexByNameLocked(course.Semester)
		if idx >= 0 {
			p.semesters[idx].Courses = append(p.semesters[idx].Courses, course)
		} else {
			p.semesters = append(p.semesters, Semester{
				ID:       newID(),
				Name:     course.Semester,
				Color:    autoColor,
				ECTSGoal: defaultGoal,
				Courses:  []recommend.Course{course},
			})
		}
		assigned[course.ID] = true
	}
}

// AddSemester creates a new empty semester. An empty color gets the default
// color; a non-positive goal gets the default goal. Returns false when the
// trimmed name is empty.
func (p *Planner) AddSemester(_ context.Context, name, color string, goal float64) (Semester, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Semester{}, false
	}
	if color == "" {
		color = defaultColor
	}
	if goal <= 0 {
		goal = defaultGoal
	}

	sem := Semester{ID: newID(), Name: name, Color: color, ECTSGoal: goal}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.semesters = append(p.semesters, sem)
	return sem, true
}

// UpdateSemester renames or recolors the semester with the given ID. Zero
// field values keep the current setting. Returns false for an unknown ID.
func (p *Planner) UpdateSemester(_ context.Context, id, name, color string, goal float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.indexByIDLocked(id)
	if idx < 0 {
		return false
	}
	if name = strings.TrimSpace(name); name != "" {
		p.semesters[idx].Name = name
	}
	if color != "" {
		p.semesters[idx].Color = color
	}
	if goal > 0 {
		p.semesters[idx].ECTSGoal = goal
	}
	return true
}

// RemoveSemester deletes the semester and drops its course assignments.
// Returns false for an unknown ID.
func (p *Planner) RemoveSemester(_ context.Context, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.indexByIDLocked(id)
	if idx < 0 {
		return false
	}
	p.semesters = append(p.semesters[:idx], p.semesters[idx+1:]...)
	return true
}

// AssignCourse puts course into the semester with the given ID. A course
// already in that semester is not duplicated. Returns false for an unknown
// semester.
func (p *Planner) AssignCourse(_ context.Context, semesterID string, course recommend.Course) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.indexByIDLocked(semesterID)
	if idx < 0 {
		return false
	}
	for _, c := range p.semesters[idx].Courses {
		if c.ID == course.ID {
			return true
		}
	}
	p.semesters[idx].Courses = append(p.semesters[idx].Courses, course)
	return true
}

// RemoveCourse takes the course out of the semester. Returns false when the
// semester is unknown or does not hold the course.
func (p *Planner) RemoveCourse(_ context.Context, semesterID, courseID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.indexByIDLocked(semesterID)
	if idx < 0 {
		return false
	}
	for i, c := range p.semesters[idx].Courses {
		if c.ID == courseID {
			p.semesters[idx].Courses = append(p.semesters[idx].Courses[:i], p.semesters[idx].Courses[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy of the plan in semester order.
func (p *Planner) Snapshot(_ context.Context) []Semester {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Semester, len(p.semesters))
	for i, sem := range p.semesters {
		courses := make([]recommend.Course, len(sem.Courses))
		copy(courses, sem.Courses)
		sem.Courses = courses
		out[i] = sem
	}
	return out
}

// ByName returns the semester whose name matches (case-insensitive).
func (p *Planner) ByName(_ context.Context, name string) (Semester, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	idx := p.indexByNameLocked(name)
	if idx < 0 {
		return Semester{}, false
	}
	sem := p.semesters[idx]
	courses := make([]recommend.Course, len(sem.Courses))
	copy(courses, sem.Courses)
	sem.Courses = courses
	return sem, true
}

// indexByIDLocked returns the position of the semester with the given ID,
// or -1. Caller holds p.mu.
func (p *Planner) indexByIDLocked(id string) int {
	for i, sem := range p.semesters {
		if sem.ID == id {
			return i
		}
	}
	return -1
}

// indexByNameLocked returns the position of the semester whose name matches
// case-insensitively, or -1. Caller holds p.mu.
func (p *Planner) indexByNameLocked(name string) int {
	for i, sem := range p.semesters {
		if strings.EqualFold(sem.Name, name) {
			return i
		}
	}
	return -1
}

// newID produces a random 8-byte hex string.
func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
