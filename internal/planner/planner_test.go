package planner_test

import (
	"context"
	"testing"

	"github.com/studyvoice/advisor/internal/planner"
	"github.com/studyvoice/advisor/internal/recommend"
)

func TestNew_SeedsDefaultSemesters(t *testing.T) {
	t.Parallel()

	p := planner.New()
	plan := p.Snapshot(context.Background())

	if len(plan) != 2 {
		t.Fatalf("got %d semesters, want 2", len(plan))
	}
	if plan[0].Name != "WS 2024" || plan[1].Name != "SS 2025" {
		t.Errorf("seeded names = %q, %q", plan[0].Name, plan[1].Name)
	}
	for _, sem := range plan {
		if sem.ECTSGoal != 30 {
			t.Errorf("%s: ECTSGoal = %v, want 30", sem.Name, sem.ECTSGoal)
		}
	}
}

func TestNew_WithSeeds(t *testing.T) {
	t.Parallel()

	p := planner.New(planner.WithSeeds([]planner.Seed{
		{Name: "WS 2025", Color: "#ef4444", Goal: 24},
		{Name: "SS 2026"},
		{Name: "   "},
	}))
	plan := p.Snapshot(context.Background())

	if len(plan) != 2 {
		t.Fatalf("got %d semesters, want 2 (blank seed skipped)", len(plan))
	}
	if plan[0].Name != "WS 2025" || plan[0].Color != "#ef4444" || plan[0].ECTSGoal != 24 {
		t.Errorf("first seed = %+v", plan[0])
	}
	if plan[1].Color != "#3b82f6" || plan[1].ECTSGoal != 30 {
		t.Errorf("defaults not applied to second seed: %+v", plan[1])
	}
}

func TestAutoAssign(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := planner.New()

	courses := []recommend.Course{
		{ID: "module-Thermodynamics", Name: "Thermodynamics", ECTS: 6, Semester: "ws 2024"},
		{ID: "module-ML", Name: "Machine Learning - Basic Methods", ECTS: 5, Semester: "Semester 3"},
		{ID: "module-Unplanned", Name: "Unplanned Course"},
	}
	p.AutoAssign(courses)

	plan := p.Snapshot(ctx)
	if len(plan) != 3 {
		t.Fatalf("got %d semesters, want 3 (one auto-created)", len(plan))
	}

	// Case-insensitive bucket match.
	if len(plan[0].Courses) != 1 || plan[0].Courses[0].Name != "Thermodynamics" {
		t.Errorf("WS 2024 courses = %+v", plan[0].Courses)
	}

	// Auto-created bucket carries the auto color and default goal.
	auto := plan[2]
	if auto.Name != "Semester 3" || auto.Color != "#8b5cf6" || auto.ECTSGoal != 30 {
		t.Errorf("auto bucket = %+v", auto)
	}
	if len(auto.Courses) != 1 {
		t.Errorf("auto bucket has %d courses, want 1", len(auto.Courses))
	}

	// Course without a semester stays unassigned.
	for _, sem := range plan {
		for _, c := range sem.Courses {
			if c.ID == "module-Unplanned" {
				t.Error("course without semester was assigned")
			}
		}
	}
}

func TestAutoAssign_DoesNotReassign(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := planner.New()

	course := recommend.Course{ID: "module-Thermodynamics", Name: "Thermodynamics", Semester: "WS 2024"}
	p.AutoAssign([]recommend.Course{course})

	// Same course now claims a different semester: assignment is sticky.
	course.Semester = "SS 2025"
	p.AutoAssign([]recommend.Course{course})

	plan := p.Snapshot(ctx)
	if len(plan[0].Courses) != 1 {
		t.Errorf("WS 2024 has %d courses, want 1", len(plan[0].Courses))
	}
	if len(plan[1].Courses) != 0 {
		t.Errorf("SS 2025 has %d courses, want 0", len(plan[1].Courses))
	}

	// Repeated snapshots never duplicate.
	p.AutoAssign([]recommend.Course{course})
	if got := len(p.Snapshot(ctx)[0].Courses); got != 1 {
		t.Errorf("after repeat: WS 2024 has %d courses, want 1", got)
	}
}

func TestManualSemesterLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := planner.New()

	sem, ok := p.AddSemester(ctx, "WS 2025", "", 0)
	if !ok {
		t.Fatal("AddSemester: expected success")
	}
	if sem.Color != "#3b82f6" || sem.ECTSGoal != 30 {
		t.Errorf("defaults not applied: %+v", sem)
	}

	if _, ok := p.AddSemester(ctx, "   ", "", 0); ok {
		t.Error("AddSemester: expected failure for blank name")
	}

	if !p.UpdateSemester(ctx, sem.ID, "WS 2025/26", "#ef4444", 24) {
		t.Fatal("UpdateSemester: expected success")
	}
	got, _ := p.ByName(ctx, "ws 2025/26")
	if got.Color != "#ef4444" || got.ECTSGoal != 24 {
		t.Errorf("after update: %+v", got)
	}

	if !p.RemoveSemester(ctx, sem.ID) {
		t.Fatal("RemoveSemester: expected success")
	}
	if p.RemoveSemester(ctx, sem.ID) {
		t.Error("RemoveSemester: expected failure for removed ID")
	}
}

func TestAssignAndRemoveCourse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := planner.New()
	plan := p.Snapshot(ctx)
	ws := plan[0]

	course := recommend.Course{ID: "module-Thermodynamics", Name: "Thermodynamics", ECTS: 6}

	if !p.AssignCourse(ctx, ws.ID, course) {
		t.Fatal("AssignCourse: expected success")
	}
	// Assigning twice does not duplicate.
	p.AssignCourse(ctx, ws.ID, course)

	got, _ := p.ByName(ctx, "WS 2024")
	if len(got.Courses) != 1 {
		t.Fatalf("courses = %+v, want 1 entry", got.Courses)
	}
	if got.TotalECTS() != 6 {
		t.Errorf("TotalECTS = %v, want 6", got.TotalECTS())
	}

	if !p.RemoveCourse(ctx, ws.ID, course.ID) {
		t.Fatal("RemoveCourse: expected success")
	}
	if p.RemoveCourse(ctx, ws.ID, course.ID) {
		t.Error("RemoveCourse: expected failure for absent course")
	}

	if p.AssignCourse(ctx, "nope", course) {
		t.Error("AssignCourse: expected failure for unknown semester")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := planner.New()
	p.AutoAssign([]recommend.Course{
		{ID: "module-A", Name: "A", Semester: "WS 2024"},
	})

	snap := p.Snapshot(ctx)
	snap[0].Courses[0].Name = "mutated"
	snap[0].Name = "mutated"

	fresh := p.Snapshot(ctx)
	if fresh[0].Name != "WS 2024" || fresh[0].Courses[0].Name != "A" {
		t.Error("Snapshot leaked internal state")
	}
}
