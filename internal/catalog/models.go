// Package catalog provides the canonical entity store backing entity
// resolution and tool execution. It holds universities, colleges,
// departments, and per-department curricula in SQLite, and supports atomic
// replacement of the whole dataset.
package catalog

import "fmt"

// University is a canonical university entity.
type University struct {
	ID     string
	Name   string
	Region string
}

// College is a school-level grouping of departments within one university.
type College struct {
	ID           string
	UniversityID string
	Name         string
}

// Department is a canonical department entity, scoped to one university.
// Departments with the same name at different universities are distinct
// rows. Description may be empty when the upstream dataset carries no
// introduction text for the department.
type Department struct {
	ID           string
	CollegeID    string
	UniversityID string
	Name         string
	Description  string
}

// Course is one curriculum entry of a department. Classification is the
// requirement class of the course (전공필수, 전공선택, ...) and may be empty.
type Course struct {
	ID             string
	DepartmentID   string
	Grade          int
	Semester       int
	Name           string
	Classification string
	Summary        string
}

// GradeSemester returns the user-facing grade-semester label, e.g. "1-1".
func (c Course) GradeSemester() string {
	return fmt.Sprintf("%d-%d", c.Grade, c.Semester)
}

// Dataset is a full catalog snapshot as consumed by ingest.
type Dataset struct {
	Universities []University
	Colleges     []College
	Departments  []Department
	Courses      []Course
}
