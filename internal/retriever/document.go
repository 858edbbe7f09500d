// Package retriever provides hybrid course retrieval: chromem-go vector
// search fused with BM25 keyword search via weighted Reciprocal Rank Fusion.
package retriever

import (
	"fmt"
	"strings"
)

// Document is one indexable course entry. Documents are immutable; index
// updates replace the whole corpus. University and College carry the
// provenance of the offering department so results stay attributable to
// one university.
type Document struct {
	CourseID     string
	DepartmentID string
	University   string
	College      string
	Department   string
	Grade        int
	Semester     int
	Name         string
	Summary      string
}

// GradeSemester returns the user-facing grade-semester label, e.g. "1-1".
func (d Document) GradeSemester() string {
	return fmt.Sprintf("%d-%d", d.Grade, d.Semester)
}

// Text returns the content indexed for this document. The university,
// department, and course names are included so lexical search matches them
// directly.
func (d Document) Text() string {
	parts := make([]string, 0, 4)
	if d.University != "" {
		parts = append(parts, d.University)
	}
	if d.Department != "" {
		parts = append(parts, d.Department)
	}
	parts = append(parts, d.Name)
	if strings.TrimSpace(d.Summary) != "" {
		parts = append(parts, d.Summary)
	}
	return strings.Join(parts, " - ")
}
