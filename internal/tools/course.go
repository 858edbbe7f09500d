package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/majormentor/major-mentor-go/internal/catalog"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/genai"
	"github.com/majormentor/major-mentor-go/internal/resolver"
)

// courseMatch pairs a curriculum entry with the department it belongs to.
type courseMatch struct {
	course     catalog.Course
	department string
}

// getCourseDetail returns the stored description of a course verbatim.
// When the course cannot be resolved uniquely, or the matched course has
// no description, the call fails with ErrDescriptionUnavailable; the
// answer must report that, never substitute generated text.
func (reg *Registry) getCourseDetail(ctx context.Context, course, department, university string) (*Result, error) {
	mention := resolver.Normalize(course)
	if mention == "" {
		return nil, domerrors.NewValidationError(genai.ParamCourse, "empty course mention")
	}

	departments, err := reg.coursePool(ctx, department, university)
	if err != nil {
		return nil, err
	}

	match, err := reg.matchCourse(ctx, mention, departments)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(match.course.Summary) == "" {
		return nil, fmt.Errorf("course %q has no stored description: %w",
			match.course.Name, domerrors.ErrDescriptionUnavailable)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "과목: %s (%s, %s)\n", match.course.Name, match.department, match.course.GradeSemester())
	if match.course.Classification != "" {
		fmt.Fprintf(&b, "분류: %s\n", match.course.Classification)
	}
	fmt.Fprintf(&b, "설명: %s", match.course.Summary)
	return &Result{
		Tool:     genai.FuncGetCourseDetail,
		Text:     b.String(),
		Entities: []string{match.course.Name, match.department},
	}, nil
}

// coursePool narrows the departments whose curricula are searched. With a
// department mention it resolves to exactly that department; without one
// every department is searched.
func (reg *Registry) coursePool(ctx context.Context, department, university string) ([]catalog.Department, error) {
	rctx, err := reg.pinUniversity(ctx, university)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(department) != "" {
		dept, err := reg.resolveDepartment(ctx, department, rctx)
		if err != nil {
			return nil, err
		}
		full, err := reg.catalog.DB().GetDepartmentByID(ctx, dept.ID)
		if err != nil {
			return nil, fmt.Errorf("load department %s: %w", dept.ID, err)
		}
		return []catalog.Department{*full}, nil
	}

	departments, err := reg.catalog.DB().ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// matchCourse scans the curricula of the candidate departments for the
// mentioned course. Exact normalized name matches win; failing that, a
// single course whose name contains the mention is accepted. Anything
// else is not uniquely resolvable.
func (reg *Registry) matchCourse(ctx context.Context, mention string, departments []catalog.Department) (*courseMatch, error) {
	var exact, partial []courseMatch

	for _, dept := range departments {
		courses, err := reg.catalog.DB().GetCurriculum(ctx, dept.ID)
		if err != nil {
			return nil, fmt.Errorf("curriculum for %s: %w", dept.ID, err)
		}
		for _, c := range courses {
			name := resolver.Normalize(c.Name)
			switch {
			case name == mention:
				exact = append(exact, courseMatch{course: c, department: dept.Name})
			case strings.Contains(name, mention):
				partial = append(partial, courseMatch{course: c, department: dept.Name})
			}
		}
	}

	if m := uniqueByName(exact); m != nil {
		return m, nil
	}
	if len(exact) == 0 {
		if m := uniqueByName(partial); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("course %q not uniquely resolvable: %w", mention, domerrors.ErrDescriptionUnavailable)
}

// uniqueByName accepts a match set only when all entries carry the same
// course name within the same department, so duplicate source rows never
// block resolution. The earliest entry wins, matching catalog row order.
func uniqueByName(matches []courseMatch) *courseMatch {
	if len(matches) == 0 {
		return nil
	}
	first := matches[0]
	for _, m := range matches[1:] {
		if m.course.Name != first.course.Name || m.course.DepartmentID != first.course.DepartmentID {
			return nil
		}
	}
	return &first
}
