package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/majormentor/major-mentor-go/internal/config"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/genai"
)

// comparedDepartment is one side of a curriculum comparison: the resolved
// department plus its distinct course names keyed by grade-semester.
type comparedDepartment struct {
	id      string
	name    string
	byGroup map[string][]string // grade-semester label -> course names, dataset order
	nameSet map[string]bool
}

// compareDepartments resolves each mention independently, loads each
// curriculum, and aligns them by grade-semester: course names shared by
// every department, then each department's unique courses. A resolution
// failure on any mention fails the whole call so the clarifying question
// covers the right mention.
func (reg *Registry) compareDepartments(ctx context.Context, mentions []string) (*Result, error) {
	if len(mentions) < 2 {
		return nil, domerrors.NewValidationError(genai.ParamDepartments, "need at least two departments to compare")
	}

	compared := make([]comparedDepartment, 0, len(mentions))
	seen := make(map[string]bool)
	for _, mention := range mentions {
		dept, err := reg.resolveDepartment(ctx, mention, nil)
		if err != nil {
			return nil, err
		}
		if seen[dept.ID] {
			continue
		}
		seen[dept.ID] = true

		cd, err := reg.loadComparedDepartment(ctx, dept.ID, dept.Name)
		if err != nil {
			return nil, err
		}
		compared = append(compared, *cd)
	}

	if len(compared) < 2 {
		return nil, domerrors.NewValidationError(genai.ParamDepartments, "mentions resolve to the same department")
	}

	shared := sharedCourses(compared)

	var b strings.Builder
	entities := make([]string, 0, len(compared))
	for _, cd := range compared {
		entities = append(entities, cd.name)
	}
	fmt.Fprintf(&b, "%s 교육과정 비교:\n", joinNames(compared))

	if len(shared) > 0 {
		fmt.Fprintf(&b, "공통 과목: %s\n", strings.Join(shared, ", "))
	} else {
		b.WriteString("공통 과목: 없음\n")
	}

	for _, cd := range compared {
		unique := uniqueCourses(cd, compared)
		fmt.Fprintf(&b, "%s 고유 과목:\n", cd.name)
		if len(unique) == 0 {
			b.WriteString("  없음\n")
			continue
		}
		for _, label := range sortedLabels(unique) {
			fmt.Fprintf(&b, "  [%s] %s\n", label, strings.Join(unique[label], ", "))
		}
	}

	return &Result{Tool: genai.FuncCompareDepartments, Text: b.String(), Entities: entities}, nil
}

func (reg *Registry) loadComparedDepartment(ctx context.Context, id, name string) (*comparedDepartment, error) {
	courses, err := reg.catalog.DB().GetCurriculum(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("curriculum for %s: %w", id, err)
	}

	cd := &comparedDepartment{
		id:      id,
		name:    name,
		byGroup: make(map[string][]string),
		nameSet: make(map[string]bool),
	}
	for _, g := range groupCurriculum(courses, config.GroupLimit) {
		for _, c := range g.Courses {
			if cd.nameSet[c.Name] {
				continue
			}
			cd.nameSet[c.Name] = true
			cd.byGroup[g.label()] = append(cd.byGroup[g.label()], c.Name)
		}
	}
	return cd, nil
}

// sharedCourses returns course names present in every compared department,
// in the first department's curriculum order.
func sharedCourses(compared []comparedDepartment) []string {
	var shared []string
	for _, label := range sortedLabels(compared[0].byGroup) {
		for _, name := range compared[0].byGroup[label] {
			inAll := true
			for _, other := range compared[1:] {
				if !other.nameSet[name] {
					inAll = false
					break
				}
			}
			if inAll {
				shared = append(shared, name)
			}
		}
	}
	return shared
}

// uniqueCourses returns the department's courses absent from every other
// compared department, grouped by grade-semester label.
func uniqueCourses(cd comparedDepartment, compared []comparedDepartment) map[string][]string {
	unique := make(map[string][]string)
	for label, names := range cd.byGroup {
		for _, name := range names {
			elsewhere := false
			for _, other := range compared {
				if other.id == cd.id {
					continue
				}
				if other.nameSet[name] {
					elsewhere = true
					break
				}
			}
			if !elsewhere {
				unique[label] = append(unique[label], name)
			}
		}
	}
	return unique
}

// sortedLabels orders grade-semester labels ascending. Labels are short
// "grade-semester" strings with single-digit components, so string order
// matches numeric order.
func sortedLabels[V any](m map[string]V) []string {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func joinNames(compared []comparedDepartment) string {
	names := make([]string, 0, len(compared))
	for _, cd := range compared {
		names = append(names, cd.name)
	}
	return strings.Join(names, " vs ")
}
