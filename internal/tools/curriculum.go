package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/majormentor/major-mentor-go/internal/catalog"
	"github.com/majormentor/major-mentor-go/internal/config"
	"github.com/majormentor/major-mentor-go/internal/genai"
	"github.com/majormentor/major-mentor-go/internal/resolver"
	"github.com/majormentor/major-mentor-go/internal/retriever"
)

// curriculumGroup is one grade-semester slot of a department's curriculum
// after dedupe and truncation.
type curriculumGroup struct {
	Grade    int
	Semester int
	Courses  []catalog.Course
}

func (g curriculumGroup) label() string {
	return fmt.Sprintf("%d-%d", g.Grade, g.Semester)
}

// getCurriculum resolves the department (pinned to the university when one
// is mentioned) and returns its curriculum grouped by grade-semester,
// ascending, at most config.GroupLimit courses per group. The header always
// names the owning university; a department never spans universities.
//
// A resolution that was accepted but stayed below the hard-filter bar is
// treated as a hint rather than a fact: the curriculum then comes from
// hybrid retrieval with the department as a soft ranking signal, so a
// slightly-off mention still surfaces the right material.
func (reg *Registry) getCurriculum(ctx context.Context, department, university string) (*Result, error) {
	rctx, err := reg.pinUniversity(ctx, university)
	if err != nil {
		return nil, err
	}

	dept, err := reg.resolveDepartment(ctx, department, rctx)
	if err != nil {
		return nil, err
	}

	if dept.Confidence < config.HardFilterConfidence && reg.retriever.IsEnabled() {
		return reg.retrievedCurriculum(ctx, department, dept)
	}

	universityName, err := reg.universityName(ctx, dept.UniversityID)
	if err != nil {
		return nil, err
	}

	courses, err := reg.catalog.DB().GetCurriculum(ctx, dept.ID)
	if err != nil {
		return nil, fmt.Errorf("curriculum for %s: %w", dept.ID, err)
	}

	groups := groupCurriculum(courses, config.GroupLimit)
	if len(groups) == 0 {
		return &Result{
			Tool: genai.FuncGetCurriculum,
			Text: fmt.Sprintf("%s %s의 교육과정 정보가 없습니다.", universityName, dept.Name),
		}, nil
	}

	var b strings.Builder
	entities := []string{dept.Name, universityName}
	fmt.Fprintf(&b, "%s %s 교육과정 (학년-학기 순):\n", universityName, dept.Name)
	for _, g := range groups {
		labels := make([]string, 0, len(g.Courses))
		for _, c := range g.Courses {
			labels = append(labels, courseLabel(c.Name, c.Classification))
			entities = append(entities, c.Name)
		}
		fmt.Fprintf(&b, "[%s] %s\n", g.label(), strings.Join(labels, ", "))
	}

	return &Result{Tool: genai.FuncGetCurriculum, Text: b.String(), Entities: entities}, nil
}

// retrievedCurriculum serves a curriculum request whose department mention
// resolved below the hard-filter bar. The resolved department biases the
// ranking instead of excluding everything else.
func (reg *Registry) retrievedCurriculum(ctx context.Context, mention string, dept *resolver.ResolvedEntity) (*Result, error) {
	filter := &retriever.Filter{
		DepartmentID: dept.ID,
		Department:   dept.Name,
		Confidence:   dept.Confidence,
	}
	groups, err := reg.retriever.Retrieve(ctx, mention, filter, config.GroupLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieve curriculum for %q: %w", mention, err)
	}
	if len(groups) == 0 {
		return &Result{
			Tool: genai.FuncGetCurriculum,
			Text: fmt.Sprintf("%q 관련 교육과정을 찾지 못했습니다.", mention),
		}, nil
	}

	var b strings.Builder
	var entities []string
	fmt.Fprintf(&b, "%q 관련 교육과정 (학년-학기 순):\n", mention)
	for _, g := range groups {
		names := make([]string, 0, len(g.Courses))
		for _, c := range g.Courses {
			names = append(names, c.Name)
			entities = append(entities, c.Name)
		}
		owner := g.Department
		if g.University != "" {
			owner = g.University + " " + g.Department
		}
		entities = append(entities, g.Department)
		fmt.Fprintf(&b, "[%s] %s: %s\n", g.GradeSemester(), owner, strings.Join(names, ", "))
	}

	return &Result{Tool: genai.FuncGetCurriculum, Text: b.String(), Entities: entities}, nil
}

// pinUniversity resolves an optional university mention into a resolver
// context. An empty mention pins nothing.
func (reg *Registry) pinUniversity(ctx context.Context, university string) (*resolver.Context, error) {
	if strings.TrimSpace(university) == "" {
		return nil, nil
	}
	resolved, err := reg.resolveUniversity(ctx, university)
	if err != nil {
		return nil, err
	}
	return &resolver.Context{UniversityID: resolved.ID}, nil
}

// universityName loads the display name of a department's owning university.
func (reg *Registry) universityName(ctx context.Context, universityID string) (string, error) {
	univ, err := reg.catalog.DB().GetUniversityByID(ctx, universityID)
	if err != nil {
		return "", fmt.Errorf("load university %s: %w", universityID, err)
	}
	return univ.Name, nil
}

// courseLabel renders a course name with its requirement classification
// when one is stored.
func courseLabel(name, classification string) string {
	if classification == "" {
		return name
	}
	return fmt.Sprintf("%s(%s)", name, classification)
}

// groupCurriculum groups courses by grade-semester, drops duplicate course
// names within a group before truncation, and caps each group. Input order
// within a group is preserved, so dataset order decides which duplicate
// survives.
func groupCurriculum(courses []catalog.Course, limitPerGroup int) []curriculumGroup {
	if limitPerGroup <= 0 {
		limitPerGroup = config.GroupLimit
	}

	var groups []curriculumGroup
	index := make(map[string]int)
	seen := make(map[string]bool)

	for _, c := range courses {
		key := c.GradeSemester()
		nameKey := key + "\x00" + c.Name
		if seen[nameKey] {
			continue
		}
		seen[nameKey] = true

		i, ok := index[key]
		if !ok {
			groups = append(groups, curriculumGroup{Grade: c.Grade, Semester: c.Semester})
			i = len(groups) - 1
			index[key] = i
		}
		if len(groups[i].Courses) >= limitPerGroup {
			continue
		}
		groups[i].Courses = append(groups[i].Courses, c)
	}

	return groups
}
