package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/majormentor/major-mentor-go/internal/catalog"
	"github.com/majormentor/major-mentor-go/internal/config"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/genai"
	"github.com/majormentor/major-mentor-go/internal/resolver"
)

// findUniversities lists universities offering the mentioned department and
// its near-synonym neighbors. The lookup is similarity-ranked rather than
// exact-match, so "컴퓨터" also surfaces 소프트웨어/인공지능-style departments.
func (reg *Registry) findUniversities(ctx context.Context, department string) (*Result, error) {
	candidates, err := reg.resolver.Candidates(ctx, department, resolver.KindDepartment, config.MaxResolverCandidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domerrors.NewResolutionError(string(resolver.KindDepartment), department,
			fmt.Errorf("department %q: %w", department, domerrors.ErrNotFound))
	}

	var b strings.Builder
	var entities []string
	fmt.Fprintf(&b, "%q 관련 학과 개설 현황 (유사도 순):\n", department)

	// Same-named departments at several universities arrive as separate
	// candidates; one line per name covers them all.
	listed := 0
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true

		universities, err := reg.catalog.DB().GetUniversitiesByDepartmentName(ctx, c.Name)
		if err != nil {
			return nil, fmt.Errorf("universities for %q: %w", c.Name, err)
		}
		names := universityNames(universities)
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, strings.Join(names, ", "))
		entities = append(entities, c.Name)
		entities = append(entities, names...)
		listed++
	}

	if listed == 0 {
		return &Result{
			Tool: genai.FuncFindUniversities,
			Text: fmt.Sprintf("%q 관련 학과는 있으나 개설 대학 정보가 없습니다.", department),
		}, nil
	}

	return &Result{Tool: genai.FuncFindUniversities, Text: b.String(), Entities: entities}, nil
}

func universityNames(universities []catalog.University) []string {
	names := make([]string, 0, len(universities))
	for _, u := range universities {
		names = append(names, u.Name)
	}
	return names
}
