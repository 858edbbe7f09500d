package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/majormentor/major-mentor-go/internal/config"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/genai"
)

// recommendDepartments ranks departments by aggregate topical similarity of
// their courses to the interest query, across all universities. Each entry
// names the offering university and carries a rationale excerpt from its
// best-matching course.
func (reg *Registry) recommendDepartments(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domerrors.NewValidationError(genai.ParamQuery, "empty interest query")
	}

	recs, err := reg.retriever.RecommendDepartments(ctx, query, config.MaxDepartmentRecommendations)
	if err != nil {
		return nil, fmt.Errorf("recommend departments: %w", err)
	}

	if len(recs) == 0 {
		return &Result{
			Tool: genai.FuncRecommendDepartments,
			Text: "관심사와 충분히 관련된 학과를 찾지 못했습니다. 관심 분야를 조금 더 구체적으로 설명해 달라고 안내하세요.",
		}, nil
	}

	var b strings.Builder
	var entities []string
	b.WriteString("관심사 기반 학과 추천 결과:\n")
	for i, rec := range recs {
		fmt.Fprintf(&b, "%d. %s", i+1, rec.Department)
		entities = append(entities, rec.Department)

		if rec.University != "" {
			fmt.Fprintf(&b, " (%s)", rec.University)
			entities = append(entities, rec.University)
		}
		b.WriteString("\n")

		if rec.Rationale != "" {
			fmt.Fprintf(&b, "   근거 과목: %s\n", rec.Rationale)
		}
	}

	return &Result{Tool: genai.FuncRecommendDepartments, Text: b.String(), Entities: entities}, nil
}
