package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/genai"
	"github.com/majormentor/major-mentor-go/internal/tools"
)

const systemPromptBase = `너는 대학 전공 선택을 돕는 진로 멘토다.

규칙:
- 답변의 사실 내용은 반드시 도구 조회 결과에 근거해야 한다. 도구로 확인하지 못한 내용은 지어내지 말고 모른다고 답한다.
- 학과명, 대학명, 과목명은 도구 결과에 나온 표기를 한 글자도 바꾸지 말고 그대로 사용한다.
- 도구가 후보를 여러 개 돌려주면 임의로 하나를 고르지 말고 final_answer로 학생에게 어느 것인지 확인한다.
- 과목 설명이 없다고 확인되면 설명이 제공되지 않는다고 그대로 안내한다.
- 필요한 정보를 모두 확인했으면 final_answer를 호출해 한국어로 답한다.`

// systemPrompt renders the planner system instruction, appending the
// session's accumulated interest tags when present.
func systemPrompt(interestTags []string) string {
	if len(interestTags) == 0 {
		return systemPromptBase
	}
	return systemPromptBase + "\n\n학생이 지금까지 언급한 관심사: " + strings.Join(interestTags, ", ")
}

// renderAction serializes a tool decision for the transcript, so the next
// planning step sees what was already tried.
func renderAction(decision *genai.PlanResult) string {
	args, err := json.Marshal(decision.Args)
	if err != nil {
		return "도구 호출: " + decision.FunctionName
	}
	return fmt.Sprintf("도구 호출: %s %s", decision.FunctionName, args)
}

// renderObservation wraps a successful tool result for the transcript.
func renderObservation(result *tools.Result) string {
	return fmt.Sprintf("[%s 결과]\n%s", result.Tool, result.Text)
}

// renderFailure maps a tool failure to a corrective observation. Each error
// class gets an instruction the planner can follow instead of retrying the
// same call blindly.
func renderFailure(tool string, err error) string {
	var ambErr *domerrors.AmbiguityError
	if errors.As(err, &ambErr) {
		return fmt.Sprintf(
			"[%s 실패] %q이(가) 여러 %s에 해당합니다: %s. 어느 것인지 final_answer로 학생에게 확인하세요.",
			tool, ambErr.Mention, kindLabel(ambErr.Kind), strings.Join(ambErr.Candidates, ", "))
	}

	var resErr *domerrors.ResolutionError
	if errors.As(err, &resErr) && errors.Is(err, domerrors.ErrNotFound) {
		return fmt.Sprintf(
			"[%s 실패] %q에 해당하는 %s을(를) 찾지 못했습니다. 표기를 바꿔 다시 시도하거나, 없다면 final_answer로 해당 정보가 없다고 안내하세요.",
			tool, resErr.Mention, kindLabel(resErr.Kind))
	}

	switch {
	case errors.Is(err, domerrors.ErrDescriptionUnavailable):
		return fmt.Sprintf(
			"[%s 실패] 해당 과목의 설명이 제공되지 않습니다. final_answer로 설명이 없다는 사실을 그대로 안내하세요. 설명을 지어내면 안 됩니다.",
			tool)
	case errors.Is(err, domerrors.ErrUpstreamTimeout):
		return fmt.Sprintf(
			"[%s 실패] 조회 시간이 초과되었습니다. 같은 호출을 한 번 더 시도하거나 다른 도구를 사용하세요.",
			tool)
	case errors.Is(err, domerrors.ErrInvalidInput):
		return fmt.Sprintf(
			"[%s 실패] 인자가 올바르지 않습니다: %v. 선언된 스키마에 맞는 인자로 다시 호출하세요.",
			tool, err)
	default:
		return fmt.Sprintf(
			"[%s 실패] 도구 실행 중 오류가 발생했습니다. 다른 방법으로 확인하거나, 불가능하면 final_answer로 확인하지 못했다고 안내하세요.",
			tool)
	}
}

func kindLabel(kind string) string {
	switch kind {
	case "university":
		return "대학"
	case "department":
		return "학과"
	default:
		return "항목"
	}
}
