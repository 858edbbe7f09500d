// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the function declarations offered to the planner.
//
// IMPORTANT: Function declarations use genai.Type* constants (e.g.,
// genai.TypeString = "STRING"). When converting to OpenAI-compatible format,
// types must be lowercased to match the JSON Schema spec ("string" not
// "STRING"). See buildOpenAITools() in openai_planner.go.
package genai

import "google.golang.org/genai"

// Planner function names. Every planner response calls exactly one of these.
const (
	FuncRecommendDepartments = "recommend_departments_by_interest"
	FuncFindUniversities     = "find_universities_by_department"
	FuncGetCurriculum        = "get_curriculum"
	FuncGetCourseDetail      = "get_course_detail"
	FuncCompareDepartments   = "compare_departments"
	FuncFinalAnswer          = "final_answer"
)

// Parameter keys shared by the function declarations and the tool registry.
const (
	ParamQuery       = "query"
	ParamDepartment  = "department"
	ParamDepartments = "departments"
	ParamUniversity  = "university"
	ParamCourse      = "course"
	ParamAnswer      = "answer"
)

// paramSpec describes one declared parameter for argument decoding.
type paramSpec struct {
	key      string
	required bool
	isArray  bool
}

// paramSpecs lists the parameters per function, used when decoding
// function call arguments.
var paramSpecs = map[string][]paramSpec{
	FuncRecommendDepartments: {{key: ParamQuery, required: true}},
	FuncFindUniversities:     {{key: ParamDepartment, required: true}},
	FuncGetCurriculum: {
		{key: ParamDepartment, required: true},
		{key: ParamUniversity},
	},
	FuncGetCourseDetail: {
		{key: ParamCourse, required: true},
		{key: ParamDepartment},
		{key: ParamUniversity},
	},
	FuncCompareDepartments: {{key: ParamDepartments, required: true, isArray: true}},
	FuncFinalAnswer:        {{key: ParamAnswer, required: true}},
}

// BuildPlannerFunctions returns the function declarations for the agent
// planner: the retrieval and catalog tools plus the final_answer call that
// terminates a turn.
func BuildPlannerFunctions() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        FuncRecommendDepartments,
			Description: "학생의 관심사나 진로 희망을 바탕으로 어울리는 학과를 추천한다. 구체적인 학과명이 아닌 관심 분야 설명에 사용한다.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					ParamQuery: {
						Type:        genai.TypeString,
						Description: "관심사 또는 진로 설명. 예: \"게임 만드는 일을 하고 싶어요\", \"사람의 마음을 이해하는 공부\"",
					},
				},
				Required: []string{ParamQuery},
			},
		},
		{
			Name:        FuncFindUniversities,
			Description: "특정 학과(또는 유사한 이름의 학과)를 개설한 대학 목록을 조회한다.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					ParamDepartment: {
						Type:        genai.TypeString,
						Description: "학과명. 예: \"컴퓨터공학과\", \"심리학과\"",
					},
				},
				Required: []string{ParamDepartment},
			},
		},
		{
			Name:        FuncGetCurriculum,
			Description: "학과의 학년-학기별 교육과정(커리큘럼)을 조회한다.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					ParamDepartment: {
						Type:        genai.TypeString,
						Description: "학과명. 예: \"기계공학과\"",
					},
					ParamUniversity: {
						Type:        genai.TypeString,
						Description: "대학명(학생이 언급한 경우). 예: \"한국대학교\"",
					},
				},
				Required: []string{ParamDepartment},
			},
		},
		{
			Name:        FuncGetCourseDetail,
			Description: "교육과정에 포함된 특정 과목의 상세 설명을 조회한다.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					ParamCourse: {
						Type:        genai.TypeString,
						Description: "과목명. 예: \"자료구조\"",
					},
					ParamDepartment: {
						Type:        genai.TypeString,
						Description: "학과명(알고 있는 경우). 예: \"컴퓨터공학과\"",
					},
					ParamUniversity: {
						Type:        genai.TypeString,
						Description: "대학명(학생이 언급한 경우)",
					},
				},
				Required: []string{ParamCourse},
			},
		},
		{
			Name:        FuncCompareDepartments,
			Description: "여러 학과의 교육과정을 비교해 공통 과목과 학과별 고유 과목을 정리한다. 학과를 2개 이상 지정해야 한다.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					ParamDepartments: {
						Type:        genai.TypeArray,
						Description: "비교할 학과명 목록(2개 이상). 예: [\"컴퓨터공학과\", \"소프트웨어학과\"]",
						Items: &genai.Schema{
							Type: genai.TypeString,
						},
					},
				},
				Required: []string{ParamDepartments},
			},
		},
		{
			Name:        FuncFinalAnswer,
			Description: "수집한 정보로 학생에게 최종 답변한다. 더 조회할 정보가 없을 때만 호출한다. 학과명과 과목명은 도구 결과에 나온 표기 그대로 사용한다.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					ParamAnswer: {
						Type:        genai.TypeString,
						Description: "학생에게 보여줄 한국어 답변 전문",
					},
				},
				Required: []string{ParamAnswer},
			},
		},
	}
}
