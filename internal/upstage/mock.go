package upstage

import (
	"context"
	"strings"
)

// planPromptMarker distinguishes Plan prompts from Final prompts: only the
// Plan template demands JSON-only output.
const planPromptMarker = "JSON만 출력"

const defaultPlanJSON = `{
  "certain_conditions": ["만 19~34세", "수도권 거주"],
  "uncertain_conditions": ["중위소득 150% 이하", "미혼"],
  "questions": [
    {"field": "소득", "question": "최근 3개월 소득 변동이 있나요?"},
    {"field": "거주지", "question": "현재 거주 형태는 무엇인가요?"}
  ],
  "action_candidates": ["월세 지원", "직무교육 바우처", "구직활동비"]
}`

const defaultFinalText = `[자격 판단]
- 청년 월세 한시 특별지원의 연령 요건(만 19~34세)은 충족하는 것으로 보이며, 소득 요건은 확인이 필요합니다.

[신청 가능 정책]
- 청년 월세 한시 특별지원
- 청년 직무교육 바우처

[예상 혜택]
- 월세 지원: 월 최대 20만원, 최장 12개월 (확인 필요)
- 직무교육 바우처: 수강료 최대 200만원 (확인 필요)

[다음 단계]
- 1) 복지로 누리집에서 월세 지원 소득 요건을 확인
- 2) 거주지 행정복지센터에 신청 서류 문의

[확인 필요 사항]
- 가구 기준 중위소득 판정 결과
- 현재 거주 주택의 보증금/월세 수준`

// Mock is the canned in-memory collaborator set used in mock mode and in
// tests. It satisfies the same orchestrator-side interfaces as Client.
type Mock struct {
	PlanJSON  string
	FinalText string
	Payload   map[string]any
	Extracted map[string]any
}

// NewMock returns a Mock with representative canned responses.
func NewMock() *Mock {
	return &Mock{
		PlanJSON:  defaultPlanJSON,
		FinalText: defaultFinalText,
		Payload: map[string]any{
			"source": "mock",
			"text":   "청년 월세 한시 특별지원: 만 19~34세, 수도권 거주, 중위소득 기준 충족 시 월 최대 20만원 지원.",
		},
		Extracted: map[string]any{
			"age_limit":    "만 19~34세",
			"income_limit": "중위소득 150% 이하",
		},
	}
}

// Complete returns the canned plan JSON for Plan prompts and the canned
// five-section text for everything else.
func (m *Mock) Complete(_ context.Context, promptText string) (string, error) {
	if strings.Contains(promptText, planPromptMarker) {
		return m.PlanJSON, nil
	}
	return m.FinalText, nil
}

// ParseDocument returns the canned parsed-document payload.
func (m *Mock) ParseDocument(_ context.Context, _ string) (map[string]any, error) {
	return m.Payload, nil
}

// ExtractInformation returns the canned extraction result.
func (m *Mock) ExtractInformation(_ context.Context, _ string, _ map[string]any) (map[string]any, error) {
	return m.Extracted, nil
}
