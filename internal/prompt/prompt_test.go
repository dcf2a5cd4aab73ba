package prompt

import (
	"strings"
	"testing"
)

func TestBuildPlan(t *testing.T) {
	p := BuildPlan("나이: 29세", "정책 본문", "")

	for _, want := range []string{"나이: 29세", "정책 본문", "certain_conditions", "JSON만 출력"} {
		if !strings.Contains(p, want) {
			t.Errorf("plan prompt missing %q", want)
		}
	}
	if strings.Contains(p, "정보 추출 요약(참고용):") {
		t.Error("plan prompt contains extraction block despite empty input")
	}
	if strings.Contains(p, "\n\n\n") {
		t.Error("plan prompt contains a run of blank lines")
	}
}

func TestBuildPlan_WithExtraction(t *testing.T) {
	p := BuildPlan("프로필", "본문", `{"age_limit":"만 19~34세"}`)
	if !strings.Contains(p, "정보 추출 요약(참고용):\n{\"age_limit\":\"만 19~34세\"}") {
		t.Error("plan prompt missing labelled extraction block")
	}
}

func TestBuildFinal(t *testing.T) {
	p := BuildFinal("프로필", "본문", `{"questions":[]}`, `{"소득":"월250"}`, "")

	for _, want := range []string{
		"에이전트 계획 결과:\n{\"questions\":[]}",
		"이미 제공된 답변:\n{\"소득\":\"월250\"}",
		"[자격 판단]",
		"[신청 가능 정책]",
		"[예상 혜택]",
		"[다음 단계]",
		"[확인 필요 사항]",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("final prompt missing %q", want)
		}
	}
}

func TestBuildFinal_OmitsEmptyBlocks(t *testing.T) {
	p := BuildFinal("프로필", "본문", "", "", "")
	for _, absent := range []string{"에이전트 계획 결과:", "이미 제공된 답변:", "정보 추출 요약(참고용):"} {
		if strings.Contains(p, absent) {
			t.Errorf("final prompt contains %q for empty input", absent)
		}
	}
}
