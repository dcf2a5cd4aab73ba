package agent

import "strings"

// requiredHeaders are the five sections the Final phase must produce, in
// canonical order.
var requiredHeaders = []string{
	"[자격 판단]",
	"[신청 가능 정책]",
	"[예상 혜택]",
	"[다음 단계]",
	"[확인 필요 사항]",
}

const missingSectionNote = "- 내용이 생성되지 않았습니다. 입력/프롬프트를 확인해주세요."

// EnsureHeaders guarantees the output contract: every required section
// header appears in the returned text. Existing content is never removed or
// reordered; missing sections are appended in canonical order with a
// placeholder line. Compliant input is returned unchanged apart from
// trimming, so enforcing twice equals enforcing once.
func EnsureHeaders(text string) string {
	trimmed := strings.TrimSpace(text)

	var missing []string
	for _, h := range requiredHeaders {
		if !strings.Contains(trimmed, h) {
			missing = append(missing, h)
		}
	}
	if len(missing) == 0 {
		return trimmed
	}

	var sb strings.Builder
	sb.WriteString(trimmed)
	for _, h := range missing {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(h)
		sb.WriteString("\n")
		sb.WriteString(missingSectionNote)
	}
	return sb.String()
}
