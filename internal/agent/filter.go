package agent

import (
	"strings"

	"github.com/polnav/polnav/internal/plan"
	"github.com/polnav/polnav/internal/profile"
)

// Question-text keyword sets used to drop questions that contradict or
// repeat known profile facts.
var (
	nonMetroMarkers = []string{"지방", "비수도권", "농촌"}
	studentMarkers  = []string{"대학생", "재학"}
)

const (
	childrenMarker = "자녀"
	metroMarker    = "수도권"
)

// FilterQuestions removes clarifying questions that are already answered by
// the profile or contradict facts derived from it. Relative order is
// preserved and no question is ever added. The API layer applies it again to
// the final plan so callers never see a question the profile already settles.
func FilterQuestions(profileText string, questions []plan.Question) []plan.Question {
	facts := profile.ExtractFacts(profileText)

	var kept []plan.Question
	for _, q := range questions {
		text := q.Text()
		if text == "" {
			continue
		}
		if q.Field != "" && strings.Contains(profileText, q.Field+":") {
			continue
		}
		if facts.HasChildren == profile.TriFalse && strings.Contains(text, childrenMarker) {
			continue
		}
		if kw := facts.Marital.Keyword(); kw != "" && strings.Contains(text, kw) {
			continue
		}
		if facts.Metropolitan == profile.TriTrue &&
			(containsAny(text, nonMetroMarkers) || strings.Contains(text, metroMarker)) {
			continue
		}
		if facts.Student == profile.TriTrue && containsAny(text, studentMarkers) {
			continue
		}
		kept = append(kept, q)
	}
	return kept
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
