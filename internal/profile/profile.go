// Package profile maintains the evolving free-text user profile and derives
// structured facts from it. A profile is a single string of "field: value"
// segments joined by "/ "; a field, once present, is never written again.
package profile

import (
	"regexp"
	"strings"
)

// Separator joins profile segments.
const Separator = "/ "

// AppendField returns the profile with "field: value" appended. If the field
// name already appears in the profile the input is returned unchanged
// (trimmed). Appending is the only mutation a profile ever sees.
func AppendField(profile, field, value string) string {
	updated := strings.TrimSpace(profile)
	if strings.Contains(updated, field+":") {
		return updated
	}
	if updated == "" {
		return field + ": " + value
	}
	return updated + Separator + field + ": " + value
}

// updateRule extracts one field candidate from a free-text message.
// Rules run in fixed order and never short-circuit each other.
type updateRule struct {
	field   string
	extract func(message string) (value string, ok bool)
}

var (
	agePattern    = regexp.MustCompile(`(\d{2})\s*(세|살)`)
	incomePattern = regexp.MustCompile(`월\s*(\d{2,4})\s*(만원|만)?`)
)

// Regions is the fixed residence lookup order. The metro-collective term
// comes first: disambiguation is by position, not specificity.
var Regions = []string{"수도권", "서울", "경기", "인천", "부산", "대구"}

// Occupations is the fixed occupation keyword order.
var Occupations = []string{"중소기업", "대학생", "구직", "프리랜서", "직장인"}

var updateRules = []updateRule{
	{field: "나이", extract: func(msg string) (string, bool) {
		m := agePattern.FindStringSubmatch(msg)
		if m == nil {
			return "", false
		}
		return m[1] + "세", true
	}},
	{field: "소득", extract: func(msg string) (string, bool) {
		m := incomePattern.FindStringSubmatch(msg)
		if m == nil {
			return "", false
		}
		return "월" + m[1] + "만원", true
	}},
	{field: "혼인", extract: func(msg string) (string, bool) {
		// Single is checked before married: "미혼" wins when both appear.
		if strings.Contains(msg, "미혼") {
			return "미혼", true
		}
		if strings.Contains(msg, "기혼") {
			return "기혼", true
		}
		return "", false
	}},
	{field: "거주지", extract: firstContained(Regions)},
	{field: "직업", extract: firstContained(Occupations)},
}

func firstContained(keywords []string) func(string) (string, bool) {
	return func(msg string) (string, bool) {
		for _, kw := range keywords {
			if strings.Contains(msg, kw) {
				return kw, true
			}
		}
		return "", false
	}
}

// UpdateFromMessage runs the extraction rule battery against a free-text user
// message and appends every successful match to the profile under the
// append-once rule. The input profile is not modified.
func UpdateFromMessage(profile, message string) string {
	updated := strings.TrimSpace(profile)
	for _, rule := range updateRules {
		if value, ok := rule.extract(message); ok {
			updated = AppendField(updated, rule.field, value)
		}
	}
	return updated
}
