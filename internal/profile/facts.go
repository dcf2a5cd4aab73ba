package profile

import "strings"

// Tri is a three-valued boolean: a fact can be known true, known false, or
// simply absent from the profile.
type Tri int

const (
	TriUnknown Tri = iota
	TriFalse
	TriTrue
)

// Marital is the marital-status fact.
type Marital int

const (
	MaritalUnknown Marital = iota
	MaritalSingle
	MaritalMarried
)

// Keyword returns the profile token that encodes this status, or "" when
// the status is unknown.
func (m Marital) Keyword() string {
	switch m {
	case MaritalSingle:
		return "미혼"
	case MaritalMarried:
		return "기혼"
	}
	return ""
}

// Facts is a derived, ephemeral view of a profile string. It is recomputed
// from scratch on every filtering decision and never mutated in place.
type Facts struct {
	Marital      Marital
	HasChildren  Tri
	Location     string
	Metropolitan Tri
	Student      Tri
}

const (
	singleMarker   = "미혼"
	marriedMarker  = "기혼"
	childrenMarker = "자녀"
	metroMarker    = "수도권"
)

var noChildrenPhrases = []string{"자녀 없음", "자녀없음", "무자녀"}

var studentMarkers = []string{"대학생", "재학"}

// metroRegions is the subset of Regions counted as the metropolitan area.
var metroRegions = map[string]bool{
	"수도권": true,
	"서울":  true,
	"경기":  true,
	"인천":  true,
}

// ExtractFacts derives Facts from a profile string. Each rule is independent;
// a single profile may set several facts. Absent facts stay unknown.
func ExtractFacts(profile string) Facts {
	var f Facts

	if strings.Contains(profile, singleMarker) {
		f.Marital = MaritalSingle
		if !strings.Contains(profile, childrenMarker) {
			f.HasChildren = TriFalse
		}
	} else if strings.Contains(profile, marriedMarker) {
		f.Marital = MaritalMarried
	}

	if containsAny(profile, noChildrenPhrases) {
		f.HasChildren = TriFalse
	} else if strings.Contains(profile, childrenMarker) {
		f.HasChildren = TriTrue
	}

	for _, region := range Regions {
		if strings.Contains(profile, region) {
			f.Location = region
			break
		}
	}
	if f.Location != "" {
		if metroRegions[f.Location] {
			f.Metropolitan = TriTrue
		} else {
			f.Metropolitan = TriFalse
		}
	}

	if containsAny(profile, studentMarkers) {
		f.Student = TriTrue
	}

	return f
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
