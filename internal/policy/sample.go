package policy

import (
	_ "embed"
	"strings"
)

// Embedded fallback policy document, used when a run is started without a
// document reference.
//
//go:embed sample_policy.txt
var sampleText string

// SampleText returns the embedded fallback policy document.
func SampleText() string {
	return strings.TrimSpace(sampleText)
}
