// Package plan defines the structured output of the Plan phase and a
// defensive parser for it. Model output is untrusted: it may wrap the JSON
// object in prose despite instructions, so parsing degrades instead of
// failing the run.
package plan

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoPlan is returned when no JSON object could be recovered from the text.
var ErrNoPlan = errors.New("no plan object found in model output")

// Question is one clarifying question from the Plan phase. The model may emit
// either a {"field","question"} object or a bare string; both decode into
// this shape, with Field empty for the freeform variant.
type Question struct {
	Field    string `json:"field,omitempty"`
	Question string `json:"question"`
}

// UnmarshalJSON accepts both the structured object form and a plain string.
func (q *Question) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*q = Question{Question: text}
		return nil
	}

	type alias Question
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*q = Question(a)
	return nil
}

// Text resolves the question text, falling back to the field name when the
// model supplied a field without a question.
func (q Question) Text() string {
	if q.Question != "" {
		return q.Question
	}
	return q.Field
}

// Result is the Plan phase output: condition buckets, clarifying questions,
// and candidate actions. It is recomputed wholesale on every Plan invocation,
// never merged.
type Result struct {
	CertainConditions   []string   `json:"certain_conditions"`
	UncertainConditions []string   `json:"uncertain_conditions"`
	Questions           []Question `json:"questions"`
	ActionCandidates    []string   `json:"action_candidates"`
}

// Empty returns the default Result substituted on parse failure.
func Empty() Result {
	return Result{
		CertainConditions:   []string{},
		UncertainConditions: []string{},
		Questions:           []Question{},
		ActionCandidates:    []string{},
	}
}

// Parse extracts a Result from raw model output. It first tries the full
// text as JSON; if that fails it retries the substring between the first "{"
// and the last "}". Non-object JSON (arrays, scalars, null) counts as
// failure.
func Parse(raw string) (Result, error) {
	if r, err := parseObject(raw); err == nil {
		return r, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return Result{}, ErrNoPlan
	}
	if r, err := parseObject(raw[start : end+1]); err == nil {
		return r, nil
	}
	return Result{}, ErrNoPlan
}

func parseObject(text string) (Result, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return Result{}, ErrNoPlan
	}
	var r Result
	if err := json.Unmarshal([]byte(trimmed), &r); err != nil {
		return Result{}, err
	}
	return r.normalized(), nil
}

// normalized replaces nil slices with empty ones so a re-marshaled Result
// carries [] rather than null for absent keys.
func (r Result) normalized() Result {
	if r.CertainConditions == nil {
		r.CertainConditions = []string{}
	}
	if r.UncertainConditions == nil {
		r.UncertainConditions = []string{}
	}
	if r.Questions == nil {
		r.Questions = []Question{}
	}
	if r.ActionCandidates == nil {
		r.ActionCandidates = []string{}
	}
	return r
}
