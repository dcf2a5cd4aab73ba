package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/polnav/polnav/internal/agent"
	"github.com/polnav/polnav/internal/plan"
)

// scriptedCompleter returns canned completions in order, repeating the last.
type scriptedCompleter struct {
	responses []string
	calls     int
}

func (c *scriptedCompleter) Complete(_ context.Context, _ string) (string, error) {
	i := c.calls
	c.calls++
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	return c.responses[i], nil
}

const testToken = "test-token-12345"

// stubRunner records the last request and returns a canned result.
type stubRunner struct {
	result agent.RunResult
	err    error

	last agent.RunRequest
}

func (s *stubRunner) Run(_ context.Context, req agent.RunRequest) (agent.RunResult, error) {
	s.last = req
	if s.err != nil {
		return agent.RunResult{}, s.err
	}
	return s.result, nil
}

func okResult() agent.RunResult {
	return agent.RunResult{
		ID:      "run-1",
		Output:  "[자격 판단]\n- 충족 가능성이 높습니다.",
		Profile: "나이: 29세",
		Plan: plan.Result{
			Questions: []plan.Question{{Field: "소득", Question: "월 소득이 어떻게 되나요?"}},
		},
	}
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestHealth(t *testing.T) {
	h := NewHandler(Deps{Runner: &stubRunner{result: okResult()}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestAssess_Success(t *testing.T) {
	runner := &stubRunner{result: okResult()}
	h := NewHandler(Deps{Runner: runner})

	body := `{"profile":"나이: 29세 / 거주지: 수도권"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", body, ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp AssessResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != "run-1" {
		t.Errorf("id = %q", resp.ID)
	}
	if !strings.Contains(resp.Output, "[자격 판단]") {
		t.Errorf("output = %q", resp.Output)
	}
	if len(resp.Questions) != 1 || resp.Questions[0].Field != "소득" {
		t.Errorf("questions = %+v", resp.Questions)
	}
	if runner.last.Prompter != nil {
		t.Error("HTTP assess must run without an interactive prompter")
	}
}

func TestAssess_AnswersBackThePrompter(t *testing.T) {
	runner := &stubRunner{result: okResult()}
	h := NewHandler(Deps{Runner: runner})

	body := `{"profile":"나이: 29세","answers":{"소득":"월 250만원 정도 법니다"}}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", body, ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	if runner.last.Profile != "나이: 29세" {
		t.Errorf("profile mutated before the run: %q", runner.last.Profile)
	}
	if runner.last.Prompter == nil {
		t.Fatal("answers did not become a prompter")
	}
	answer, err := runner.last.Prompter.Ask(plan.Question{Field: "소득", Question: "월 소득이 어떻게 되나요?"})
	if err != nil || answer != "월 250만원 정도 법니다" {
		t.Errorf("Ask = %q, %v", answer, err)
	}
}

func TestAnswerPrompter(t *testing.T) {
	p := answerPrompter{answers: map[string]string{
		"소득":           "월 250만원",
		"자녀가 있으신가요?": "없습니다",
	}}

	if got, _ := p.Ask(plan.Question{Field: "소득", Question: "월 소득이 어떻게 되나요?"}); got != "월 250만원" {
		t.Errorf("field lookup = %q", got)
	}
	if got, _ := p.Ask(plan.Question{Question: "자녀가 있으신가요?"}); got != "없습니다" {
		t.Errorf("text fallback = %q", got)
	}
	if got, _ := p.Ask(plan.Question{Field: "거주지", Question: "어디 사시나요?"}); got != "" {
		t.Errorf("unknown question = %q, want empty (skip)", got)
	}
}

// One-shot request with an answer: the agent asks the prompter, re-plans with
// the enriched profile, and the answered question is not sent back.
func TestAssess_AnsweredQuestionNotResurfaced(t *testing.T) {
	const incomePlan = `{
		"certain_conditions": ["만 19~34세"],
		"uncertain_conditions": ["중위소득 150% 이하"],
		"questions": [{"field": "소득", "question": "월 소득이 어떻게 되나요?"}],
		"action_candidates": ["월세 지원"]
	}`
	completer := &scriptedCompleter{responses: []string{incomePlan, incomePlan, "최종 답변"}}
	h := NewHandler(Deps{Runner: agent.New(agent.Deps{Completer: completer})})

	body := `{"profile":"나이: 29세","answers":{"소득":"월 250만원입니다"}}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", body, ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp AssessResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if completer.calls != 3 {
		t.Errorf("got %d completions, want 3 (plan, replan, final)", completer.calls)
	}
	if !strings.Contains(resp.Profile, "소득: 월 250만원입니다") {
		t.Errorf("answer not applied to profile: %q", resp.Profile)
	}
	if len(resp.Questions) != 0 {
		t.Errorf("answered question re-surfaced: %+v", resp.Questions)
	}
}

func TestAssess_BadRequests(t *testing.T) {
	h := NewHandler(Deps{Runner: &stubRunner{result: okResult()}})

	cases := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{"profile":`},
		{"missing profile", `{"document_path":"/tmp/p.pdf"}`},
		{"blank profile", `{"profile":"   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", tc.body, ""))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAssess_MissingDocumentIs400(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("%w: /no/such.pdf", agent.ErrDocumentNotFound)}
	h := NewHandler(Deps{Runner: runner})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", `{"profile":"나이: 29세","document_path":"/no/such.pdf"}`, ""))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body = %s", rr.Code, rr.Body.String())
	}
}

func TestAssess_RunnerErrorIs502(t *testing.T) {
	runner := &stubRunner{err: errors.New("plan completion: connection refused")}
	h := NewHandler(Deps{Runner: runner})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", `{"profile":"나이: 29세"}`, ""))

	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502; body = %s", rr.Code, rr.Body.String())
	}
}

func TestAssess_BearerAuth(t *testing.T) {
	h := NewHandler(Deps{Runner: &stubRunner{result: okResult()}, Token: testToken})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", `{"profile":"나이: 29세"}`, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", `{"profile":"나이: 29세"}`, "wrong"))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assess", `{"profile":"나이: 29세"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	// Health stays open.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("health behind auth: status = %d", rr.Code)
	}
}
