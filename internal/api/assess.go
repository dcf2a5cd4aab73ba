package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/polnav/polnav/internal/agent"
	"github.com/polnav/polnav/internal/plan"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Runner abstracts the assessment agent for the API layer.
type Runner interface {
	Run(ctx context.Context, req agent.RunRequest) (agent.RunResult, error)
}

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	Runner Runner
	Token  string // optional; empty disables bearer auth
}

// AssessRequest is the body of POST /v1/assess. Answers maps a question
// field (e.g. "소득") to the user's answer; the request is one-shot, so
// answers to a previous response's questions are sent up front.
type AssessRequest struct {
	Profile      string            `json:"profile"`
	DocumentPath string            `json:"document_path,omitempty"`
	Answers      map[string]string `json:"answers,omitempty"`
}

// AssessQuestion is one clarifying question the caller may answer in a
// follow-up request.
type AssessQuestion struct {
	Field    string `json:"field,omitempty"`
	Question string `json:"question"`
}

type AssessResponse struct {
	ID        string           `json:"id"`
	Output    string           `json:"output"`
	Profile   string           `json:"profile"`
	Questions []AssessQuestion `json:"questions"`
}

// NewHandler returns the polnav REST API handler.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Post("/v1/assess", handleAssess(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleAssess(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AssessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if strings.TrimSpace(req.Profile) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "profile is required")
			return
		}

		// HTTP is one-shot: answers arrive with the request instead of an
		// interactive session, so they back the agent's prompter. Questions
		// the map cannot answer are skipped, exactly like an empty stdin
		// answer.
		var prompter agent.Prompter
		if len(req.Answers) > 0 {
			prompter = answerPrompter{answers: req.Answers}
		}

		res, err := deps.Runner.Run(r.Context(), agent.RunRequest{
			Profile:      req.Profile,
			DocumentPath: req.DocumentPath,
			Prompter:     prompter,
		})
		if err != nil {
			if errors.Is(err, agent.ErrDocumentNotFound) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "assessment failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(assessResponse(res))
	}
}

// answerPrompter answers clarifying questions from a pre-supplied map, keyed
// by question field with the question text as fallback.
type answerPrompter struct {
	answers map[string]string
}

func (p answerPrompter) Ask(q plan.Question) (string, error) {
	if q.Field != "" {
		if answer, ok := p.answers[q.Field]; ok {
			return answer, nil
		}
	}
	return p.answers[q.Text()], nil
}

// assessResponse shapes a run result for the wire. Open questions are the
// final plan's questions re-filtered against the returned profile, so a
// question whose answer just landed in the profile is not re-surfaced.
func assessResponse(res agent.RunResult) AssessResponse {
	open := agent.FilterQuestions(res.Profile, res.Plan.Questions)
	questions := make([]AssessQuestion, 0, len(open))
	for _, q := range open {
		questions = append(questions, AssessQuestion{Field: q.Field, Question: q.Text()})
	}
	return AssessResponse{
		ID:        res.ID,
		Output:    res.Output,
		Profile:   res.Profile,
		Questions: questions,
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
