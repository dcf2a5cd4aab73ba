// Package agent runs one eligibility-assessment conversation: document
// normalization, the Plan phase, the optional clarifying-question loop, the
// re-plan, the Final phase, and output-contract enforcement. All state is
// owned by a single Run call; concurrent runs are independent.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/polnav/polnav/internal/plan"
	"github.com/polnav/polnav/internal/policy"
	"github.com/polnav/polnav/internal/profile"
	"github.com/polnav/polnav/internal/prompt"
)

// Completer is the chat completion collaborator. A failed completion is
// fatal for the run.
type Completer interface {
	Complete(ctx context.Context, promptText string) (string, error)
}

// DocumentParser is the document digitization collaborator.
type DocumentParser interface {
	ParseDocument(ctx context.Context, path string) (map[string]any, error)
}

// InfoExtractor is the optional structured-extraction collaborator. Its
// failures degrade to "no extraction available".
type InfoExtractor interface {
	ExtractInformation(ctx context.Context, path string, schema map[string]any) (map[string]any, error)
}

// ErrDocumentNotFound marks a run aborted because the document path does not
// exist. Callers branch on it with errors.Is.
var ErrDocumentNotFound = errors.New("policy document not found")

// Prompter obtains a user answer for one clarifying question. An empty
// answer means "skip".
type Prompter interface {
	Ask(q plan.Question) (string, error)
}

// Deps holds the agent's collaborators. Extractor may be nil.
type Deps struct {
	Completer Completer
	Parser    DocumentParser
	Extractor InfoExtractor
}

// Agent orchestrates assessment runs. It is stateless between runs.
type Agent struct {
	completer Completer
	parser    DocumentParser
	extractor InfoExtractor
	logger    *slog.Logger
}

// New creates an Agent from its collaborators.
func New(deps Deps) *Agent {
	return &Agent{
		completer: deps.Completer,
		parser:    deps.Parser,
		extractor: deps.Extractor,
		logger:    slog.Default(),
	}
}

// RunRequest describes one assessment run. Prompter may be nil, which
// disables the clarifying-question loop.
type RunRequest struct {
	Profile      string
	DocumentPath string
	Prompter     Prompter
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	ID             string
	Output         string
	Profile        string
	Plan           plan.Result
	AnsweredFields map[string]string
}

// Run executes the full assessment loop and returns the contract-enforced
// recommendation text. A missing document, a document-parse failure, or a
// completion failure aborts the run with no partial output.
func (a *Agent) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	runID := uuid.New().String()
	logger := a.logger.With("run_id", runID)
	prof := strings.TrimSpace(req.Profile)

	var policyText, ieExtract string
	if req.DocumentPath != "" {
		if _, err := os.Stat(req.DocumentPath); err != nil {
			return RunResult{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, req.DocumentPath)
		}
		payload, err := a.parser.ParseDocument(ctx, req.DocumentPath)
		if err != nil {
			return RunResult{}, fmt.Errorf("parsing policy document: %w", err)
		}
		policyText = policy.Normalize(payload)
		ieExtract = a.extractInfo(ctx, req.DocumentPath, logger)
	} else {
		logger.Info("no document given, using embedded sample policy")
		policyText = policy.SampleText()
	}

	planRes, err := a.planPhase(ctx, prof, policyText, ieExtract, logger)
	if err != nil {
		return RunResult{}, err
	}

	answered := map[string]string{}
	if req.Prompter != nil {
		questions := FilterQuestions(prof, planRes.Questions)
		logger.Info("plan questions filtered",
			"total", len(planRes.Questions), "kept", len(questions))
		if len(questions) > 0 {
			for _, q := range questions {
				answer, err := req.Prompter.Ask(q)
				if err != nil {
					return RunResult{}, fmt.Errorf("collecting answer: %w", err)
				}
				answer = strings.TrimSpace(answer)
				if answer == "" {
					continue
				}
				if q.Field != "" {
					prof = profile.AppendField(prof, q.Field, answer)
					answered[q.Field] = answer
				}
				prof = profile.UpdateFromMessage(prof, answer)
			}

			// Re-plan with the enriched profile. The first plan is
			// discarded, not merged.
			planRes, err = a.planPhase(ctx, prof, policyText, ieExtract, logger)
			if err != nil {
				return RunResult{}, err
			}
		}
	}

	planJSON, err := json.Marshal(planRes)
	if err != nil {
		return RunResult{}, fmt.Errorf("marshaling plan: %w", err)
	}
	answeredJSON := ""
	if len(answered) > 0 {
		b, err := json.Marshal(answered)
		if err != nil {
			return RunResult{}, fmt.Errorf("marshaling answers: %w", err)
		}
		answeredJSON = string(b)
	}

	finalPrompt := prompt.BuildFinal(prof, policyText, string(planJSON), answeredJSON, ieExtract)
	output, err := a.completer.Complete(ctx, finalPrompt)
	if err != nil {
		return RunResult{}, fmt.Errorf("final completion: %w", err)
	}

	return RunResult{
		ID:             runID,
		Output:         EnsureHeaders(output),
		Profile:        prof,
		Plan:           planRes,
		AnsweredFields: answered,
	}, nil
}

// planPhase runs one Plan completion and parses it. Malformed plan output is
// recovered locally by substituting the empty plan.
func (a *Agent) planPhase(ctx context.Context, prof, policyText, ieExtract string, logger *slog.Logger) (plan.Result, error) {
	output, err := a.completer.Complete(ctx, prompt.BuildPlan(prof, policyText, ieExtract))
	if err != nil {
		return plan.Result{}, fmt.Errorf("plan completion: %w", err)
	}

	res, err := plan.Parse(output)
	if err != nil {
		logger.Warn("plan output was not a JSON object, continuing with empty plan", "error", err)
		return plan.Empty(), nil
	}
	return res, nil
}

// extractInfo calls the optional structured-extraction collaborator.
// Failures are swallowed here: the run continues without the extracted-info
// block.
func (a *Agent) extractInfo(ctx context.Context, path string, logger *slog.Logger) string {
	if a.extractor == nil {
		return ""
	}

	fields, err := a.extractor.ExtractInformation(ctx, path, eligibilitySchema())
	if err != nil {
		logger.Warn("information extraction failed, continuing without it", "error", err)
		return ""
	}
	if len(fields) == 0 {
		return ""
	}
	b, err := json.Marshal(fields)
	if err != nil {
		logger.Warn("could not serialize extracted fields", "error", err)
		return ""
	}
	return string(b)
}

// eligibilitySchema is the fixed schema requested from the extraction
// collaborator.
func eligibilitySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"policy_name":  map[string]any{"type": "string", "description": "정책명"},
			"age_limit":    map[string]any{"type": "string", "description": "연령 요건"},
			"income_limit": map[string]any{"type": "string", "description": "소득 요건"},
			"region_limit": map[string]any{"type": "string", "description": "거주지 요건"},
			"benefit":      map[string]any{"type": "string", "description": "지원 내용"},
		},
	}
}
