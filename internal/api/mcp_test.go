package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/polnav/polnav/internal/plan"
)

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func TestMCPAssessPolicy_Success(t *testing.T) {
	runner := &stubRunner{result: okResult()}
	handler := mcpAssessPolicy(MCPDeps{Runner: runner})

	result, err := handler(context.Background(), makeCallToolRequest("assess_policy", map[string]interface{}{
		"profile": "나이: 29세 / 거주지: 수도권",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var resp AssessResponse
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if resp.ID != "run-1" || !strings.Contains(resp.Output, "[자격 판단]") {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMCPAssessPolicy_AnswersApplied(t *testing.T) {
	runner := &stubRunner{result: okResult()}
	handler := mcpAssessPolicy(MCPDeps{Runner: runner})

	result, err := handler(context.Background(), makeCallToolRequest("assess_policy", map[string]interface{}{
		"profile": "나이: 29세",
		"answers": `{"소득": "월 250만원"}`,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	if runner.last.Prompter == nil {
		t.Fatal("answers did not become a prompter")
	}
	answer, err := runner.last.Prompter.Ask(plan.Question{Field: "소득", Question: "월 소득이 어떻게 되나요?"})
	if err != nil || answer != "월 250만원" {
		t.Errorf("Ask = %q, %v", answer, err)
	}
}

func TestMCPAssessPolicy_Errors(t *testing.T) {
	t.Run("missing profile", func(t *testing.T) {
		handler := mcpAssessPolicy(MCPDeps{Runner: &stubRunner{result: okResult()}})
		result, err := handler(context.Background(), makeCallToolRequest("assess_policy", map[string]interface{}{}))
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error for missing profile")
		}
	})

	t.Run("invalid answers JSON", func(t *testing.T) {
		handler := mcpAssessPolicy(MCPDeps{Runner: &stubRunner{result: okResult()}})
		result, err := handler(context.Background(), makeCallToolRequest("assess_policy", map[string]interface{}{
			"profile": "나이: 29세",
			"answers": `{broken`,
		}))
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error for invalid answers JSON")
		}
	})

	t.Run("runner failure", func(t *testing.T) {
		handler := mcpAssessPolicy(MCPDeps{Runner: &stubRunner{err: errors.New("connection refused")}})
		result, err := handler(context.Background(), makeCallToolRequest("assess_policy", map[string]interface{}{
			"profile": "나이: 29세",
		}))
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error for runner failure")
		}
	})
}

func TestMCPResourceSamplePolicy(t *testing.T) {
	handler := mcpResourceSamplePolicy()

	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "policy://sample"},
	})
	if err != nil {
		t.Fatalf("resource handler error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if !strings.Contains(text.Text, "청년 월세 한시 특별지원") {
		t.Error("sample policy text missing")
	}
}
