package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/polnav/polnav/internal/agent"
	"github.com/polnav/polnav/internal/policy"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Runner Runner
}

// NewMCPServer creates an MCP server exposing the assessment agent as a
// tool, so an MCP client (e.g. an LLM host) can run eligibility checks on
// the user's behalf.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"polnav",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("polnav — 정부 정책 자격 판단 에이전트. Assesses Korean government policy eligibility from a user profile and a policy document."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("assess_policy",
			mcp.WithDescription("Assess policy eligibility for a user profile against a policy document (or the built-in sample policy). Returns the structured recommendation and any clarifying questions."),
			mcp.WithString("profile", mcp.Description("User profile, e.g. \"나이: 29세 / 거주지: 수도권\""), mcp.Required()),
			mcp.WithString("document_path", mcp.Description("Path to a policy PDF on the server; omit to use the built-in sample")),
			mcp.WithString("answers", mcp.Description("JSON object mapping a question field to the user's answer, e.g. {\"소득\": \"월 250만원\"}")),
		),
		mcpAssessPolicy(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"policy://sample",
			"Sample Policy Document",
			mcp.WithResourceDescription("The built-in sample policy text used when no document is given"),
			mcp.WithMIMEType("text/plain"),
		),
		mcpResourceSamplePolicy(),
	)

	return s
}

func mcpAssessPolicy(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prof, err := req.RequireString("profile")
		if err != nil || strings.TrimSpace(prof) == "" {
			return mcpError("profile is required"), nil
		}

		docPath := req.GetString("document_path", "")

		var prompter agent.Prompter
		if answersJSON := req.GetString("answers", ""); answersJSON != "" {
			var answers map[string]string
			if err := json.Unmarshal([]byte(answersJSON), &answers); err != nil {
				return mcpError(fmt.Sprintf("invalid answers JSON: %v", err)), nil
			}
			if len(answers) > 0 {
				prompter = answerPrompter{answers: answers}
			}
		}

		res, err := deps.Runner.Run(ctx, agent.RunRequest{
			Profile:      prof,
			DocumentPath: docPath,
			Prompter:     prompter,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("assessment failed: %v", err)), nil
		}

		b, err := json.Marshal(assessResponse(res))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpResourceSamplePolicy() server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     policy.SampleText(),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
