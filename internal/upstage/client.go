// Package upstage implements the Upstage API collaborators: Solar chat
// completion, document digitization, and information extraction. A canned
// in-memory variant lives in mock.go; orchestrator code holds only the
// interfaces declared at its own boundary and never knows which variant it
// was composed with.
package upstage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	documentParsePath = "/document-digitization"
	infoExtractPath   = "/information-extraction"

	chatTimeout     = 120 * time.Second
	documentTimeout = 120 * time.Second

	parseModel   = "document-parse-nightly"
	extractModel = "information-extract"
)

// Client talks to the Upstage API.
type Client struct {
	apiKey     string
	baseURL    string
	chatModel  string
	httpClient *http.Client
}

// NewClient creates a Client. baseURL is normalized to end in /v1, which the
// Upstage API requires.
func NewClient(apiKey, baseURL, chatModel string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    ensureV1(baseURL),
		chatModel:  chatModel,
		httpClient: &http.Client{},
	}
}

func ensureV1(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return trimmed
	}
	return trimmed + "/v1"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Stream         bool          `json:"stream"`
	ResponseFormat any           `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a single-turn prompt to the Solar chat model and returns the
// raw response text.
func (c *Client) Complete(ctx context.Context, promptText string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.chatModel,
		Messages:    []chatMessage{{Role: "user", Content: promptText}},
		Temperature: 0.7,
		MaxTokens:   4096,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	raw, err := c.postJSON(ctx, c.baseURL+"/chat/completions", body, chatTimeout)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseDocument uploads the document at path to the digitization endpoint and
// returns the parsed payload. The payload shape is passed through untouched;
// normalization is the caller's concern.
func (c *Client) ParseDocument(ctx context.Context, path string) (map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("creating multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	fields := map[string]string{
		"model":             parseModel,
		"mode":              "auto",
		"ocr":               "auto",
		"chart_recognition": "true",
		"coordinates":       "true",
		"output_formats":    `["html"]`,
		"base64_encoding":   `["figure"]`,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("writing multipart field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, documentTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+documentParsePath, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating parse request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document parse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding parse response: %w", err)
	}
	return payload, nil
}

// ExtractInformation sends the document as a base64 data URL to the
// information-extraction endpoint with a JSON schema describing the desired
// fields. Callers treat any error here as "no extraction available".
func (c *Client) ExtractInformation(ctx context.Context, path string, schema map[string]any) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}

	mimeType := "image/png"
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		mimeType = "application/pdf"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(raw))

	body, err := json.Marshal(chatRequest{
		Model: extractModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []map[string]any{
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			},
		}},
		ResponseFormat: map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "policy_schema",
				"schema": schema,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling extract request: %w", err)
	}

	respBody, err := c.postJSON(ctx, c.baseURL+infoExtractPath+"/chat/completions", body, documentTimeout)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding extract response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extract response has no choices")
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &extracted); err != nil {
		return nil, fmt.Errorf("decoding extracted fields: %w", err)
	}
	return extracted, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body []byte, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	return io.ReadAll(resp.Body)
}

// parseError maps Upstage error statuses to actionable messages.
func parseError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("upstage API error (%d): check your API key and billing/credit status", resp.StatusCode)
	case http.StatusInternalServerError:
		return fmt.Errorf("upstage API error (%d): transient server error, retry shortly", resp.StatusCode)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("upstage API error (%d)", resp.StatusCode)
	}
	return fmt.Errorf("upstage API error (%d): %s", resp.StatusCode, msg)
}
