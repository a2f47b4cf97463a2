package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GoogleClient talks to the Gemini generateContent endpoint.
type GoogleClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// NewGoogleClient creates a new Google Gemini client.
func NewGoogleClient(apiKey, model string) *GoogleClient {
	return &GoogleClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		baseURL:    "https://generativelanguage.googleapis.com/v1beta",
	}
}

type googleRequest struct {
	Contents          []googleContent        `json:"contents"`
	SystemInstruction *googleContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  googleGenerationConfig `json:"generationConfig"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type googleResponse struct {
	Candidates []struct {
		Content      googleContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Complete sends a request to Gemini. System messages become the system
// instruction and "assistant" turns are sent with Gemini's "model" role.
func (c *GoogleClient) Complete(ctx context.Context, messages []Message) (*Response, error) {
	var req googleRequest
	var system []string
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			req.Contents = append(req.Contents, googleContent{Role: "model", Parts: []googlePart{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, googleContent{Role: "user", Parts: []googlePart{{Text: msg.Content}}})
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &googleContent{Parts: []googlePart{{Text: strings.Join(system, "\n\n")}}}
	}
	req.GenerationConfig = googleGenerationConfig{Temperature: 0.2, MaxOutputTokens: 2048}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	var resp googleResponse
	if err := postJSON(ctx, c.httpClient, endpoint, nil, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 {
		return nil, errors.New("no response candidates")
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	return &Response{
		Provider:     ProviderGoogle,
		Content:      content.String(),
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		Model:        c.model,
	}, nil
}

func (c *GoogleClient) Provider() Provider { return ProviderGoogle }

func (c *GoogleClient) Model() string { return c.model }
