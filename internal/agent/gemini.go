package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client using Google's Gemini API.
type GeminiClient struct {
	client          *genai.Client
	modelID         string
	instruction     string
	searchGrounding bool
}

type GeminiOption func(*GeminiClient)

// WithInstruction sets the system instruction applied to every completion.
func WithInstruction(instruction string) GeminiOption {
	return func(c *GeminiClient) {
		c.instruction = instruction
	}
}

// WithSearchGrounding toggles the Google Search retrieval tool.
func WithSearchGrounding(enabled bool) GeminiOption {
	return func(c *GeminiClient) {
		c.searchGrounding = enabled
	}
}

// NewGeminiClient creates a Gemini-backed agent client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string, opts ...GeminiOption) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("agent: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("agent: failed to create gemini client: %w", err)
	}

	c := &GeminiClient{
		client:  client,
		modelID: modelID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model identifier.
func (c *GeminiClient) Model() string {
	return c.modelID
}

// Complete sends the transcript plus the new message to Gemini and returns
// the generated reply.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Response{}, errors.New("agent: message is required")
	}

	model := c.client.GenerativeModel(c.modelID)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	if strings.TrimSpace(c.instruction) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(c.instruction))
	}
	if c.searchGrounding {
		model.Tools = []*genai.Tool{{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}}}
	}

	cs := model.StartChat()
	for _, turn := range req.History {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		role := turn.Role
		if role != RoleModel {
			role = RoleUser
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return Response{}, fmt.Errorf("agent: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Response{}, ErrNoResponse
	}

	var result Response
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		result.Text = strings.TrimSpace(b.String())
	}
	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

// Close releases resources held by the underlying client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
