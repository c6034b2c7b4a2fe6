package narrative

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

const systemPrompt = `You are a crime analysis assistant reviewing automated video surveillance results.
You are given a digest of an automated analysis: per-dimension assessments
(weapon threat, violence, theft, suspicious behavior), an overall severity,
and evidence counts. Write a clear, factual 3-5 sentence description of what
the analysis indicates. If the severity is high or critical, emphasize
contacting emergency services and not intervening directly. Never invent
details that are not in the digest, and end with a one-line disclaimer that
this is an automated assessment.`

type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, digest string) (string, error) {
	systemInstruction := genai.NewContentFromText(systemPrompt, genai.RoleModel)
	userContent := genai.NewContentFromText(digest, genai.RoleUser)

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(0.4)),
		TopP:              genai.Ptr(float32(0.8)),
		TopK:              genai.Ptr(float32(40)),
		MaxOutputTokens:   int32(300),
	}

	resp, err := g.client.Models.GenerateContent(ctx, geminiModel, []*genai.Content{userContent}, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.ReplaceAll(resp.Text(), "*", "")
	return strings.TrimSpace(text), nil
}
