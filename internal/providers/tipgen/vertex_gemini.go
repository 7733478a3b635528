package tipgen

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

const tipPrompt = "Give me one short, actionable public speaking tip related to confidence, body language, or facial expressions. Keep it under 25 words."

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) DailyTip(ctx context.Context) (string, error) {
	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(tipPrompt))
	if err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				if s := strings.TrimSpace(string(t)); s != "" {
					return s, nil
				}
			}
		}
	}
	return "", errors.New("empty tip response")
}
