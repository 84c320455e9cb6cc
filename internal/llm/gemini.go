package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateParts(ctx, []Part{{Text: prompt}})
}

// GenerateParts sends mixed text and image content in one request. URL
// parts are handed to the API by reference; base64 parts are decoded and
// sent inline.
func (c *GeminiClient) GenerateParts(ctx context.Context, parts []Part) (string, error) {
	model := c.client.GenerativeModel(c.model)

	content := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.ImageB64 != "":
			raw, err := p.imageBytes()
			if err != nil {
				return "", err
			}
			content = append(content, genai.ImageData(p.imageFormat(), raw))
		case p.ImageURL != "":
			content = append(content, genai.FileData{MIMEType: p.mimeType(), URI: p.ImageURL})
		default:
			content = append(content, genai.Text(p.Text))
		}
	}

	resp, err := model.GenerateContent(ctx, content...)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
			return string(txt), nil
		}
	}

	return "", fmt.Errorf("no response candidates or content")
}
