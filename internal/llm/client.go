package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Client is the single capability the rest of the system needs from a
// language model: prompt in, text out.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Part is one piece of multimodal prompt content, shaped like the wire
// format the /ai routes accept. Exactly one of Text, ImageURL or ImageB64
// should be set; MIME describes image parts and defaults to PNG.
type Part struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	ImageB64 string `json:"image_b64,omitempty"`
	MIME     string `json:"mime_type,omitempty"`
}

// IsImage reports whether the part carries image content.
func (p Part) IsImage() bool {
	return p.ImageURL != "" || p.ImageB64 != ""
}

func (p Part) mimeType() string {
	if p.MIME != "" {
		return p.MIME
	}
	return "image/png"
}

// imageFormat is the bare subtype ("png", "jpeg") the Gemini SDK expects
// for inline image data.
func (p Part) imageFormat() string {
	return strings.TrimPrefix(p.mimeType(), "image/")
}

func (p Part) imageBytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(p.ImageB64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	return raw, nil
}

// VisionClient is the optional multimodal capability. Text-only providers
// implement Client alone; callers must check for this interface before
// sending image parts.
type VisionClient interface {
	Client
	GenerateParts(ctx context.Context, parts []Part) (string, error)
}
