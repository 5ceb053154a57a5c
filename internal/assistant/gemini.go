package assistant

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-assistant/internal/chat"
)

// DefaultModelName is the Gemini model used for chat turns.
const DefaultModelName = "gemini-2.5-flash"

// Generator streams a model answer for one chat turn. onDelta is invoked
// for each text chunk as it arrives; the full accumulated text is returned
// when the stream ends. Implemented by GeminiGenerator; tests substitute a
// scripted fake.
type Generator interface {
	Generate(ctx context.Context, system string, history []*chat.Message, message string, onDelta func(string)) (string, error)
}

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator using Application Default
// Credentials. model falls back to DefaultModelName when empty.
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate implements Generator. History is replayed as alternating
// user/model turns before the new message.
func (g *GeminiGenerator) Generate(ctx context.Context, system string, history []*chat.Message, message string, onDelta func(string)) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == chat.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	var full string
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
		if err != nil {
			return "", fmt.Errorf("Generate: streaming content: %w", err)
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		full += chunk
		if onDelta != nil {
			onDelta(chunk)
		}
	}

	if full == "" {
		return "", fmt.Errorf("Generate: empty response from model")
	}
	return full, nil
}
