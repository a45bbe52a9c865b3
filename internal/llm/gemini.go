package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiProvider uses the Gemini API through the genai SDK
type GeminiProvider struct {
	apiKey string
	model  string

	once   sync.Once
	client *genai.Client
	err    error
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
	}
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

// genai.NewClient takes a context, so the client is built on first use
func (g *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.client, g.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.client, g.err
}

func (g *GeminiProvider) Ping(ctx context.Context) error {
	client, err := g.getClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if _, err := client.Models.Get(ctx, g.model, nil); err != nil {
		return fmt.Errorf("cannot reach Gemini model %s: %w", g.model, err)
	}
	return nil
}

func (g *GeminiProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := req.Model
	if model == "" {
		model = g.model
	}

	system, rest := splitSystem(req.Messages)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		}
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	result, err := client.Models.GenerateContent(ctx, model, toGeminiContents(rest), config)
	if err != nil {
		return nil, fmt.Errorf("Gemini request failed: %w", err)
	}

	var (
		text   strings.Builder
		finish string
	)
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
		}
		finish = string(candidate.FinishReason)
		break
	}

	resp := &CompletionResponse{
		Content:      text.String(),
		Model:        model,
		FinishReason: finish,
	}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

func toGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		parts := make([]*genai.Part, 0, len(m.Images)+1)
		for _, img := range m.Images {
			parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
		}
		parts = append(parts, genai.NewPartFromText(m.Content))

		role := string(genai.RoleUser)
		if m.Role == "assistant" {
			role = string(genai.RoleModel)
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}
