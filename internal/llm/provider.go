package llm

import (
	"context"
	"encoding/base64"
)

// Provider is the interface all LLM providers must implement
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a completion request and returns the full response
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Ping checks if the provider is reachable
	Ping(ctx context.Context) error
}

// CompletionRequest represents a request to the LLM
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Message represents a chat message. Images ride along with user messages.
type Message struct {
	Role    string
	Content string
	Images  []Image
}

// Image is inline image data sent with a message
type Image struct {
	MimeType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image bytes
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI returns the image as a data: URI
func (i Image) DataURI() string {
	return "data:" + i.MimeType + ";base64," + i.Base64()
}

// CompletionResponse represents the full response
type CompletionResponse struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Usage tracks token usage
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// NewRequest creates a simple completion request
func NewRequest(model string, systemPrompt, userPrompt string, images ...Image) *CompletionRequest {
	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: userPrompt, Images: images})

	return &CompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// splitSystem separates system messages from the conversation
func splitSystem(msgs []Message) (string, []Message) {
	var system string
	var rest []Message
	for _, m := range msgs {
		if m.Role == "system" {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
