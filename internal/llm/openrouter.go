package llm

type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(apiKey, model string) *OpenRouterProvider {
	if model == "" {
		model = "google/gemini-2.5-flash"
	}
	return &OpenRouterProvider{
		OpenAIProvider: newOpenAICompatible("openrouter", apiKey, model, "https://openrouter.ai/api/v1"),
	}
}

type GroqProvider struct {
	*OpenAIProvider
}

func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = "meta-llama/llama-4-scout-17b-16e-instruct"
	}
	return &GroqProvider{
		OpenAIProvider: newOpenAICompatible("groq", apiKey, model, "https://api.groq.com/openai/v1"),
	}
}
