package config

// ProviderInfo describes a vision-capable provider offered in setup.
type ProviderInfo struct {
	ID           string
	Name         string
	Description  string
	NeedsAPIKey  bool
	SignupURL    string
	Models       []string
	DefaultModel string
}

var Providers = []ProviderInfo{
	{
		ID:           "gemini",
		Name:         "Google Gemini",
		Description:  "Fast vision, generous free tier",
		NeedsAPIKey:  true,
		SignupURL:    "https://aistudio.google.com/apikey",
		Models:       []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"},
		DefaultModel: "gemini-2.5-flash",
	},
	{
		ID:           "openai",
		Name:         "OpenAI",
		Description:  "GPT-4o vision",
		NeedsAPIKey:  true,
		SignupURL:    "https://platform.openai.com/api-keys",
		Models:       []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1"},
		DefaultModel: "gpt-4o-mini",
	},
	{
		ID:           "anthropic",
		Name:         "Anthropic",
		Description:  "Claude, great writing",
		NeedsAPIKey:  true,
		SignupURL:    "https://console.anthropic.com/",
		Models:       []string{"claude-sonnet-4-5", "claude-haiku-4-5"},
		DefaultModel: "claude-sonnet-4-5",
	},
	{
		ID:           "openrouter",
		Name:         "OpenRouter",
		Description:  "Access all models",
		NeedsAPIKey:  true,
		SignupURL:    "https://openrouter.ai/keys",
		Models:       []string{"google/gemini-2.5-flash", "openai/gpt-4o", "anthropic/claude-sonnet-4.5"},
		DefaultModel: "google/gemini-2.5-flash",
	},
	{
		ID:           "groq",
		Name:         "Groq",
		Description:  "Very fast, cheap",
		NeedsAPIKey:  true,
		SignupURL:    "https://console.groq.com/keys",
		Models:       []string{"meta-llama/llama-4-scout-17b-16e-instruct", "meta-llama/llama-4-maverick-17b-128e-instruct"},
		DefaultModel: "meta-llama/llama-4-scout-17b-16e-instruct",
	},
	{
		ID:           "ollama",
		Name:         "Ollama",
		Description:  "Local, free, private",
		NeedsAPIKey:  false,
		Models:       []string{"llama3.2-vision", "llava", "qwen2.5vl:7b"},
		DefaultModel: "llama3.2-vision",
	},
}

func GetProvider(id string) *ProviderInfo {
	for _, p := range Providers {
		if p.ID == id {
			return &p
		}
	}
	return nil
}
