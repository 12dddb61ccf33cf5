package ai

// Approximate context windows for common models, used to budget how much
// conversation history fits into a prompt. Unknown models fall back to a
// conservative default.

// ModelInfo holds the metadata the CLI needs per model.
type ModelInfo struct {
	Name          string
	ContextTokens int
}

const defaultContextTokens = 32000

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini":                {Name: "openai/gpt-4o-mini", ContextTokens: 128000},
	"openai/gpt-4o":                     {Name: "openai/gpt-4o", ContextTokens: 128000},
	"openai/gpt-4.1-mini":               {Name: "openai/gpt-4.1-mini", ContextTokens: 128000},
	"gpt-4o-mini":                       {Name: "gpt-4o-mini", ContextTokens: 128000},
	"gpt-4o":                            {Name: "gpt-4o", ContextTokens: 128000},
	"anthropic/claude-3.5-sonnet":       {Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000},
	"anthropic/claude-3-haiku":          {Name: "anthropic/claude-3-haiku", ContextTokens: 200000},
	"google/gemini-1.5-flash":           {Name: "google/gemini-1.5-flash", ContextTokens: 1000000},
	"google/gemini-1.5-pro":             {Name: "google/gemini-1.5-pro", ContextTokens: 1000000},
	"meta-llama/llama-3.1-8b-instruct":  {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 131072},
	"meta-llama/llama-3.1-70b-instruct": {Name: "meta-llama/llama-3.1-70b-instruct", ContextTokens: 131072},
	"deepseek/deepseek-r1:free":         {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
}

// ContextWindow returns the approximate context window for a model name.
func ContextWindow(model string) int {
	if info, ok := models[model]; ok {
		return info.ContextTokens
	}
	return defaultContextTokens
}
