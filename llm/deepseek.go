package llm

import "context"

// deepSeekProvider implements Provider for the first-party DeepSeek API.
// DeepSeek uses the OpenAI-compatible API format. It has no embedding
// endpoint, so Embed calls fail at the HTTP layer; pair it with a
// separate embedding provider.
type deepSeekProvider struct {
	base openAICompatClient
}

// NewDeepSeek creates a provider for DeepSeek.
func NewDeepSeek(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	return &deepSeekProvider{base: newOpenAICompatClient(cfg)}
}

func (p *deepSeekProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}

func (p *deepSeekProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.base.embed(ctx, texts)
}
