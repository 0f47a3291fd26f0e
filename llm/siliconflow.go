package llm

import "context"

// siliconFlowProvider implements Provider for SiliconFlow's inference API.
// SiliconFlow uses the OpenAI-compatible API format and hosts the Chinese
// open-weight models (DeepSeek, Qwen, GLM) that work best on Chinese
// lecture decks.
//
// Supported embedding models:
//
//	BAAI/bge-m3             (1024 dim, multilingual)
//	BAAI/bge-large-zh-v1.5  (1024 dim, Chinese)
//
// API key: set via config, SILICONFLOW_API_KEY env var, or the server's
// DECKAGENT_CHAT_API_KEY env var.
type siliconFlowProvider struct {
	base openAICompatClient
}

// NewSiliconFlow creates a provider for SiliconFlow.
func NewSiliconFlow(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.siliconflow.cn"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-ai/DeepSeek-V3.2-Exp"
	}
	return &siliconFlowProvider{base: newOpenAICompatClient(cfg)}
}

func (p *siliconFlowProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}

func (p *siliconFlowProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.base.embed(ctx, texts)
}
