package llm

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"

	"github.com/soochol/hydrahunt/internal/config"
)

const defaultGeminiModel = "gemini-2.0-flash"

var _ adkmodel.LLM = (*GeminiLLM)(nil)

// GeminiLLM uses the google.golang.org/genai Go SDK directly for text
// generation. The client is created on first use; a failed creation is not
// cached, so a later call tries again.
type GeminiLLM struct {
	apiKey string
	name   string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiLLM creates a native Gemini text adapter for the given provider name.
func NewGeminiLLM(providerName, apiKey string) *GeminiLLM {
	return &GeminiLLM{
		name:   providerName,
		apiKey: apiKey,
	}
}

func (g *GeminiLLM) Name() string { return g.name }

func (g *GeminiLLM) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.client = client
	return client, nil
}

func (g *GeminiLLM) GenerateContent(ctx context.Context, req *adkmodel.LLMRequest, stream bool) iter.Seq2[*adkmodel.LLMResponse, error] {
	return func(yield func(*adkmodel.LLMResponse, error) bool) {
		client, err := g.ensureClient(ctx)
		if err != nil {
			yield(nil, fmt.Errorf("gemini: client init failed: %w", err))
			return
		}

		cfg := req.Config
		if cfg == nil {
			cfg = &genai.GenerateContentConfig{}
		}

		slog.Debug("gemini: calling model", "provider", g.name, "model", req.Model, "stream", stream)

		if stream {
			for resp, err := range client.Models.GenerateContentStream(ctx, req.Model, req.Contents, cfg) {
				if err != nil {
					yield(nil, fmt.Errorf("gemini: %w", err))
					return
				}
				if !yield(convertGeminiResponse(resp), nil) {
					return
				}
			}
			return
		}

		resp, err := client.Models.GenerateContent(ctx, req.Model, req.Contents, cfg)
		if err != nil {
			yield(nil, fmt.Errorf("gemini: %w", err))
			return
		}
		yield(convertGeminiResponse(resp), nil)
	}
}

func init() {
	RegisterProvider("gemini", func(name string, cfg config.ProviderConfig) Completer {
		model := cfg.Model
		if model == "" {
			model = defaultGeminiModel
		}
		return NewADKCompleter(NewGeminiLLM(name, cfg.APIKey), model)
	})
}

func convertGeminiResponse(resp *genai.GenerateContentResponse) *adkmodel.LLMResponse {
	if resp == nil || len(resp.Candidates) == 0 {
		return &adkmodel.LLMResponse{TurnComplete: true}
	}
	c := resp.Candidates[0]
	turnComplete := c.FinishReason != "" && c.FinishReason != genai.FinishReasonUnspecified
	r := &adkmodel.LLMResponse{
		Content:      c.Content,
		TurnComplete: turnComplete,
		FinishReason: c.FinishReason,
	}
	if resp.UsageMetadata != nil {
		r.UsageMetadata = resp.UsageMetadata
	}
	return r
}
