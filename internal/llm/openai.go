package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/soochol/hydrahunt/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

// ChatClient is the part of *openai.Client the completer needs. Any
// OpenAI-compatible backend can be adapted to it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompleter asks an OpenAI-compatible chat endpoint for a JSON object.
type OpenAICompleter struct {
	client   ChatClient
	model    string
	name     string
	jsonMode bool
}

// NewOpenAICompleter builds a completer from provider settings. A custom URL
// points it at a compatible server such as Ollama or LM Studio.
func NewOpenAICompleter(name string, cfg config.ProviderConfig) *OpenAICompleter {
	transportCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		transportCfg.BaseURL = cfg.URL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAICompleter{
		client:   openai.NewClientWithConfig(transportCfg),
		model:    model,
		name:     name,
		jsonMode: true,
	}
}

// NewOpenAICompleterWithClient wraps an existing client. JSON mode is off,
// since not every compatible backend accepts response_format.
func NewOpenAICompleterWithClient(name, model string, client ChatClient) *OpenAICompleter {
	return &OpenAICompleter{client: client, model: model, name: name}
}

// Complete sends prompt as a single user message.
func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		N:           1,
	}
	if o.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices", o.name)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%s: %w", o.name, ErrEmptyReply)
	}
	return content, nil
}

func init() {
	RegisterProvider("openai", func(name string, cfg config.ProviderConfig) Completer {
		return NewOpenAICompleter(name, cfg)
	})
}
