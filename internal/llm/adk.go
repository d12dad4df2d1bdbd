package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"

	"github.com/soochol/hydrahunt/internal/llmutil"
)

// ErrEmptyReply is returned when a provider answers without any text.
var ErrEmptyReply = errors.New("empty reply")

// ADKCompleter drives any adkmodel.LLM as a single-turn JSON completer.
type ADKCompleter struct {
	llm   adkmodel.LLM
	model string
}

// NewADKCompleter wraps llm, sending requests for model.
func NewADKCompleter(llm adkmodel.LLM, model string) *ADKCompleter {
	return &ADKCompleter{llm: llm, model: model}
}

// Complete sends prompt as one user turn and returns the concatenated reply text.
func (c *ADKCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := &adkmodel.LLMRequest{
		Model:    c.model,
		Contents: []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	}

	var sb strings.Builder
	for resp, err := range c.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", fmt.Errorf("%s: %w", c.llm.Name(), err)
		}
		sb.WriteString(llmutil.ExtractText(resp))
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%s: %w", c.llm.Name(), ErrEmptyReply)
	}
	return sb.String(), nil
}
