// Package parse maps extracted resume text onto the structured resume schema,
// first through a text-completion service and, when that is unavailable or
// keeps failing, through a regex heuristic.
package parse

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/soochol/hydrahunt/internal/extract"
	"github.com/soochol/hydrahunt/internal/llmutil"
	"github.com/soochol/hydrahunt/internal/resume"
)

//go:embed resume.schema.json
var resumeSchemaJSON []byte

var loadResumeSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(resumeSchemaJSON))
})

// Completer is the opaque text-completion capability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Parser produces structured resumes from text.
type Parser struct {
	completer Completer
	policy    RetryPolicy
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option { return func(ps *Parser) { ps.policy = p } }

// WithLogger sets the logger for failed attempts.
func WithLogger(l *slog.Logger) Option { return func(ps *Parser) { ps.logger = l } }

// NewParser creates a Parser. A nil completer makes every parse heuristic.
func NewParser(completer Completer, opts ...Option) *Parser {
	p := &Parser{
		completer: completer,
		policy:    DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Parse never fails. It returns a structured result when the completion
// service produces a schema-valid reply within the retry budget, and a
// heuristic result otherwise.
func (p *Parser) Parse(ctx context.Context, text string) resume.ParseResult {
	clean := extract.Scrub(text)
	if p.completer == nil {
		return heuristicResult(clean, 0)
	}

	prompt := buildPrompt(clean)
	attempts := 0
	for attempt := 0; attempt < p.policy.MaxAttempts; attempt++ {
		attempts++
		r, err := p.attempt(ctx, prompt)
		if err == nil {
			return resume.ParseResult{Source: resume.SourceStructured, Resume: r, Attempts: attempts}
		}
		p.logger.Warn("parse: structured extraction failed",
			"attempt", attempts, "max_attempts", p.policy.MaxAttempts, "err", err)

		if attempt == p.policy.MaxAttempts-1 {
			break
		}
		if !sleepWithBackoff(ctx, p.policy, attempt) {
			p.logger.Warn("parse: cancelled during backoff", "err", ctx.Err())
			break
		}
	}
	p.logger.Info("parse: falling back to heuristic", "attempts", attempts)
	return heuristicResult(clean, attempts)
}

func heuristicResult(text string, attempts int) resume.ParseResult {
	return resume.ParseResult{Source: resume.SourceHeuristic, Resume: Heuristic(text), Attempts: attempts}
}

func (p *Parser) attempt(ctx context.Context, prompt string) (resume.Resume, error) {
	reply, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return resume.Resume{}, fmt.Errorf("complete: %w", err)
	}
	body, err := llmutil.ExtractJSONObject(reply)
	if err != nil {
		return resume.Resume{}, err
	}
	return decodeStructured([]byte(body))
}

// decodeStructured validates a completion reply against the resume schema
// and decodes it.
func decodeStructured(body []byte) (resume.Resume, error) {
	schema, err := loadResumeSchema()
	if err != nil {
		return resume.Resume{}, fmt.Errorf("load resume schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return resume.Resume{}, fmt.Errorf("validate reply: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return resume.Resume{}, errors.New("reply does not match schema: " + strings.Join(msgs, "; "))
	}

	var r resume.Resume
	if err := json.Unmarshal(body, &r); err != nil {
		return resume.Resume{}, fmt.Errorf("decode reply: %w", err)
	}
	for i := range r.Skills {
		if r.Skills[i].ID == "" {
			r.Skills[i].ID = uuid.NewString()
		}
		if r.Skills[i].Level == 0 {
			r.Skills[i].Level = resume.DefaultSkillLevel
		}
	}
	r.Normalize()
	return r, nil
}
