package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopsift/shopsift-api/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const draftTemperature = 0.4

// DraftGenerator produces the raw model output for a draft request
type DraftGenerator interface {
	GenerateDraft(ctx context.Context, req DraftRequest) (string, error)
}

// LLMDraftGenerator drafts replies with a langchaingo chat model
type LLMDraftGenerator struct {
	model llms.Model
}

var draftGeneratorInstance DraftGenerator

// NewLLMDraftGenerator wraps an existing model
func NewLLMDraftGenerator(model llms.Model) *LLMDraftGenerator {
	return &LLMDraftGenerator{model: model}
}

// InitDraftGenerator builds the OpenAI-backed generator from config and
// installs it as the process generator
func InitDraftGenerator(cfg *config.Config) (DraftGenerator, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithModel(cfg.OpenAIModel),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	draftGeneratorInstance = NewLLMDraftGenerator(llm)
	return draftGeneratorInstance, nil
}

// GetDraftGenerator returns the process draft generator
func GetDraftGenerator() DraftGenerator {
	return draftGeneratorInstance
}

// SetDraftGenerator replaces the process draft generator (primarily for testing)
func SetDraftGenerator(generator DraftGenerator) {
	draftGeneratorInstance = generator
}

// GenerateDraft sends the conversation to the model in JSON mode
func (g *LLMDraftGenerator) GenerateDraft(ctx context.Context, req DraftRequest) (string, error) {
	resp, err := g.model.GenerateContent(ctx, BuildDraftMessages(req),
		llms.WithJSONMode(),
		llms.WithTemperature(draftTemperature),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
