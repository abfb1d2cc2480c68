package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/application"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/ai"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/ai/prompt"
)

// Outcome labels reported to the observer.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeQuota     = "quota"
	OutcomeProvider  = "provider_error"
	OutcomeMalformed = "malformed"
)

// ObserveFunc receives one call per provider round trip.
type ObserveFunc func(provider, outcome string, took time.Duration)

// Service runs one assessment: validate, build prompt, call provider, parse.
// Each call is independent; nothing is shared between concurrent runs.
type Service struct {
	Provider  ai.Provider
	Parser    *Parser
	Model     string
	MaxTokens int
	Clock     application.Clock
	Log       *zap.Logger
	Observe   ObserveFunc
}

func NewService(provider ai.Provider, model string, maxTokens int, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Provider:  provider,
		Parser:    NewParser(log),
		Model:     model,
		MaxTokens: maxTokens,
		Clock:     application.SystemClock{},
		Log:       log,
	}
}

// Analyze produces exactly one report for the project, or an error. No retries.
func (s *Service) Analyze(ctx context.Context, p assurance.ProjectData) (*assurance.AssuranceReport, error) {
	if p.Stage == "" {
		p.Stage = assurance.StageInitiation
	}
	if err := p.Validate(); err != nil {
		s.observe(OutcomeInvalid, 0)
		return nil, err
	}

	req := ai.CompletionRequest{
		System:    prompt.SystemInstruction(),
		Prompt:    prompt.UserPrompt(p),
		MaxTokens: s.MaxTokens,
		Model:     s.Model,
	}

	start := s.Clock.Now()
	text, err := s.Provider.Complete(ctx, req)
	took := s.Clock.Now().Sub(start)
	if err != nil {
		outcome := OutcomeProvider
		if errors.Is(err, ai.ErrQuotaExceeded) {
			outcome = OutcomeQuota
		}
		s.observe(outcome, took)
		s.Log.Error("assessment provider failed",
			zap.String("provider", s.Provider.Name()),
			zap.String("project", p.Number),
			zap.Duration("took", took),
			zap.Error(err))
		return nil, fmt.Errorf("assess %s: %w", p.Number, err)
	}

	report, err := s.Parser.Parse(text)
	if err != nil {
		s.observe(OutcomeMalformed, took)
		return nil, fmt.Errorf("assess %s: %w", p.Number, err)
	}
	s.observe(OutcomeOK, took)
	s.Log.Info("assessment complete",
		zap.String("provider", s.Provider.Name()),
		zap.String("project", p.Number),
		zap.String("prompt_version", prompt.PromptVersion),
		zap.Int("documents", len(p.Documents)),
		zap.Int("findings", len(report.GapAnalysis)),
		zap.Duration("took", took))
	return report, nil
}

func (s *Service) observe(outcome string, took time.Duration) {
	if s.Observe == nil {
		return
	}
	name := "unknown"
	if s.Provider != nil {
		name = s.Provider.Name()
	}
	s.Observe(name, outcome, took)
}
