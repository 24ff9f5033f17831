// Package chat orchestrates one analysis round trip: build the prompt
// from retrieved examples, generate the answer, record the interaction.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reframelab/reframe/internal/chatlog"
	"github.com/reframelab/reframe/internal/retrieval"
)

// PromptBuilder assembles the generation prompt. Satisfied by
// *retrieval.Engine.
type PromptBuilder interface {
	BuildPrompt(ctx context.Context, situation, thought string) (retrieval.Prompt, error)
}

// Generator produces the model answer. Satisfied by *ollama.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder persists a completed interaction. Satisfied by
// *chatlog.Store.
type Recorder interface {
	Record(ctx context.Context, entry chatlog.Entry) error
}

// Result is one completed analysis.
type Result struct {
	Answer       string
	PromptText   string
	DistortionID int
}

// Service runs the analysis pipeline.
type Service struct {
	builder   PromptBuilder
	generator Generator
	recorder  Recorder
	logger    *slog.Logger
}

// NewService creates a chat Service.
func NewService(builder PromptBuilder, generator Generator, recorder Recorder, logger *slog.Logger) (*Service, error) {
	if builder == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{builder: builder, generator: generator, recorder: recorder, logger: logger}, nil
}

// Analyze runs BuildPrompt, Generate, Record in strict order. A failure
// at any step aborts the sequence, so nothing is recorded unless
// generation succeeded. Propagates retrieval.ErrNoExamples unwrapped in
// the chain for errors.Is checks.
func (s *Service) Analyze(ctx context.Context, situation, thought, userID string) (*Result, error) {
	prompt, err := s.builder.BuildPrompt(ctx, situation, thought)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	answer, err := s.generator.Generate(ctx, prompt.Text)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	entry := chatlog.Entry{
		UserID:       userID,
		Situation:    situation,
		Thought:      thought,
		Answer:       answer,
		DistortionID: prompt.PrimaryDistortionID,
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording interaction: %w", err)
	}

	s.logger.Info("analysis completed",
		"user_id", userID,
		"distortion_id", prompt.PrimaryDistortionID,
		"answer_len", len(answer))

	return &Result{
		Answer:       answer,
		PromptText:   prompt.Text,
		DistortionID: prompt.PrimaryDistortionID,
	}, nil
}
