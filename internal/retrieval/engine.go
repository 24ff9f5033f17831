package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoExamples is returned by BuildPrompt when the example dataset
// holds no rows to retrieve against. Callers surface it as a user-facing
// warning rather than a server failure.
var ErrNoExamples = errors.New("no similar examples found")

// Embedder converts text into a vector compatible with the stored
// example embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Finder reads candidates and reframing examples. Satisfied by *Store.
type Finder interface {
	FindNearest(ctx context.Context, vec []float32, k int) ([]Candidate, error)
	FindReframeExamples(ctx context.Context, distortionID, limit int) ([]ReframeExample, error)
}

// Prompt is an assembled generation prompt. PrimaryDistortionID is the
// distortion of the closest retrieved example and is what gets logged
// with the interaction.
type Prompt struct {
	Text                string
	PrimaryDistortionID int
}

// Engine embeds a user thought, retrieves the nearest labeled examples,
// and assembles the generation prompt.
type Engine struct {
	embedder     Embedder
	finder       Finder
	topK         int
	reframeLimit int
	logger       *slog.Logger
}

// NewEngine creates a retrieval Engine. topK bounds the number of
// candidates, reframeLimit the reframing triples fetched per candidate.
func NewEngine(embedder Embedder, finder Finder, topK, reframeLimit int, logger *slog.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if finder == nil {
		return nil, fmt.Errorf("finder is required")
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if reframeLimit < 1 {
		return nil, fmt.Errorf("reframeLimit must be positive, got %d", reframeLimit)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder:     embedder,
		finder:       finder,
		topK:         topK,
		reframeLimit: reframeLimit,
		logger:       logger,
	}, nil
}

// BuildPrompt embeds the thought, retrieves the top-k candidates with
// their reframing examples, and returns the assembled prompt. Returns
// ErrNoExamples when retrieval yields nothing.
func (e *Engine) BuildPrompt(ctx context.Context, situation, thought string) (Prompt, error) {
	vec, err := e.embedder.Embed(ctx, strings.TrimSpace(thought))
	if err != nil {
		return Prompt{}, fmt.Errorf("embedding thought: %w", err)
	}

	candidates, err := e.finder.FindNearest(ctx, vec, e.topK)
	if err != nil {
		return Prompt{}, fmt.Errorf("retrieving candidates: %w", err)
	}
	if len(candidates) == 0 {
		return Prompt{}, ErrNoExamples
	}

	withReframes := make([]promptCandidate, 0, len(candidates))
	for _, c := range candidates {
		reframes, err := e.finder.FindReframeExamples(ctx, c.DistortionID, e.reframeLimit)
		if err != nil {
			return Prompt{}, fmt.Errorf("retrieving reframe examples for distortion %d: %w", c.DistortionID, err)
		}
		withReframes = append(withReframes, promptCandidate{Candidate: c, Reframes: reframes})
	}

	e.logger.Debug("prompt built",
		"candidates", len(candidates),
		"primary_distortion_id", candidates[0].DistortionID)

	return Prompt{
		Text:                buildPromptText(situation, thought, withReframes),
		PrimaryDistortionID: candidates[0].DistortionID,
	}, nil
}
