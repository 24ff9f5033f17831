package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/reframelab/reframe/internal/chatlog"
	"github.com/reframelab/reframe/internal/log"
	"github.com/reframelab/reframe/internal/retrieval"
)

type stubBuilder struct {
	prompt retrieval.Prompt
	err    error
}

func (s *stubBuilder) BuildPrompt(_ context.Context, _, _ string) (retrieval.Prompt, error) {
	return s.prompt, s.err
}

type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (s *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.answer, s.err
}

type spyRecorder struct {
	entries []chatlog.Entry
	err     error
}

func (s *spyRecorder) Record(_ context.Context, entry chatlog.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestAnalyzeSuccess(t *testing.T) {
	builder := &stubBuilder{prompt: retrieval.Prompt{Text: "the prompt", PrimaryDistortionID: 7}}
	generator := &stubGenerator{answer: "a calmer view"}
	recorder := &spyRecorder{}

	svc, err := NewService(builder, generator, recorder, log.NewNop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	result, err := svc.Analyze(context.Background(), "work stress", "I should be perfect", "alice")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Answer != "a calmer view" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if result.PromptText != "the prompt" {
		t.Errorf("PromptText = %q", result.PromptText)
	}
	if result.DistortionID != 7 {
		t.Errorf("DistortionID = %d, want 7", result.DistortionID)
	}
	if len(recorder.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.UserID != "alice" || entry.Situation != "work stress" ||
		entry.Thought != "I should be perfect" || entry.Answer != "a calmer view" ||
		entry.DistortionID != 7 {
		t.Errorf("recorded entry = %+v", entry)
	}
}

func TestAnalyzeNoExamples(t *testing.T) {
	builder := &stubBuilder{err: retrieval.ErrNoExamples}
	generator := &stubGenerator{}
	recorder := &spyRecorder{}

	svc, err := NewService(builder, generator, recorder, log.NewNop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	_, err = svc.Analyze(context.Background(), "s", "t", "alice")
	if !errors.Is(err, retrieval.ErrNoExamples) {
		t.Fatalf("Analyze() error = %v, want ErrNoExamples", err)
	}
	if generator.calls != 0 {
		t.Errorf("generator called %d times, want 0", generator.calls)
	}
	if len(recorder.entries) != 0 {
		t.Errorf("recorded %d entries, want 0", len(recorder.entries))
	}
}

func TestAnalyzeGenerationFailureSkipsRecord(t *testing.T) {
	genErr := errors.New("ollama API error (status 500): model not found")
	builder := &stubBuilder{prompt: retrieval.Prompt{Text: "p", PrimaryDistortionID: 1}}
	generator := &stubGenerator{err: genErr}
	recorder := &spyRecorder{}

	svc, err := NewService(builder, generator, recorder, log.NewNop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	_, err = svc.Analyze(context.Background(), "s", "t", "alice")
	if !errors.Is(err, genErr) {
		t.Fatalf("Analyze() error = %v, want generation error", err)
	}
	if len(recorder.entries) != 0 {
		t.Errorf("recorded %d entries after failed generation, want 0", len(recorder.entries))
	}
}

func TestAnalyzeRecordFailure(t *testing.T) {
	recordErr := errors.New("connection reset")
	builder := &stubBuilder{prompt: retrieval.Prompt{Text: "p", PrimaryDistortionID: 1}}
	generator := &stubGenerator{answer: "a"}
	recorder := &spyRecorder{err: recordErr}

	svc, err := NewService(builder, generator, recorder, log.NewNop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if _, err := svc.Analyze(context.Background(), "s", "t", "alice"); !errors.Is(err, recordErr) {
		t.Fatalf("Analyze() error = %v, want record error", err)
	}
}

func TestNewServiceValidation(t *testing.T) {
	builder := &stubBuilder{}
	generator := &stubGenerator{}
	recorder := &spyRecorder{}

	if _, err := NewService(nil, generator, recorder, nil); err == nil {
		t.Error("NewService(nil builder) expected error")
	}
	if _, err := NewService(builder, nil, recorder, nil); err == nil {
		t.Error("NewService(nil generator) expected error")
	}
	if _, err := NewService(builder, generator, nil, nil); err == nil {
		t.Error("NewService(nil recorder) expected error")
	}
}
