package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeOllama is an httptest-backed stand-in for an Ollama server. It
// answers /api/generate with a configurable response and /api/embeddings
// with deterministic hash vectors, and records every generate prompt.
type FakeOllama struct {
	Server *httptest.Server

	mu             sync.Mutex
	generateStatus int
	generateText   string
	prompts        []string
}

// NewFakeOllama starts a fake Ollama server. The returned server is
// registered for cleanup with t.
func NewFakeOllama(t *testing.T) *FakeOllama {
	t.Helper()

	f := &FakeOllama{
		generateStatus: http.StatusOK,
		generateText:   "fake reframed answer",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", f.handleGenerate)
	mux.HandleFunc("POST /api/embeddings", f.handleEmbeddings)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake server's base URL.
func (f *FakeOllama) URL() string { return f.Server.URL }

// SetGenerate configures the status and body text of subsequent
// /api/generate responses.
func (f *FakeOllama) SetGenerate(status int, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateStatus = status
	f.generateText = text
}

// Prompts returns a copy of all prompts received by /api/generate.
func (f *FakeOllama) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

func (f *FakeOllama) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	status, text := f.generateStatus, f.generateText
	f.mu.Unlock()

	if status < 200 || status >= 300 {
		http.Error(w, text, status)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"response": text})
}

func (f *FakeOllama) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"embedding": HashVector(req.Prompt)})
}
