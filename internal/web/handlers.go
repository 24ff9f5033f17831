package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/reframelab/reframe/internal/retrieval"
	"github.com/reframelab/reframe/internal/taxonomy"
)

// pageData feeds the index template. Warning renders as an inline
// notice on an otherwise normal page; Error renders as a failure banner.
type pageData struct {
	UserID         string
	Situation      string
	Thought        string
	Answer         string
	RawPrompt      string
	DistortionName string
	Warning        string
	Error          string
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, pageData{})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, pageData{Error: "Invalid form data."})
		return
	}

	data := pageData{
		UserID:    strings.TrimSpace(r.FormValue("user_id")),
		Situation: strings.TrimSpace(r.FormValue("situation")),
		Thought:   strings.TrimSpace(r.FormValue("thought")),
	}

	if data.UserID == "" || data.Situation == "" || data.Thought == "" {
		data.Warning = "Please provide a situation, a thought, and your user ID."
		s.render(w, http.StatusOK, data)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), data.Situation, data.Thought, data.UserID)
	switch {
	case errors.Is(err, retrieval.ErrNoExamples):
		data.Warning = "No relevant examples found. Try loading the dataset first."
		s.render(w, http.StatusOK, data)
		return
	case err != nil:
		s.logger.Error("analysis failed", "error", err, "user_id", data.UserID)
		data.Error = "The analysis could not be completed. Please try again later."
		s.render(w, http.StatusBadGateway, data)
		return
	}

	data.Answer = result.Answer
	data.RawPrompt = result.PromptText
	data.DistortionName = taxonomy.Name(result.DistortionID)
	s.render(w, http.StatusOK, data)
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("template execution failed", "error", err)
	}
}
