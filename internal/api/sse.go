package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kamilpajak/diagnosa/internal/narrative"
	"github.com/kamilpajak/diagnosa/pkg/models"
	"go.uber.org/zap"
)

// SSEEmitter implements narrative.ProgressEmitter by writing Server-Sent Events.
type SSEEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEEmitter creates an SSEEmitter for the given ResponseWriter.
// Returns nil if the writer does not support flushing.
func NewSSEEmitter(w http.ResponseWriter) *SSEEmitter {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	return &SSEEmitter{w: w, flusher: f}
}

// Emit writes a progress event as an SSE data line and flushes.
func (e *SSEEmitter) Emit(ev narrative.ProgressEvent) {
	e.send(ev)
}

func (e *SSEEmitter) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(e.w, "data: %s\n\n", data)
	e.flusher.Flush()
}

// streamEvent is the payload of the report and final stream events.
type streamEvent struct {
	Type        string                  `json:"type"` // "report", "result", "failed"
	Report      *models.DiagnosisReport `json:"report,omitempty"`
	Explanation *narrative.Explanation  `json:"explanation,omitempty"`
	Message     string                  `json:"message,omitempty"`
}

// handleExplainStream is POST /api/explain with progress streamed as SSE:
// the report first, then chain progress, then the explanation or failure.
func (s *Server) handleExplainStream(w http.ResponseWriter, r *http.Request) {
	if s.explainer == nil {
		writeError(w, http.StatusServiceUnavailable, "explanations are not configured")
		return
	}
	emitter := NewSSEEmitter(w)
	if emitter == nil {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	report, cat, ok := s.diagnose(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	emitter.send(streamEvent{Type: "report", Report: report})

	exp, err := s.explainer.ExplainWithProgress(r.Context(), report, cat, emitter)
	if err != nil {
		s.logger.Warn("explanation failed", zapReportID(report), zap.Error(err))
		emitter.send(streamEvent{Type: "failed", Message: err.Error()})
		return
	}
	emitter.send(streamEvent{Type: "result", Explanation: exp})
}
