package narrative

import (
	"fmt"
	"io"
)

// ProgressEvent reports what the chain is doing.
type ProgressEvent struct {
	Type     string `json:"type"` // "attempt", "skip", "error", "done"
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ProgressEmitter receives progress events.
type ProgressEmitter interface {
	Emit(event ProgressEvent)
}

// TextEmitter formats progress events as text lines for the CLI.
type TextEmitter struct {
	W io.Writer
}

// Emit writes one line per event.
func (e *TextEmitter) Emit(ev ProgressEvent) {
	switch ev.Type {
	case "attempt":
		fmt.Fprintf(e.W, "[%s/%s] generating explanation\n", ev.Provider, ev.Model)
	case "skip":
		fmt.Fprintf(e.W, "[%s/%s] skipped: %s\n", ev.Provider, ev.Model, ev.Message)
	case "error":
		fmt.Fprintf(e.W, "[%s/%s] failed: %s\n", ev.Provider, ev.Model, ev.Message)
	case "done":
		fmt.Fprintf(e.W, "[%s/%s] done\n", ev.Provider, ev.Model)
	}
}
