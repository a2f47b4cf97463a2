package narrative

import (
	"context"

	"github.com/kamilpajak/diagnosa/pkg/engine"
	"github.com/kamilpajak/diagnosa/pkg/models"
)

// Explanation is the generated text and the model that wrote it.
type Explanation struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Completer is satisfied by *Chain and by any Model.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (*Response, error)
}

// Explainer produces an Explanation for a diagnosis report.
type Explainer struct {
	completer Completer
}

// NewExplainer creates an Explainer backed by c.
func NewExplainer(c Completer) *Explainer {
	return &Explainer{completer: c}
}

// Explain narrates report. The report is not modified.
func (e *Explainer) Explain(ctx context.Context, report *models.DiagnosisReport, cat engine.Catalog) (*Explanation, error) {
	return e.ExplainWithProgress(ctx, report, cat, nil)
}

// ExplainWithProgress is Explain with per-call progress events. Only a
// *Chain completer reports progress.
func (e *Explainer) ExplainWithProgress(ctx context.Context, report *models.DiagnosisReport, cat engine.Catalog, emitter ProgressEmitter) (*Explanation, error) {
	messages := BuildPrompt(report, cat)

	var resp *Response
	var err error
	if chain, ok := e.completer.(*Chain); ok && emitter != nil {
		resp, err = chain.CompleteWithProgress(ctx, messages, emitter)
	} else {
		resp, err = e.completer.Complete(ctx, messages)
	}
	if err != nil {
		return nil, err
	}
	return &Explanation{Text: resp.Content, Provider: string(resp.Provider), Model: resp.Model}, nil
}
