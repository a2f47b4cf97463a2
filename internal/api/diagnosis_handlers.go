package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kamilpajak/diagnosa/internal/catalog"
	"github.com/kamilpajak/diagnosa/internal/narrative"
	"github.com/kamilpajak/diagnosa/pkg/engine"
	"github.com/kamilpajak/diagnosa/pkg/models"
	"go.uber.org/zap"
)

type diagnoseRequest struct {
	SelectedSymptomCodes []string `json:"selected_symptom_codes"`
	DeviceType           string   `json:"device_type,omitempty"`
	Top                  int      `json:"top,omitempty"`
}

type explainResponse struct {
	Report      *models.DiagnosisReport `json:"report"`
	Explanation *narrative.Explanation  `json:"explanation"`
}

func (s *Server) handleListSymptoms(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}

	filtered := cat.ForDevice(r.URL.Query().Get("device"))
	symptoms := filtered.Symptoms
	if symptoms == nil {
		symptoms = []models.Symptom{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symptoms":     symptoms,
		"device_types": cat.DeviceTypes(),
	})
}

func (s *Server) handleListDamages(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.loadCatalog(w, r)
	if !ok {
		return
	}
	damages := cat.Damages
	if damages == nil {
		damages = []models.Damage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"damages": damages})
}

func (s *Server) handleGetDamage(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	d, err := catalog.GetDamage(r.Context(), s.catalog, code)
	if err != nil {
		s.logger.Error("catalog unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "damage not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Rules())
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	report, _, ok := s.diagnose(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if s.explainer == nil {
		writeError(w, http.StatusServiceUnavailable, "explanations are not configured")
		return
	}

	report, cat, ok := s.diagnose(w, r)
	if !ok {
		return
	}

	exp, err := s.explainer.Explain(r.Context(), report, cat)
	if err != nil {
		s.logger.Warn("explanation failed", zapReportID(report), zap.Error(err))
		if errors.Is(err, narrative.ErrNoModelAvailable) {
			writeError(w, http.StatusServiceUnavailable, "no language model available")
			return
		}
		writeError(w, http.StatusBadGateway, "explanation failed")
		return
	}

	writeJSON(w, http.StatusOK, explainResponse{Report: report, Explanation: exp})
}

// diagnose decodes a diagnose request and runs the engine. The returned
// catalog is the device-filtered snapshot the report was computed on.
func (s *Server) diagnose(w http.ResponseWriter, r *http.Request) (*models.DiagnosisReport, engine.Catalog, bool) {
	var req diagnoseRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, engine.Catalog{}, false
	}
	if req.Top < 0 {
		writeError(w, http.StatusBadRequest, "top must not be negative")
		return nil, engine.Catalog{}, false
	}
	top, err := parseTop(r.URL.Query().Get("top"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, engine.Catalog{}, false
	}
	if req.Top > 0 {
		top = req.Top
	}

	cat, ok := s.loadCatalog(w, r)
	if !ok {
		return nil, engine.Catalog{}, false
	}
	cat = cat.ForDevice(req.DeviceType)

	report := s.engine.Diagnose(cat, engine.Request{SelectedSymptomCodes: req.SelectedSymptomCodes})
	report.Results = report.Top(top)
	s.logReport(report, req.DeviceType)
	return report, cat, true
}

func (s *Server) logReport(report *models.DiagnosisReport, device string) {
	fields := []zap.Field{
		zapReportID(report),
		zap.String("device", device),
		zap.Int("symptoms", len(report.SymptomCodes)),
		zap.String("contradiction", string(report.Contradiction.Severity)),
	}
	if top := report.Top(1); len(top) == 1 {
		fields = append(fields, zap.String("top", top[0].Code), zap.Float64("belief", top[0].Belief))
	}
	if report.Conflict != nil {
		fields = append(fields, zap.Float64("conflict_k", report.Conflict.K))
	}
	s.logger.Info("diagnosis", fields...)

	for _, warning := range report.Warnings {
		s.logger.Warn("diagnosis warning",
			zapReportID(report),
			zap.String("kind", string(warning.Kind)),
			zap.String("code", warning.Code),
			zap.String("message", warning.Message))
	}
}

func zapReportID(report *models.DiagnosisReport) zap.Field {
	return zap.String("report_id", report.ID.String())
}
