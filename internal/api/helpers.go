package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kamilpajak/diagnosa/internal/catalog"
	"github.com/kamilpajak/diagnosa/pkg/engine"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return err
	}
	return nil
}

// parseTop reads a non-negative result limit; 0 means all results.
func parseTop(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("top must be a non-negative integer, got %q", raw)
	}
	return n, nil
}

// loadCatalog takes a snapshot from the provider, answering 503 on failure.
func (s *Server) loadCatalog(w http.ResponseWriter, r *http.Request) (engine.Catalog, bool) {
	cat, err := catalog.Load(r.Context(), s.catalog)
	if err != nil {
		s.logger.Error("catalog unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return engine.Catalog{}, false
	}
	return cat, true
}
