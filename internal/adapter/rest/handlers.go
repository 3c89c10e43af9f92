package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponseDTO{Error: message})
}

// handleAnalyze runs one full analysis for the posted property and inputs
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var dto analyzeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req := dto.toRequest()
	if err := req.Query.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Assumptions.PurchasePrice.IsPositive() {
		writeError(w, http.StatusBadRequest, "purchase_price must be positive")
		return
	}

	result, err := s.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.logger.Error("analysis failed", "address", req.Query.Address, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result))
}

// handleQuotaStatus reports every tracked source counter with its limit
func (s *Server) handleQuotaStatus(w http.ResponseWriter, r *http.Request) {
	states, err := s.Acquisition.QuotaStatus(r.Context())
	if err != nil {
		s.logger.Error("quota status failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read quota counters")
		return
	}

	dtos := make([]quotaStateDTO, 0, len(states))
	for _, state := range states {
		dtos = append(dtos, quotaStateDTO{
			Source:    state.Source,
			Window:    string(state.Window),
			WindowKey: state.WindowKey,
			Used:      state.Used,
			Limit:     state.Limit,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// handleQuotaReset zeroes the counters for the requested window.
// Counters never reset on their own; this is the explicit operator path.
func (s *Server) handleQuotaReset(w http.ResponseWriter, r *http.Request) {
	var dto quotaResetRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var window domain.QuotaWindow
	switch strings.ToUpper(dto.Window) {
	case string(domain.QuotaWindowMonthly):
		window = domain.QuotaWindowMonthly
	case string(domain.QuotaWindowDaily):
		window = domain.QuotaWindowDaily
	default:
		writeError(w, http.StatusBadRequest, "window must be MONTHLY or DAILY")
		return
	}

	if err := s.Acquisition.ResetQuota(r.Context(), window); err != nil {
		s.logger.Error("quota reset failed", "window", window, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset quota counters")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleHealthz is the liveness probe
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
