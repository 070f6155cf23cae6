package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

func (s *Server) handleUpdateActuals(w http.ResponseWriter, r *http.Request) {
	res, err := s.actuals.RunAuto(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("automatic actuals update failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to update actual prices")
		return
	}

	msg := fmt.Sprintf("Updated %d of %d pending predictions (%d without close data, %d failed).",
		res.Updated, res.Checked, res.Skipped, res.Failed)
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) handleUpdateActualsManual(w http.ResponseWriter, r *http.Request) {
	var updates []models.ActualUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "expected a JSON array of {id, actualPrice}")
		return
	}

	applied, err := s.actuals.ApplyManual(r.Context(), updates)
	if err != nil {
		s.logger.Error().Err(err).Msg("manual actuals update failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to apply manual updates")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"updated": applied})
}
