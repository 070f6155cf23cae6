package api

import "net/http"

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.predictions.Clear(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("clear predictions failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to clear predictions",
		})
		return
	}

	s.logger.Info().Int64("deleted", n).Msg("predictions cleared")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All predictions cleared.",
	})
}
