package adapthttp

import "net/http"

func (s *Server) handleFareRuleList(w http.ResponseWriter, r *http.Request) {
	rules, err := s.fareSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}
