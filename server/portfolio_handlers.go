package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-kite-session/portfolio"
)

// PortfolioHandler serves holdings metrics, live or placeholder. Only a bad segment is an error.
func (s *Server) PortfolioHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		segment, err := portfolio.ParseSegment(query.Get(ParamSegment))
		if err != nil {
			s.writeError(w, err)
			return
		}
		details, _ := strconv.ParseBool(query.Get(ParamDetails))

		resp := s.portfolio.Holdings(r.Context(), r.Header.Get(headerAuthorization), portfolio.Query{
			Segment: segment,
			Details: details,
		})
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
