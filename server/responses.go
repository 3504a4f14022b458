package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-kite-session/auth"
	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	messageInternal = "Internal server error"
)

var errPanic = apperrors.Wrapf(apperrors.ErrInternal, "panic recovered")

// errorResponse is the envelope for every failed API call. Detail is only filled in development.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeError classifies err, logs it and writes the error envelope
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)

	switch {
	case apperrors.Is(err, apperrors.ErrConfiguration):
		log.Error().Err(err).Msg("Server misconfigured")
	case status >= http.StatusInternalServerError:
		log.Err(err).Int("status", status).Msg("Request failed")
	default:
		log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	resp := errorResponse{Error: message}
	if s.isDev() {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps an error to an HTTP status and a message that is safe to show the caller
func statusFor(err error) (int, string) {
	publicMessage, hasPublic := apperrors.PublicMessage(err)
	message := func(fallback string) string {
		if hasPublic {
			return publicMessage
		}
		return fallback
	}

	switch {
	case apperrors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "Invalid or expired session"
	case apperrors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, message("Bad request")
	case apperrors.Is(err, apperrors.ErrConfiguration):
		return http.StatusInternalServerError, message("Server configuration error")
	case apperrors.Is(err, apperrors.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "Kite is unavailable, please try again"
	case apperrors.Is(err, apperrors.ErrUpstreamAuth):
		if apperrors.Is(err, auth.ErrInvalidCredentials) {
			return http.StatusUnauthorized, message("Invalid Kite credentials")
		}
		return http.StatusBadRequest, message("Authentication failed")
	case apperrors.Is(err, apperrors.ErrInternal):
		return http.StatusInternalServerError, messageInternal
	default:
		return http.StatusInternalServerError, messageInternal
	}
}
