package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-kite-session/auth"
	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
)

const (
	headerAuthorization = "Authorization"
	maxRequestBodyBytes = 64 << 10
)

type loginURLResponse struct {
	Success  bool   `json:"success"`
	LoginURL string `json:"login_url"`
	Message  string `json:"message"`
}

type exchangeRequest struct {
	RequestToken string `json:"request_token"`
}

type loginResponse struct {
	Success      bool          `json:"success"`
	SessionToken string        `json:"session_token"`
	User         auth.UserInfo `json:"user"`
	ExpiresAt    int64         `json:"expires_at"` // epoch milliseconds
	Message      string        `json:"message"`
}

type sessionInfo struct {
	Subject   string `json:"subject"`
	ExpiresAt int64  `json:"expires_at"` // epoch milliseconds
}

type profileResponse struct {
	Success     bool             `json:"success"`
	User        auth.ProfileUser `json:"user"`
	SessionInfo sessionInfo      `json:"session_info"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// KiteAuthGetHandler serves ?action=login-url and ?action=profile
func (s *Server) KiteAuthGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get(ParamAction) {
		case ActionLoginURL:
			loginURL, err := s.auth.LoginURL()
			if err != nil {
				s.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, loginURLResponse{
				Success:  true,
				LoginURL: loginURL,
				Message:  "Redirect user to this URL for authentication",
			})

		case ActionProfile:
			profile, err := s.auth.Profile(r.Context(), r.Header.Get(headerAuthorization))
			if err != nil {
				s.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, profileResponse{
				Success: true,
				User:    profile.User,
				SessionInfo: sessionInfo{
					Subject:   profile.Session.Subject,
					ExpiresAt: epochMillis(profile.Session.ExpiresAt),
				},
			})

		default:
			writeJSONError(w, "Invalid action parameter", http.StatusBadRequest)
		}
	}
}

// ExchangeHandler trades a request token for a session token
func (s *Server) ExchangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exchangeRequest
		if err := decodeJSONBody(r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		result, err := s.auth.Exchange(r.Context(), req.RequestToken)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newLoginResponse(result, "Authentication successful"))
	}
}

// LegacyLoginHandler logs in with Kite user credentials
func (s *Server) LegacyLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds auth.LegacyCredentials
		if err := decodeJSONBody(r, &creds); err != nil {
			s.writeError(w, err)
			return
		}

		result, err := s.auth.LegacyLogin(r.Context(), creds)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newLoginResponse(result, "User logged in successfully"))
	}
}

// LogoutHandler always reports success, whether or not a session existed
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Logout(r.Context(), r.Header.Get(headerAuthorization))
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logged out successfully"})
	}
}

func newLoginResponse(result *auth.LoginResult, message string) loginResponse {
	return loginResponse{
		Success:      true,
		SessionToken: result.SessionToken,
		User:         result.User,
		ExpiresAt:    epochMillis(result.ExpiresAt),
		Message:      message,
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if apperrors.Is(err, io.EOF) {
			return apperrors.Public(apperrors.ErrBadRequest, "Request body is required")
		}
		return apperrors.Public(apperrors.ErrBadRequest, "Request body must be valid JSON")
	}
	return nil
}

func epochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
