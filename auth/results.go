package auth

import (
	"time"

	"github.com/jrsteele09/go-kite-session/sessions"
)

// UserInfo is the non-secret identity returned after a successful login
type UserInfo struct {
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	ShortName   string `json:"short_name,omitempty"`
	UserType    string `json:"user_type,omitempty"`
	Broker      string `json:"broker,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// LoginResult is what Exchange and LegacyLogin hand back to the caller
type LoginResult struct {
	SessionToken string
	User         UserInfo
	ExpiresAt    time.Time
}

// ProfileUser is the live upstream profile, without any credential
type ProfileUser struct {
	Subject     string   `json:"subject"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	ShortName   string   `json:"short_name,omitempty"`
	UserType    string   `json:"user_type,omitempty"`
	Broker      string   `json:"broker,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Exchanges   []string `json:"exchanges,omitempty"`
	Products    []string `json:"products,omitempty"`
	OrderTypes  []string `json:"order_types,omitempty"`
}

type SessionInfo struct {
	Subject   string
	ExpiresAt time.Time
}

type ProfileResult struct {
	User    ProfileUser
	Session SessionInfo
}

func userInfoFromSession(s sessions.Session) UserInfo {
	return UserInfo{
		Subject:     s.Subject,
		DisplayName: s.DisplayName,
		Email:       s.Email,
		ShortName:   s.ShortName,
		UserType:    s.UserType,
		Broker:      s.Broker,
		AvatarURL:   s.AvatarURL,
	}
}
