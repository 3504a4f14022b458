package sessions

import "time"

// Session is the server-side state for one authenticated brokerage identity.
// There is at most one live Session per Subject; re-authentication overwrites it.
type Session struct {
	// Core identity
	Subject     string `json:"subject"` // upstream user_id
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	ShortName   string `json:"short_name,omitempty"`
	UserType    string `json:"user_type,omitempty"`
	Broker      string `json:"broker,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`

	// Upstream credential, never sent to clients
	AccessToken string `json:"access_token"`

	// Session management
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
