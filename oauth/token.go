package oauth

import "time"

// ExpiryMargin is how long before its expiry a token stops being handed out
const ExpiryMargin = 60 * time.Second

// DefaultLifetime applies when the token endpoint omits expires_in
const DefaultLifetime = time.Hour

// Token is an OAuth access token and the moment it expires
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Usable reports whether the token can still be presented at now
func (t Token) Usable(now time.Time) bool {
	return t.Value != "" && now.Add(ExpiryMargin).Before(t.ExpiresAt)
}
