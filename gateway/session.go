package gateway

import (
	"time"

	"imchat/crypto"
	"imchat/models"
)

// Session is one authenticated provider session. It is created by Login
// and discarded by Logout.
type Session struct {
	userID      string
	appID       int
	fingerprint string
	createdAt   time.Time
}

func newSession(cfg models.LoginConfig, now time.Time) *Session {
	return &Session{
		userID:      cfg.UserID,
		appID:       cfg.SDKAppID,
		fingerprint: crypto.CredentialFingerprint(cfg.SDKAppID, cfg.UserID, cfg.UserSig),
		createdAt:   now,
	}
}

// UserID returns the authenticated local user.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.userID
}

// AppID returns the application id the session was opened with.
func (s *Session) AppID() int {
	if s == nil {
		return 0
	}
	return s.appID
}

// CredentialFingerprint returns the digest of the credentials used to log in.
func (s *Session) CredentialFingerprint() string {
	if s == nil {
		return ""
	}
	return s.fingerprint
}

// CreatedAt returns when the session was authenticated.
func (s *Session) CreatedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.createdAt
}
