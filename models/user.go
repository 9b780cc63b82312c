package models

// User is a profile of a chat participant.
type User struct {
	UserID   string `json:"user_id"`
	NickName string `json:"nick_name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// LoginConfig carries the credentials of one provider session.
//
// UserSig is an opaque, externally issued token.
type LoginConfig struct {
	SDKAppID int    `json:"sdk_app_id"`
	UserID   string `json:"user_id"`
	UserSig  string `json:"-"`
}

// SessionStatus is the connection state reported by the provider.
type SessionStatus string

const (
	SessionInit      SessionStatus = "init"
	SessionReady     SessionStatus = "ready"
	SessionKickedOut SessionStatus = "kicked_out"
	SessionError     SessionStatus = "error"
)
