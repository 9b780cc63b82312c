package gateway

import (
	"errors"
	"fmt"

	"imchat/provider"
)

// AuthError reports a failed login or logout. Its text is the provider
// message, unmodified.
type AuthError struct {
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// SendError reports a rejected or failed message submission.
type SendError struct {
	To      string
	Code    int
	Message string
	Err     error
}

func (e *SendError) Error() string {
	return e.Message
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// InvalidStateError reports an operation attempted in a state that cannot
// serve it, such as sending before initialization or without a selected
// conversation.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// ProviderReadError wraps a failed read. Read paths log it and return an
// empty result instead of surfacing it.
type ProviderReadError struct {
	Op  string
	Err error
}

func (e *ProviderReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Op, e.Err)
}

func (e *ProviderReadError) Unwrap() error {
	return e.Err
}

// resultDetail extracts the provider code and message from err. Errors
// without a provider result code report code -1 and their own text.
func resultDetail(err error) (int, string) {
	var resultErr *provider.ResultError
	if errors.As(err, &resultErr) {
		return resultErr.Code, resultErr.Message
	}
	return -1, err.Error()
}

func newAuthError(op string, err error) *AuthError {
	code, message := resultDetail(err)
	return &AuthError{Op: op, Code: code, Message: message, Err: err}
}

func newSendError(to string, err error) *SendError {
	code, message := resultDetail(err)
	return &SendError{To: to, Code: code, Message: message, Err: err}
}
