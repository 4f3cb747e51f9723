package csrf

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a CSRF failure.
type ErrorKind int

const (
	// KindConfig marks an invalid Settings construction.
	KindConfig ErrorKind = iota + 1
	// KindMissingToken marks a request without a token in cookie or header.
	KindMissingToken
	// KindTokenValidation marks a token that is expired, tampered or malformed.
	KindTokenValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindMissingToken:
		return "missing_token"
	case KindTokenValidation:
		return "token_validation"
	default:
		return "unknown"
	}
}

// User-facing messages. Adopters match on these strings.
const (
	MessageMissing = "The CSRF token is missing"
	MessageExpired = "The CSRF token has expired."
	MessageInvalid = "The CSRF token is invalid."
)

// Error is the failure type returned by Settings construction and by
// Protector.Verify. StatusCode is what the web layer should answer with.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, so the
// package-level match targets below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Match targets for errors.Is.
var (
	ErrConfig          = &Error{Kind: KindConfig, StatusCode: http.StatusBadRequest}
	ErrMissingToken    = &Error{Kind: KindMissingToken, StatusCode: http.StatusBadRequest, Message: MessageMissing}
	ErrTokenValidation = &Error{Kind: KindTokenValidation, StatusCode: http.StatusBadRequest}
)

// Codec-level sentinels. Decode wraps one of these.
var (
	ErrTokenExpired = errors.New("csrf: token expired")
	ErrTokenInvalid = errors.New("csrf: token invalid")
	ErrEmptySecret  = errors.New("csrf: empty secret")
)

func configError(format string, args ...any) *Error {
	return &Error{
		Kind:       KindConfig,
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(format, args...),
	}
}

func missingTokenError() *Error {
	return &Error{Kind: KindMissingToken, StatusCode: http.StatusBadRequest, Message: MessageMissing}
}

// validationError maps a codec failure to the facade error. Anything that
// is not ErrTokenExpired is reported as invalid.
func validationError(err error) *Error {
	msg := MessageInvalid
	if errors.Is(err, ErrTokenExpired) {
		msg = MessageExpired
	}
	return &Error{
		Kind:       KindTokenValidation,
		StatusCode: http.StatusBadRequest,
		Message:    msg,
		Err:        err,
	}
}

// WriteError writes err as a JSON body {"detail": <message>}.
// A *Error keeps its status code; anything else becomes a 500.
func WriteError(w http.ResponseWriter, err error) {
	status, detail := http.StatusInternalServerError, "internal error"
	var ce *Error
	if errors.As(err, &ce) {
		status, detail = ce.StatusCode, ce.Message
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
