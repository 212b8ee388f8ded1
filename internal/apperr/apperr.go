// Package apperr defines the authentication error taxonomy. Every failure
// kind maps to an HTTP status and a machine-readable error type; handlers
// and middleware raise these at the point of detection and the transport
// boundary renders them unchanged.
package apperr

import (
	"fmt"
	"net/http"
)

type Kind string

const (
	KindTokenMissing       Kind = "token_missing"
	KindTokenExpired       Kind = "token_expired"
	KindTokenInvalid       Kind = "token_invalid"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindInvalidPassword    Kind = "invalid_password"
	KindAuthRequired       Kind = "auth_required"
	KindForbidden          Kind = "forbidden"
	KindUserNotFound       Kind = "user_not_found"
	KindSessionNotFound    Kind = "session_not_found"
	KindUserExists         Kind = "user_exists"
)

// StatusTokenExpired is not in net/http; 419 is the conventional
// "authentication timeout" status the API contract uses.
const StatusTokenExpired = 419

type Error struct {
	Kind   Kind
	Status int
	Detail string
	Extra  map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func TokenMissing() *Error {
	return &Error{Kind: KindTokenMissing, Status: http.StatusUnauthorized, Detail: "token is missing"}
}

func TokenExpired() *Error {
	return &Error{Kind: KindTokenExpired, Status: StatusTokenExpired, Detail: "token has expired"}
}

func TokenInvalid(detail string) *Error {
	if detail == "" {
		detail = "invalid token"
	}
	return &Error{Kind: KindTokenInvalid, Status: http.StatusUnprocessableEntity, Detail: detail}
}

func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Status: http.StatusUnauthorized, Detail: "invalid email or password"}
}

func InvalidPassword() *Error {
	return &Error{Kind: KindInvalidPassword, Status: http.StatusUnauthorized, Detail: "invalid password"}
}

func AuthRequired() *Error {
	return &Error{Kind: KindAuthRequired, Status: http.StatusForbidden, Detail: "authorization required"}
}

func Forbidden(detail string, extra map[string]any) *Error {
	if detail == "" {
		detail = "insufficient permissions to perform the operation"
	}
	return &Error{Kind: KindForbidden, Status: http.StatusForbidden, Detail: detail, Extra: extra}
}

func UserNotFound(field, value string) *Error {
	return &Error{
		Kind:   KindUserNotFound,
		Status: http.StatusNotFound,
		Detail: "user not found",
		Extra:  lookupExtra(field, value),
	}
}

func SessionNotFound(field, value string) *Error {
	return &Error{
		Kind:   KindSessionNotFound,
		Status: http.StatusNotFound,
		Detail: "session not found",
		Extra:  lookupExtra(field, value),
	}
}

func UserExists(field, value string) *Error {
	return &Error{
		Kind:   KindUserExists,
		Status: http.StatusConflict,
		Detail: fmt.Sprintf("user with this %s already exists", field),
		Extra:  lookupExtra(field, value),
	}
}

func lookupExtra(field, value string) map[string]any {
	if field == "" {
		return nil
	}
	return map[string]any{"field": field, "value": value}
}
