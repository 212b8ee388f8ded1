package apperr

import "errors"

// As unwraps err into a taxonomy error, or nil when err is of another kind.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func IsKind(err error, kind Kind) bool {
	e := As(err)
	return e != nil && e.Kind == kind
}

// IsTokenError reports whether err is one of the token decode kinds
// (missing, expired, invalid). The optional authentication variant
// treats these as anonymous instead of failing the request.
func IsTokenError(err error) bool {
	e := As(err)
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindTokenMissing, KindTokenExpired, KindTokenInvalid:
		return true
	}
	return false
}
