package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	textCodeDuplicateEmail          = "DUPLICATE_EMAIL"
	textCodeReferralCodeExhausted   = "REFERRAL_CODE_EXHAUSTED"
	textCodeTooManyLoginAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
	textCodeSessionNotFound         = "SESSION_NOT_FOUND"
	textCodeReferralCodeExpired     = "REFERRAL_CODE_EXPIRED"
	textCodeAuthInfrastructureError = "AUTH_INFRASTRUCTURE_ERROR"
)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = goerrors.New("password cannot be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword signals a failed password comparison.
// Callers presenting this to users should collapse it into the uniform
// invalid-credentials result so the two cannot be told apart.
var ErrMismatchedHashAndPassword = goerrors.New("credentials do not match", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is the uniform login failure. Unknown identifier
// and wrong password both map here; the error surface never leaks which
// case occurred.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateEmail is returned by signup when the email already
// resolves to an existing principal.
var ErrDuplicateEmail = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrReferralCodeExhausted is returned when the code generator hits its
// retry bound without finding a free code.
var ErrReferralCodeExhausted = goerrors.New("unable to generate a unique referral code", goerrors.CategoryConflict).
	WithTextCode(textCodeReferralCodeExhausted).
	WithCode(goerrors.CodeConflict)

// ErrReferralCodeExpired is returned when crediting a code whose window
// has elapsed.
var ErrReferralCodeExpired = goerrors.New("referral code has expired", goerrors.CategoryValidation).
	WithTextCode(textCodeReferralCodeExpired).
	WithCode(goerrors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned when an account is inside its
// login cooldown window.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
	WithTextCode(textCodeTooManyLoginAttempts).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionNotFound is the typed absent-session value. It is a normal
// outcome for Load, never an infrastructure failure.
var ErrSessionNotFound = goerrors.New("session not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeSessionNotFound).
	WithCode(goerrors.CodeNotFound)

// WrapInfrastructure tags store or hashing subsystem failures that are
// unrelated to input validity. The UI should present a generic retry
// message rather than internal detail.
func WrapInfrastructure(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(textCodeAuthInfrastructureError)
}

// IsNotFound reports whether err represents a lookup miss.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}

// IsDuplicateEmail reports whether err is the duplicate email conflict.
func IsDuplicateEmail(err error) bool {
	return hasTextCode(err, textCodeDuplicateEmail)
}

// IsReferralCodeExhausted reports whether err is the generator retry
// bound being hit.
func IsReferralCodeExhausted(err error) bool {
	return hasTextCode(err, textCodeReferralCodeExhausted)
}

// IsInfrastructureError reports whether err came from the store or hash
// subsystem rather than from invalid input.
func IsInfrastructureError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.Category == goerrors.CategoryInternal
}

func hasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}
