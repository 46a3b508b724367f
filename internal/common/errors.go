// Package common defines shared constants and sentinel errors used across
// client and server layers of PlanHub. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Credential gate errors. The gate also produces a localized message for
	// the UI; these sentinels exist so non-UI callers can still branch.
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountLocked   = errors.New("account locked")
	ErrWrongPassword   = errors.New("wrong password")

	// Validation errors.
	ErrWeakPassword      = errors.New("password does not meet policy")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrResetTokenExpired   = errors.New("reset token expired")
)
