package common

import "errors"

// Core error taxonomy. Repositories report absence with gorm.ErrRecordNotFound;
// these sentinels are what the service layer hands to the HTTP boundary.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrInvalidToken       = errors.New("could not validate credentials")
	ErrVerificationToken  = errors.New("invalid or expired verification token")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("not enough permissions")
)
