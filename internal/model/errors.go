package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")

	// Session related errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Authorization errors
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInsufficientPrivilege = errors.New("insufficient privilege")

	// Message related errors
	ErrMessageNotFound   = errors.New("message not found")
	ErrRecipientNotFound = errors.New("recipient not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
