package service

import "errors"

var (
	// ErrInvalidCredentials means the presented GitHub token could not
	// be exchanged for an authenticated user.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionNotFound means no live session exists for the login,
	// e.g. after a logout or a server restart.
	ErrSessionNotFound = errors.New("session not found")
)
