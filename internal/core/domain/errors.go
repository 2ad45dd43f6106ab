package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrEmptyMessage       = errors.New("text or image is required")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMediaUpload        = errors.New("media upload failed")

	// Live delivery outcomes. They never reach an HTTP caller.
	ErrReceiverOffline = errors.New("receiver offline")
	ErrPushDropped     = errors.New("connection buffer full")
)
