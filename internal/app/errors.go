package app

import "errors"

var (
	ErrAssistantNotFound  = errors.New("assistant not found")
	ErrThreadNotFound     = errors.New("thread not found")
	ErrCardNotFound       = errors.New("card not found")
	ErrIdeaNotFound       = errors.New("idea not found")
	ErrShareNotFound      = errors.New("shared idea not found")
	ErrNoGeneratedContent = errors.New("thread has no generated content")
	ErrDeviceIDRequired   = errors.New("device id required")
	ErrEmailRequired      = errors.New("email and password required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInputRequired      = errors.New("message is required")
)
