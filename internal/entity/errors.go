package entity

import "errors"

// Domain errors for cards, sessions and the evaluation pipeline.
var (
	ErrCardNotFound          = errors.New("card not found")
	ErrInvalidCard           = errors.New("invalid card")
	ErrInvalidLanguage       = errors.New("invalid target language")
	ErrInvalidQuery          = errors.New("invalid list query")
	ErrSessionNotFound       = errors.New("session not found")
	ErrInvalidSessionState   = errors.New("invalid session state")
	ErrSessionConflict       = errors.New("session was modified concurrently")
	ErrInvalidDescription    = errors.New("invalid description")
	ErrScoringInputInvalid   = errors.New("scoring input invalid")
	ErrCapabilityUnavailable = errors.New("ai capability unavailable")
	ErrTranslationMismatch   = errors.New("translation does not match key words")
	ErrMalformedAIResponse   = errors.New("malformed ai response")
)
