package services

import "errors"

// Every failure a public operation can surface. All of these are
// terminal for the triggering request: the transaction rolls back and
// state is exactly what it was before the call.
var (
	ErrOwnerOnly          = errors.New("owner only")
	ErrInvalidEvent       = errors.New("invalid event")
	ErrEventInactive      = errors.New("event inactive")
	ErrAlreadyClaimed     = errors.New("already claimed")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrParticipantLimit   = errors.New("participant limit reached")
	ErrInvalidReward      = errors.New("invalid reward")
	ErrInsufficientPoints = errors.New("insufficient points")
)
