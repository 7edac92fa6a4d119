package gorcmb

import "errors"

// Errors
var (
	ErrSearchSpaceTooLarge = errors.New("search space too large")
	ErrInvalidCatalog      = errors.New("invalid component catalog")
	ErrParameterOutOfRange = errors.New("parameter out of range")
	ErrInaccurateResult    = errors.New("result value does not match its topology")
	ErrBrokenTopology      = errors.New("bad or inconsistent combination tree")
	ErrSessionClosed       = errors.New("session closed")
	ErrSuperseded          = errors.New("request superseded")
)
