package models

import "errors"

// Engine errors
var (
	ErrDataUnavailable   = errors.New("no historical data available")
	ErrUnknownStrategy   = errors.New("strategy not implemented")
	ErrInsufficientData  = errors.New("insufficient price history")
	ErrInvalidParameters = errors.New("invalid strategy parameters")
	ErrSignalMisaligned  = errors.New("signal sequence length does not match price sequence")
	ErrInvalidConfig     = errors.New("invalid configuration")
)
