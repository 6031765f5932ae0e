package meterble

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match them with errors.Is; KindOf maps them to an ErrorKind.
var (
	ErrFrameTooShort   = errors.New("meterble: frame too short")
	ErrBadStart        = errors.New("meterble: bad start marker")
	ErrBadEnd          = errors.New("meterble: bad end marker")
	ErrBadLength       = errors.New("meterble: bad length field")
	ErrPayloadTooLarge = errors.New("meterble: payload too large")
	ErrUnknownCommand  = errors.New("meterble: unknown command")
	ErrInvalidParam    = errors.New("meterble: invalid parameter")
)

// ErrorKind classifies codec failures for callers that report them.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindMalformedFrame
	KindUnknownCommand
	KindInvalidParam
	KindOther
)

// String returns the snake_case kind used in metrics and outcomes.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMalformedFrame:
		return "malformed_frame"
	case KindUnknownCommand:
		return "unknown_command"
	case KindInvalidParam:
		return "invalid_parameter"
	default:
		return "other"
	}
}

// KindOf returns the classification of err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrFrameTooShort), errors.Is(err, ErrBadStart),
		errors.Is(err, ErrBadEnd), errors.Is(err, ErrBadLength):
		return KindMalformedFrame
	case errors.Is(err, ErrUnknownCommand):
		return KindUnknownCommand
	case errors.Is(err, ErrInvalidParam), errors.Is(err, ErrPayloadTooLarge):
		return KindInvalidParam
	default:
		return KindOther
	}
}

// EncodeError reports which command failed to encode.
type EncodeError struct {
	Command string
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("encode: %v", e.Err)
	}
	return fmt.Sprintf("encode %s: %v", e.Command, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// invalidParam returns a standardised invalid-parameter error for field.
func invalidParam(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParam, field, fmt.Sprintf(format, args...))
}
