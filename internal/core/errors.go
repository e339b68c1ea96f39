package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeValidation   = "validation"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnknownEvent = "unknown_event"
	ErrCodeInternal     = "internal"
)

// Messages sent back to clients.
const (
	MsgUsernameRequired       = "username required"
	MsgRoomIDRequired         = "room id required"
	MsgRoomIDOrUsernameNeeded = "room id or username required"
	MsgRoomNotFound           = "room does not exist"
	MsgUnknownEvent           = "unknown event"
	MsgInternal               = "internal error"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnknownEvent = errors.New("unknown event")
)

// Error wraps a code and human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets callers match on the code with errors.Is(err, ErrValidation).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Code == ErrCodeValidation
	case ErrNotFound:
		return e.Code == ErrCodeNotFound
	case ErrUnknownEvent:
		return e.Code == ErrCodeUnknownEvent
	}
	return false
}

func coreError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func validationError(msg string) *Error {
	return coreError(ErrCodeValidation, msg)
}

func notFoundError(msg string) *Error {
	return coreError(ErrCodeNotFound, msg)
}
