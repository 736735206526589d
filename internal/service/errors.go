package service

import (
	"errors"
	"fmt"
)

// Code — closed result code of an operation. The string value is what goes
// out on the wire.
type Code string

const (
	CodeSuccess Code = "Success"

	// relationship
	CodeNotPaired        Code = "NotPaired"
	CodeAlreadyPaired    Code = "AlreadyPaired"
	CodeInvalidRecipient Code = "InvalidRecipient"
	CodeRequestNotFound  Code = "RequestNotFound"
	CodeRequestExists    Code = "RequestExists"

	// authorization
	CodeLackingPermissions Code = "LackingPermissions"
	CodeNotItemAssigner    Code = "NotItemAssigner"
	CodeNotCollarOwner     Code = "NotCollarOwner"

	// state
	CodeNoActiveItem       Code = "NoActiveItem"
	CodeItemIsLocked       Code = "ItemIsLocked"
	CodeNotCurrentlyLocked Code = "NotCurrentlyLocked"
	CodeInvalidDataState   Code = "InvalidDataState"
	CodeInvalidLayer       Code = "InvalidLayer"
	CodeInvalidPassword    Code = "InvalidPassword"
	CodeInvalidTime        Code = "InvalidTime"

	// protocol
	CodeBadUpdateKind     Code = "BadUpdateKind"
	CodeIncorrectDataType Code = "IncorrectDataType"
	CodeNullData          Code = "NullData"
	CodeUnknownField      Code = "UnknownField"

	// transport, set by the hub only
	CodeInternalError Code = "InternalError"
	CodeUnauthorized  Code = "Unauthorized"
)

// Error is a business-rule rejection. Nothing was written when one is
// returned.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Msg
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotPaired)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func reject(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is.
var (
	ErrNotPaired          = &Error{Code: CodeNotPaired}
	ErrAlreadyPaired      = &Error{Code: CodeAlreadyPaired}
	ErrInvalidRecipient   = &Error{Code: CodeInvalidRecipient}
	ErrRequestNotFound    = &Error{Code: CodeRequestNotFound}
	ErrRequestExists      = &Error{Code: CodeRequestExists}
	ErrLackingPermissions = &Error{Code: CodeLackingPermissions}
	ErrNotItemAssigner    = &Error{Code: CodeNotItemAssigner}
	ErrNotCollarOwner     = &Error{Code: CodeNotCollarOwner}
	ErrNoActiveItem       = &Error{Code: CodeNoActiveItem}
	ErrItemIsLocked       = &Error{Code: CodeItemIsLocked}
	ErrNotCurrentlyLocked = &Error{Code: CodeNotCurrentlyLocked}
	ErrInvalidDataState   = &Error{Code: CodeInvalidDataState}
	ErrInvalidLayer       = &Error{Code: CodeInvalidLayer}
	ErrInvalidPassword    = &Error{Code: CodeInvalidPassword}
	ErrInvalidTime        = &Error{Code: CodeInvalidTime}
	ErrBadUpdateKind      = &Error{Code: CodeBadUpdateKind}
	ErrIncorrectDataType  = &Error{Code: CodeIncorrectDataType}
	ErrNullData           = &Error{Code: CodeNullData}
	ErrUnknownField       = &Error{Code: CodeUnknownField}
)

// CodeOf maps err to its result code: Success for nil, the carried code for
// a rejection and InternalError for anything else.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternalError
}

// IsRejection reports whether err is a business-rule rejection.
func IsRejection(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
