package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for the transport layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified, user-presentable failure. Err keeps the cause for
// diagnostics and errors.Is/As.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind and code so that wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

var (
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "Unauthorized."}
	ErrUnauthenticated     = &Error{Kind: KindUnauthorized, Code: "UNAUTHENTICATED", Message: "Unauthenticated."}
	ErrInvalidCredentials  = &Error{Kind: KindValidation, Code: "INVALID_CREDENTIALS", Message: "Provided email address or password is incorrect"}
	ErrEmailTaken          = &Error{Kind: KindValidation, Code: "EMAIL_TAKEN", Message: "The email has already been taken."}
	ErrInvalidQuantity     = &Error{Kind: KindValidation, Code: "INVALID_QUANTITY", Message: "The quantity must be at least 1."}
	ErrInvalidSort         = &Error{Kind: KindValidation, Code: "INVALID_SORT", Message: "Unsupported sort field or direction."}
	ErrProductNotFound     = &Error{Kind: KindNotFound, Code: "PRODUCT_NOT_FOUND", Message: "Product not found!"}
	ErrTransactionNotFound = &Error{Kind: KindNotFound, Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found!"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "User not found!"}
	ErrOutOfStock          = &Error{Kind: KindConflict, Code: "OUT_OF_STOCK", Message: "Product out of stock!"}
	ErrExceedsStock        = &Error{Kind: KindConflict, Code: "EXCEEDS_STOCK", Message: "Purchase quantity exceeds stock!"}
)

// Internal wraps an unexpected failure. The cause is kept for the response body.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "An error occured. Please try again later", Err: err}
}

// Validation builds an ad-hoc validation failure.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// AsError returns err as a *Error, promoting unclassified errors to Internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return Internal(err)
}

// KindOf reports the classification of err.
func KindOf(err error) ErrorKind {
	return AsError(err).Kind
}
