// Package apperr holds the error taxonomy shared by the cart, order and
// address services and the HTTP layer that renders them.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindNotFound           Kind = "NOT_FOUND"
	KindOutOfStock         Kind = "OUT_OF_STOCK"
	KindInsufficientStock  Kind = "INSUFFICIENT_STOCK"
	KindEmptyCart          Kind = "EMPTY_CART"
	KindInvalidAddress     Kind = "INVALID_ADDRESS"
	KindProductUnavailable Kind = "PRODUCT_UNAVAILABLE"
	KindVariantUnavailable Kind = "VARIANT_UNAVAILABLE"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindConflict           Kind = "CONFLICT"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindInternal           Kind = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to the caller;
// Err is the underlying cause and is only logged.
type Error struct {
	Kind        Kind
	Message     string
	ProductID   string
	ProductName string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func OutOfStock(message string) *Error { return New(KindOutOfStock, message) }

func Conflict(message string) *Error { return New(KindConflict, message) }

func Internal(err error) *Error {
	return Wrap(KindInternal, "internal server error", err)
}

// InsufficientStock names the product whose live stock could not cover the
// requested quantity.
func InsufficientStock(message, productID, productName string) *Error {
	return &Error{
		Kind:        KindInsufficientStock,
		Message:     message,
		ProductID:   productID,
		ProductName: productName,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
// for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation,
		KindOutOfStock,
		KindInsufficientStock,
		KindEmptyCart,
		KindInvalidAddress,
		KindProductUnavailable,
		KindVariantUnavailable,
		KindInvalidTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
