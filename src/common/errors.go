package common

import "errors"

var (
	ErrInvalidRequest           = errors.New("invalid request")
	ErrResourcesUnavailable     = errors.New("requested resources unavailable")
	ErrHoldNotFound             = errors.New("hold not found")
	ErrForbidden                = errors.New("forbidden")
	ErrPaymentFailed            = errors.New("payment failed")
	ErrPersistenceInconsistency = errors.New("persistence inconsistency")
	ErrCorruptHold              = errors.New("corrupt hold entry")
)
