package models

import "errors"

// Machine-readable error codes surfaced in Response.Code.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeSignatureMismatch = "SIGNATURE_MISMATCH"
	CodeAlreadyProcessed  = "ALREADY_PROCESSED"
	CodeGatewayError      = "GATEWAY_ERROR"
	CodeOrderExpired      = "ORDER_EXPIRED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// Sentinel errors returned by repositories and services. Controllers map
// them to HTTP statuses and codes; anything else becomes a generic 500.
var (
	ErrInvalidAmount             = errors.New("amount must be greater than zero")
	ErrInvalidCommissionRate     = errors.New("commission rate must be between 0 and 1")
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderExpired              = errors.New("order has expired")
	ErrAlreadyProcessed          = errors.New("order already processed with different payment identifiers")
	ErrInvalidSignature          = errors.New("payment signature verification failed")
	ErrAffiliateNotFound         = errors.New("affiliate not found")
	ErrEbookNotFound             = errors.New("ebook not found")
	ErrUserNotFound              = errors.New("user not found")
	ErrCommissionAlreadyCredited = errors.New("commission already credited for this order")
	ErrOrderNotRefundable        = errors.New("only paid orders can be refunded")
	ErrGatewayUnavailable        = errors.New("payment gateway unavailable")
	ErrDuplicateEmail            = errors.New("email already registered")
)
