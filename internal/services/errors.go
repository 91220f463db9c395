package services

import "errors"

// Operation errors. Each maps onto exactly one caller-visible outcome;
// handlers translate them to HTTP statuses and never let them escape.
var (
	// ErrValidation means a required input was missing.
	ErrValidation = errors.New("missing required input")

	// ErrDelivery means the verification mail could not be handed to the
	// notifier. The registration it belongs to has been rolled back.
	ErrDelivery = errors.New("verification mail delivery failed")

	// ErrAlreadyVerified means the user has already consumed a code.
	ErrAlreadyVerified = errors.New("user already verified")

	// ErrInvalidCode means the supplied code does not match the pending one.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotVerified means the credentials are good but the email is not
	// verified yet, so no token is issued.
	ErrNotVerified = errors.New("email not verified")
)
