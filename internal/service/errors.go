package service

import "errors"

// Workflow failure taxonomy. Handlers translate these with errors.Is;
// anything not listed here surfaces as an internal error.
var (
	// ErrValidation marks malformed or missing caller input.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a referenced medicine, request, or user that
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an ownership mismatch (e.g. a donor touching
	// another donor's lot).
	ErrForbidden = errors.New("forbidden")

	// ErrSelfRequest marks a recipient requesting their own donation.
	ErrSelfRequest = errors.New("cannot request your own medicine")

	// ErrDuplicateRequest marks a second active request for the same
	// (medicine, recipient) pair.
	ErrDuplicateRequest = errors.New("request already exists for this medicine")

	// ErrNotAvailable marks a lot that is not in the state an operation
	// expects, including losing the claim race: the conditional update
	// found the status already changed. Never retried.
	ErrNotAvailable = errors.New("medicine is not available")

	// ErrAlreadyProcessed marks approve/reject on a request that left
	// the PENDING state.
	ErrAlreadyProcessed = errors.New("request already processed")
)
