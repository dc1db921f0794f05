// Package ledger defines the sentinel failure conditions of the credit
// ledger core. Services return these (optionally wrapped) so transports and
// collaborators can translate them without string matching.
//
// Every condition aborts the whole call: no entry point leaves partial state
// behind. These are factual states of the ledger, not validation failures:
// for malformed external input use pkg/domain-errors directly.
package ledger

import "errors"

var (
	// ErrZeroIdentity: the null address was supplied where a real account
	// was required.
	ErrZeroIdentity = errors.New("zero identity")

	// ErrAlreadyHeld: the account already holds that exact role.
	ErrAlreadyHeld = errors.New("role already held")

	// ErrInsufficientCapability: the caller lacks the role required for the
	// attempted appointment or administrative action.
	ErrInsufficientCapability = errors.New("insufficient capability")

	// ErrInvalidAmount: mint batch size outside (0, ceiling].
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnknownRecipient: mint target does not hold the producer role.
	ErrUnknownRecipient = errors.New("recipient is not an approved producer")

	// ErrHashReused: the certification hash was already consumed by an
	// earlier mint.
	ErrHashReused = errors.New("certification hash already used")

	// ErrInvalidCertifierSignature: the signature is malformed or does not
	// recover to a city admin.
	ErrInvalidCertifierSignature = errors.New("invalid certifier signature")

	// ErrRetiredTransfer: transfer attempted on a retired credit.
	ErrRetiredTransfer = errors.New("credit is retired")

	// ErrAlreadyRetired: retire attempted on an already retired credit.
	ErrAlreadyRetired = errors.New("credit already retired")

	// ErrNotOwner: the caller does not own the credit.
	ErrNotOwner = errors.New("caller does not own credit")

	// ErrUnknownCredit: no credit exists with the given id.
	ErrUnknownCredit = errors.New("unknown credit")

	// ErrPaused: a state-changing call was attempted while the circuit
	// breaker is engaged.
	ErrPaused = errors.New("ledger is paused")
)
