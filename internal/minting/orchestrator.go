package minting

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"h2ledger/internal/credits"
	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
	"h2ledger/pkg/requestcontext"
)

var tracer = otel.Tracer("minting")

// Certifications verifies a certifier signature and reports the signing
// identity.
type Certifications interface {
	Verify(ctx context.Context, producer domain.Address, amount uint64, certHash domain.CertHash, signature []byte) (domain.Address, bool, error)
}

// CreditLedger is the slice of the credit ledger the orchestrator drives.
type CreditLedger interface {
	MintCertified(ctx context.Context, record credits.CertificationRecord, amount uint64) (first, last domain.CreditID, err error)
	HashConsumed(ctx context.Context, hash domain.CertHash) (bool, error)
	Paused() bool
	ValidateAmount(amount uint64) error
}

// RoleChecker is the orchestrator's view of the role registry.
type RoleChecker interface {
	HasRole(ctx context.Context, account domain.Address, role domain.Role) (bool, error)
}

// Orchestrator drives certified issuance: it gates a mint on the producer
// registration, the one-shot certification hash, and a valid city-admin
// signature, then hands off to the credit ledger.
type Orchestrator struct {
	certs   Certifications
	creds   CreditLedger
	roles   RoleChecker
	logger  *slog.Logger
	metrics *Metrics
}

func NewOrchestrator(certs Certifications, creds CreditLedger, roles RoleChecker, logger *slog.Logger, metrics *Metrics) *Orchestrator {
	return &Orchestrator{certs: certs, creds: creds, roles: roles, logger: logger, metrics: metrics}
}

// MintWithCertification validates the full issuance protocol and mints. The
// checks run in a fixed order so a request failing several at once reports a
// stable reason: pause, producer registration, amount bounds, hash freshness,
// signature. The hash freshness check here is advisory; the ledger consumes
// the hash atomically with the insert, so concurrent duplicates still resolve
// to exactly one mint.
func (o *Orchestrator) MintWithCertification(ctx context.Context, producer domain.Address, amount uint64, certHash domain.CertHash, signature []byte, metadata string) (first, last domain.CreditID, err error) {
	ctx, span := tracer.Start(ctx, "Minting.MintWithCertification")
	defer span.End()
	span.SetAttributes(
		attribute.String("producer", producer.String()),
		attribute.Int64("amount", int64(amount)),
	)

	if producer.IsZero() {
		return 0, 0, ledger.ErrZeroIdentity
	}
	if o.creds.Paused() {
		o.metrics.IncRejected("paused")
		return 0, 0, ledger.ErrPaused
	}
	registered, err := o.roles.HasRole(ctx, producer, domain.RoleProducer)
	if err != nil {
		span.RecordError(err)
		return 0, 0, err
	}
	if !registered {
		o.metrics.IncRejected("unknown_recipient")
		return 0, 0, ledger.ErrUnknownRecipient
	}
	if err := o.creds.ValidateAmount(amount); err != nil {
		o.metrics.IncRejected("invalid_amount")
		return 0, 0, err
	}
	consumed, err := o.creds.HashConsumed(ctx, certHash)
	if err != nil {
		span.RecordError(err)
		return 0, 0, err
	}
	if consumed {
		o.metrics.IncRejected("hash_reused")
		return 0, 0, ledger.ErrHashReused
	}
	certifier, valid, err := o.certs.Verify(ctx, producer, amount, certHash, signature)
	if err != nil {
		span.RecordError(err)
		return 0, 0, err
	}
	if !valid {
		o.metrics.IncRejected("invalid_signature")
		o.logger.WarnContext(ctx, "certification rejected",
			"producer", producer.String(),
			"recovered_signer", certifier.String(),
		)
		return 0, 0, ledger.ErrInvalidCertifierSignature
	}

	first, last, err = o.creds.MintCertified(ctx, credits.CertificationRecord{
		Producer:  producer,
		Certifier: certifier,
		CertHash:  certHash,
		Metadata:  metadata,
		CreatedAt: requestcontext.Now(ctx),
	}, amount)
	if err != nil {
		span.RecordError(err)
		return 0, 0, err
	}
	o.metrics.IncMinted()
	return first, last, nil
}
