package repository

import (
	"context"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
)

// ReferenceRepository is the reference/business service behind validation:
// partner resolution, duplicate control, RAP sequence issuance, tariff and
// age oracles, and the validation audit log. Implementations must make
// duplicate checks and sequence issuance linearizable per partner.
type ReferenceRepository interface {
	// ResolvePartner maps a TAP sender code to a partner identity.
	// Returns domain.ErrPartnerNotFound when the code is unknown.
	ResolvePartner(ctx context.Context, senderCode string) (domain.PartnerID, error)

	// InboundPolicy reports whether files from the partner are currently
	// accepted.
	InboundPolicy(ctx context.Context, partner domain.PartnerID, availableAt *domain.Timestamp) (domain.InboundPolicy, error)

	// CheckDuplicate classifies the file against processed history and
	// records it as seen.
	CheckDuplicate(ctx context.Context, identity domain.FileIdentity, fp domain.ContentFingerprint) (domain.DuplicateResult, error)

	// IssueReturnHeader allocates the next RAP sequence number and filename
	// for the partner and returns the header constants of this installation.
	IssueReturnHeader(ctx context.Context, partner domain.PartnerID, availableAt *domain.Timestamp, isTest bool) (domain.ReturnHeader, error)

	// ValidateExchangeRate checks one applied conversion rate against the
	// agreed tariff rate for the currency at the call timestamp.
	ValidateExchangeRate(ctx context.Context, partner domain.PartnerID, currency string, callStamp string, rate float64) (domain.ExchangeRateResult, error)

	// CheckCallAge applies the retention policy to one call event.
	CheckCallAge(ctx context.Context, event domain.CallRef) (domain.CallAgeResult, error)

	// IOTMode returns the partner's tariff validation mode.
	IOTMode(ctx context.Context, partner domain.PartnerID) (domain.IOTMode, error)

	// CheckTariff re-rates one call event against the inter-operator tariff.
	CheckTariff(ctx context.Context, event domain.CallRef) (domain.TariffVerdict, error)

	// RecordValidationResult appends one row to the validation audit log.
	RecordValidationResult(ctx context.Context, rec domain.ValidationRecord) error
}
