package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/repository"
)

// PgReferenceRepository backs the validator with the roaming reference
// schema: roaming_partner, tap_file, rap_file and validation_log, plus the
// SQL functions that keep duplicate checks and sequence issuance
// linearizable per partner.
type PgReferenceRepository struct {
	db           *pgxpool.Pool
	logger       *slog.Logger
	roamingHubID int64
}

func NewPgReferenceRepository(db *pgxpool.Pool, logger *slog.Logger, roamingHubID int64) repository.ReferenceRepository {
	return &PgReferenceRepository{
		db:           db,
		logger:       logger.With("component", "reference_repository_pg"),
		roamingHubID: roamingHubID,
	}
}

func (r *PgReferenceRepository) ResolvePartner(ctx context.Context, senderCode string) (domain.PartnerID, error) {
	query := `SELECT id FROM roaming_partner WHERE tap_code = $1`
	r.logger.DebugContext(ctx, "Resolving partner by TAP code", "sender_code", senderCode)

	var id int64
	err := r.db.QueryRow(ctx, query, senderCode).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", domain.ErrPartnerNotFound, senderCode)
		}
		r.logger.ErrorContext(ctx, "Error resolving partner", "sender_code", senderCode, "error", err)
		return 0, fmt.Errorf("resolving partner %s: %w", senderCode, err)
	}
	return domain.PartnerID(id), nil
}

func (r *PgReferenceRepository) InboundPolicy(ctx context.Context, partner domain.PartnerID, availableAt *domain.Timestamp) (domain.InboundPolicy, error) {
	// A partner row may carry an inbound block window; a file whose
	// availability timestamp falls inside it is denied.
	query := `SELECT inbound_allowed($1, $2)`
	var stamp string
	if availableAt != nil {
		stamp = availableAt.LocalTimeStamp
	}
	r.logger.DebugContext(ctx, "Checking inbound policy", "partner_id", partner, "available_at", stamp)

	var allowed bool
	err := r.db.QueryRow(ctx, query, int64(partner), stamp).Scan(&allowed)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error checking inbound policy", "partner_id", partner, "error", err)
		return domain.InboundUnknown, fmt.Errorf("checking inbound policy for partner %d: %w", partner, err)
	}
	if allowed {
		return domain.InboundAllowed, nil
	}
	return domain.InboundDenied, nil
}

func (r *PgReferenceRepository) CheckDuplicate(ctx context.Context, identity domain.FileIdentity, fp domain.ContentFingerprint) (domain.DuplicateResult, error) {
	// check_tap_duplicate inserts the file row when unseen and classifies
	// it atomically, so two concurrent submissions of one file cannot both
	// come back as new.
	query := `SELECT check_tap_duplicate($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	var stamp string
	if identity.AvailableAt != nil {
		stamp = identity.AvailableAt.LocalTimeStamp
	}
	r.logger.DebugContext(ctx, "Running duplicate control",
		"sender", identity.Sender, "sequence", identity.SequenceNumber, "notification", identity.IsNotification)

	var verdict int
	err := r.db.QueryRow(ctx, query,
		identity.Sender,
		identity.Recipient,
		r.roamingHubID,
		identity.SequenceNumber,
		identity.FileTypeIndicator,
		identity.PriorRapSequence,
		identity.IsNotification,
		stamp,
		fp.EventCount,
		fp.TotalCharge,
	).Scan(&verdict)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error running duplicate control", "sequence", identity.SequenceNumber, "error", err)
		return domain.DuplicateCheckUnknown, fmt.Errorf("duplicate control for sequence %s: %w", identity.SequenceNumber, err)
	}

	switch verdict {
	case 0:
		return domain.NotDuplicate, nil
	case 1:
		return domain.ExactCopyAlreadyProcessed, nil
	case 2:
		return domain.SequenceReusedDifferentContent, nil
	default:
		return domain.DuplicateCheckUnknown, fmt.Errorf("duplicate control returned unknown verdict %d", verdict)
	}
}

func (r *PgReferenceRepository) IssueReturnHeader(ctx context.Context, partner domain.PartnerID, availableAt *domain.Timestamp, isTest bool) (domain.ReturnHeader, error) {
	// create_rap_file advances the per-partner RAP sequence and registers
	// the new file in one transaction.
	query := `SELECT file_id, filename, sequence_number, hub_name, creation_stamp, utc_offset,
	                 tap_version, tap_release, rap_version, rap_release, tap_decimal_places
	          FROM create_rap_file($1, $2, $3)`
	var stamp string
	if availableAt != nil {
		stamp = availableAt.LocalTimeStamp
	}
	r.logger.DebugContext(ctx, "Issuing RAP header", "partner_id", partner, "test_file", isTest)

	var h domain.ReturnHeader
	err := r.db.QueryRow(ctx, query, int64(partner), stamp, isTest).Scan(
		&h.FileID,
		&h.Filename,
		&h.SequenceNumber,
		&h.RoamingHubName,
		&h.CreationStamp,
		&h.UtcOffset,
		&h.TapSpecificationVersion,
		&h.TapReleaseVersion,
		&h.RapSpecificationVersion,
		&h.RapReleaseVersion,
		&h.TapDecimalPlaces,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error issuing RAP header", "partner_id", partner, "error", err)
		return domain.ReturnHeader{}, fmt.Errorf("issuing RAP header for partner %d: %w", partner, err)
	}
	return h, nil
}

func (r *PgReferenceRepository) ValidateExchangeRate(ctx context.Context, partner domain.PartnerID, currency string, callStamp string, rate float64) (domain.ExchangeRateResult, error) {
	query := `SELECT validate_exchange_rate($1, $2, $3, $4)`
	r.logger.DebugContext(ctx, "Validating exchange rate",
		"partner_id", partner, "currency", currency, "call_stamp", callStamp, "rate", rate)

	var verdict int
	err := r.db.QueryRow(ctx, query, int64(partner), currency, callStamp, rate).Scan(&verdict)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error validating exchange rate", "partner_id", partner, "currency", currency, "error", err)
		return domain.ExRateNotSet, fmt.Errorf("validating exchange rate for partner %d: %w", partner, err)
	}

	switch verdict {
	case 0:
		return domain.ExRateValid, nil
	case -100:
		return domain.ExRateWrongCode, nil
	case -200:
		return domain.ExRateCurrencyNotFound, nil
	case -205:
		return domain.ExRateCurrencyMismatch, nil
	case -207:
		return domain.ExRateNotSet, nil
	case -210:
		return domain.ExRateHigher, nil
	case -220:
		return domain.ExRateLower, nil
	default:
		return domain.ExRateNotSet, fmt.Errorf("exchange rate check returned unknown verdict %d", verdict)
	}
}

func (r *PgReferenceRepository) CheckCallAge(ctx context.Context, event domain.CallRef) (domain.CallAgeResult, error) {
	query := `SELECT check_call_age($1, $2, $3, $4)`
	r.logger.DebugContext(ctx, "Checking call age",
		"partner_id", event.Partner, "file_sequence", event.FileSequence, "event_index", event.EventIndex)

	var tooOld bool
	err := r.db.QueryRow(ctx, query, int64(event.Partner), event.Kind.String(), event.StartTimeStamp, event.UtcOffset).Scan(&tooOld)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error checking call age", "partner_id", event.Partner, "error", err)
		return domain.AgePolicyError, fmt.Errorf("checking call age for partner %d: %w", event.Partner, err)
	}
	if tooOld {
		return domain.AgeTooOld, nil
	}
	return domain.AgeValid, nil
}

func (r *PgReferenceRepository) IOTMode(ctx context.Context, partner domain.PartnerID) (domain.IOTMode, error) {
	query := `SELECT iot_validation_mode FROM roaming_partner WHERE id = $1`
	r.logger.DebugContext(ctx, "Reading IOT validation mode", "partner_id", partner)

	var mode int
	err := r.db.QueryRow(ctx, query, int64(partner)).Scan(&mode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.IOTNotNeeded, fmt.Errorf("%w: partner %d", domain.ErrPartnerNotFound, partner)
		}
		r.logger.ErrorContext(ctx, "Error reading IOT validation mode", "partner_id", partner, "error", err)
		return domain.IOTNotNeeded, fmt.Errorf("reading IOT mode for partner %d: %w", partner, err)
	}
	if mode < int(domain.IOTNotNeeded) || mode > int(domain.IOTRapDropoutAlert) {
		return domain.IOTNotNeeded, fmt.Errorf("unknown IOT validation mode %d for partner %d", mode, partner)
	}
	return domain.IOTMode(mode), nil
}

func (r *PgReferenceRepository) CheckTariff(ctx context.Context, event domain.CallRef) (domain.TariffVerdict, error) {
	query := `SELECT code, description, expected_date, expected_charge, expected_charge_decimals, calculation
	          FROM check_iot_tariff($1, $2, $3, $4, $5, $6)`
	r.logger.DebugContext(ctx, "Re-rating call against IOT",
		"partner_id", event.Partner, "file_sequence", event.FileSequence, "event_index", event.EventIndex, "charge", event.Charge)

	var v domain.TariffVerdict
	var code int
	err := r.db.QueryRow(ctx, query,
		int64(event.Partner), event.Kind.String(), event.IMSI, event.StartTimeStamp, event.UtcOffset, event.Charge,
	).Scan(&code, &v.Description, &v.ExpectedDate, &v.ExpectedCharge, &v.ExpectedChargeDecimals, &v.Calculation)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error re-rating call", "partner_id", event.Partner, "error", err)
		return domain.TariffVerdict{}, fmt.Errorf("re-rating call for partner %d: %w", event.Partner, err)
	}

	switch code {
	case 0:
		v.Code = domain.TariffValid
	case 1:
		v.Code = domain.TariffMismatch
	default:
		v.Code = domain.TariffImpossible
	}
	return v, nil
}

func (r *PgReferenceRepository) RecordValidationResult(ctx context.Context, rec domain.ValidationRecord) error {
	query := `INSERT INTO validation_log
	            (partner_id, file_sequence, event_index, call_kind, result_code, description, rap_sequence, logged_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), now())`
	_, err := r.db.Exec(ctx, query,
		int64(rec.Event.Partner),
		rec.Event.FileSequence,
		rec.Event.EventIndex,
		rec.Event.Kind.String(),
		rec.ResultCode,
		rec.Description,
		rec.RapSequence,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error writing validation log row",
			"partner_id", rec.Event.Partner, "file_sequence", rec.Event.FileSequence, "error", err)
		return fmt.Errorf("writing validation log row: %w", err)
	}
	return nil
}
