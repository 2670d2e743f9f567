package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/repository"
)

// CallOutcome is the per-event result of the call validator.
type CallOutcome int

const (
	CallAccepted CallOutcome = iota
	CallReturned
	CallCheckImpossible
)

// CallValidator re-checks individual usage records of a structurally valid
// batch: record age against the retention policy and, when the partner's
// mode asks for it, the charged amount against the inter-operator tariff.
// Failures append severe returns to the run's builder instead of aborting
// the batch.
type CallValidator struct {
	repo   repository.ReferenceRepository
	logger *slog.Logger
}

func NewCallValidator(repo repository.ReferenceRepository, logger *slog.Logger) *CallValidator {
	return &CallValidator{
		repo:   repo,
		logger: logger.With("component", "call_validator"),
	}
}

// ValidateCall runs both sub-checks on one usage record. eventIndex is
// 0-based; occurrence indices in error contexts are 1-based.
func (v *CallValidator) ValidateCall(ctx context.Context, run *validationRun, eventIndex int, event *domain.CallEventDetail, mode domain.IOTMode) (CallOutcome, error) {
	if event.Kind() == domain.CallKindSupplService {
		// Counted in audit totals, not validated.
		return CallAccepted, nil
	}

	ref := run.callRef(eventIndex, event)
	outcome := CallAccepted

	ageRes, err := v.repo.CheckCallAge(ctx, ref)
	if err != nil {
		// Age policy is advisory: a broken oracle must not reject traffic.
		v.logger.WarnContext(ctx, "Call age check failed, skipping age policy",
			"file_sequence", ref.FileSequence, "event_index", eventIndex, "error", err)
		ageRes = domain.AgePolicyError
	}
	switch ageRes {
	case domain.AgeTooOld:
		if err := v.addSevere(ctx, run, eventIndex, event, domain.CodeCallOlderThanAllowed, nil); err != nil {
			return CallCheckImpossible, err
		}
		outcome = CallReturned
		rec := domain.ValidationRecord{
			Event:       ref,
			ResultCode:  domain.CodeCallOlderThanAllowed,
			Description: "call older than allowed by retention policy",
			RapSequence: run.builder.RapSequenceNumber(),
		}
		if err := v.repo.RecordValidationResult(ctx, rec); err != nil {
			v.logger.WarnContext(ctx, "Failed to record age validation result",
				"file_sequence", ref.FileSequence, "event_index", eventIndex, "error", err)
		}
	case domain.AgePolicyError:
		v.logger.WarnContext(ctx, "Age policy undeterminable for call, accepting",
			"file_sequence", ref.FileSequence, "event_index", eventIndex)
	}

	if mode == domain.IOTNotNeeded {
		return outcome, nil
	}

	verdict, err := v.repo.CheckTariff(ctx, ref)
	if err != nil {
		v.logger.ErrorContext(ctx, "Tariff check failed for call",
			"file_sequence", ref.FileSequence, "event_index", eventIndex, "error", err)
		return CallCheckImpossible, fmt.Errorf("tariff check for event %d: %w", eventIndex, err)
	}

	switch verdict.Code {
	case domain.TariffValid:
	case domain.TariffImpossible:
		v.logger.WarnContext(ctx, "Tariff oracle cannot rate call",
			"file_sequence", ref.FileSequence, "event_index", eventIndex, "description", verdict.Description)
		outcome = CallCheckImpossible
	case domain.TariffMismatch:
		v.logger.InfoContext(ctx, "Call charge disagrees with IOT",
			"file_sequence", ref.FileSequence, "event_index", eventIndex,
			"iot_mode", mode.String(), "description", verdict.Description)
		if mode == domain.IOTRapDropoutAlert {
			info := operatorSpecInfo(&verdict, run.decimals)
			if err := v.addSevere(ctx, run, eventIndex, event, domain.CodeChargeNotInRoamingAgreement, info); err != nil {
				return CallCheckImpossible, err
			}
			outcome = CallReturned
		}
	}

	resultCode := 0
	if verdict.Code != domain.TariffValid {
		resultCode = domain.CodeChargeNotInRoamingAgreement
	}
	rec := domain.ValidationRecord{
		Event:       ref,
		ResultCode:  resultCode,
		Description: verdict.Description,
		RapSequence: run.builder.RapSequenceNumber(),
	}
	if err := v.repo.RecordValidationResult(ctx, rec); err != nil {
		v.logger.WarnContext(ctx, "Failed to record tariff validation result",
			"file_sequence", ref.FileSequence, "event_index", eventIndex, "error", err)
	}

	return outcome, nil
}

// addSevere opens the builder if needed and appends one severe return
// carrying a deep copy of the offending event.
func (v *CallValidator) addSevere(ctx context.Context, run *validationRun, eventIndex int, event *domain.CallEventDetail, code int, operatorInfo []string) error {
	if err := run.builder.Open(ctx, run.headerSource()); err != nil {
		return err
	}
	path := BuildContextPath([]PathItem{
		{Section: domain.SectionTransferBatch},
		{Section: domain.SectionCallEventDetailList, Occurrence: eventIndex + 1},
		{Section: domain.SectionForCallKind(event.Kind())},
	})
	detail := domain.ReturnDetail{
		SevereReturn: &domain.SevereReturn{
			FileSequenceNumber: run.fileSequence,
			CallEventDetail:    event.Clone(),
			ErrorDetail:        []domain.ErrorDetail{{Code: code, Context: path}},
			OperatorSpecInfo:   operatorInfo,
		},
	}
	run.builder.Add(detail, event.TotalCharge())
	return nil
}

// operatorSpecInfo renders the free-text lines of an IOT severe return.
// TD.52 makes them mandatory for tariff errors; empty oracle fields are
// simply omitted.
func operatorSpecInfo(verdict *domain.TariffVerdict, batchDecimals int) []string {
	var info []string
	if verdict.ExpectedDate != "" {
		info = append(info, "Expected IOT date: "+verdict.ExpectedDate)
	}
	if verdict.ExpectedCharge != nil {
		charge := domain.RescaleCharge(*verdict.ExpectedCharge, verdict.ExpectedChargeDecimals, batchDecimals)
		info = append(info, fmt.Sprintf("Expected charge: %d", charge))
	}
	if verdict.Calculation != "" {
		info = append(info, "Calculation: "+verdict.Calculation)
	}
	return info
}
