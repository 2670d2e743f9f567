package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/adapters/codec"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/adapters/transport"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/repository"
)

// Outcome is the terminal result of validating one file. Outcomes are
// mutually exclusive per file.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeFatalInvalid
	OutcomeHasSevereEntries
	OutcomeFileDuplicate
	OutcomeValidationImpossible
	OutcomeWrongAddressee
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeFatalInvalid:
		return "fatal_invalid"
	case OutcomeHasSevereEntries:
		return "has_severe_entries"
	case OutcomeFileDuplicate:
		return "file_duplicate"
	case OutcomeValidationImpossible:
		return "validation_impossible"
	case OutcomeWrongAddressee:
		return "wrong_addressee"
	default:
		return "unknown"
	}
}

// ValidationService runs the precedence-ordered checks of TD.57 over one
// decoded interchange record and emits a RAP counter-file when anything
// fails. Runs share nothing but the reference database; files may be
// validated concurrently by independent calls.
type ValidationService struct {
	repo     repository.ReferenceRepository
	calls    *CallValidator
	encoder  codec.ReturnBatchEncoder
	writer   transport.Writer
	uploader transport.Uploader
	logger   *slog.Logger
	metrics  *Metrics

	ourTAPCode   string
	roamingHubID int64
	rapOutputDir string
}

func NewValidationService(
	repo repository.ReferenceRepository,
	encoder codec.ReturnBatchEncoder,
	writer transport.Writer,
	uploader transport.Uploader,
	logger *slog.Logger,
	metrics *Metrics,
	ourTAPCode string,
	roamingHubID int64,
	rapOutputDir string,
) *ValidationService {
	return &ValidationService{
		repo:         repo,
		calls:        NewCallValidator(repo, logger),
		encoder:      encoder,
		writer:       writer,
		uploader:     uploader,
		logger:       logger.With("component", "validation_service"),
		metrics:      metrics,
		ourTAPCode:   ourTAPCode,
		roamingHubID: roamingHubID,
		rapOutputDir: rapOutputDir,
	}
}

// validationRun is the per-file state threaded through every check. One
// run per file, never shared.
type validationRun struct {
	runID        uuid.UUID
	batch        *domain.TransferBatch
	partner      domain.PartnerID
	builder      *ReturnBatchBuilder
	header       HeaderSource
	fileSequence string
	decimals     int
}

func (r *validationRun) headerSource() HeaderSource {
	return r.header
}

// callRef assembles the oracle/audit-log identity of one call event.
func (r *validationRun) callRef(eventIndex int, event *domain.CallEventDetail) domain.CallRef {
	ref := domain.CallRef{
		Partner:      r.partner,
		FileSequence: r.fileSequence,
		EventIndex:   eventIndex,
		Kind:         event.Kind(),
		Charge:       event.TotalCharge(),
	}
	if imsi := eventIMSI(event); imsi != "" {
		ref.IMSI = imsi
	}
	if ts := event.StartTimeStamp(); ts != nil {
		ref.StartTimeStamp = ts.LocalTimeStamp
		if offset, err := r.batch.UtcOffsetByCode(ts.UtcTimeOffsetCode); err == nil {
			ref.UtcOffset = offset
		}
	}
	return ref
}

func eventIMSI(event *domain.CallEventDetail) string {
	switch {
	case event.MobileOriginatedCall != nil && event.MobileOriginatedCall.BasicCallInformation != nil &&
		event.MobileOriginatedCall.BasicCallInformation.ChargeableSubscriber != nil:
		return event.MobileOriginatedCall.BasicCallInformation.ChargeableSubscriber.IMSI
	case event.MobileTerminatedCall != nil && event.MobileTerminatedCall.BasicCallInformation != nil &&
		event.MobileTerminatedCall.BasicCallInformation.ChargeableSubscriber != nil:
		return event.MobileTerminatedCall.BasicCallInformation.ChargeableSubscriber.IMSI
	case event.GprsCall != nil && event.GprsCall.GprsBasicCallInformation != nil &&
		event.GprsCall.GprsBasicCallInformation.GprsChargeableSubscriber != nil &&
		event.GprsCall.GprsBasicCallInformation.GprsChargeableSubscriber.ChargeableSubscriber != nil:
		return event.GprsCall.GprsBasicCallInformation.GprsChargeableSubscriber.ChargeableSubscriber.IMSI
	}
	return ""
}

// Validate runs one decoded record to a terminal outcome. Reference
// service failures downgrade to ValidationImpossible; only flush-stage
// faults (encode/write/upload) surface as errors alongside the outcome.
func (s *ValidationService) Validate(ctx context.Context, record *domain.DataInterchange) (Outcome, error) {
	runID := uuid.New()
	logger := s.logger.With("run_id", runID.String())

	var outcome Outcome
	var err error
	switch {
	case record == nil:
		return OutcomeValidationImpossible, errors.New("nil interchange record")
	case record.IsNotification():
		outcome, err = s.validateNotification(ctx, logger, runID, record.Notification)
	case record.TransferBatch != nil:
		outcome, err = s.validateTransferBatch(ctx, logger, runID, record.TransferBatch)
	default:
		logger.Error("Interchange record carries neither transfer batch nor notification")
		outcome = OutcomeValidationImpossible
	}

	if s.metrics != nil {
		s.metrics.FilesValidated.WithLabelValues(outcome.String()).Inc()
	}
	logger.Info("Validation finished", "outcome", outcome.String())
	return outcome, err
}

func (s *ValidationService) validateTransferBatch(ctx context.Context, logger *slog.Logger, runID uuid.UUID, batch *domain.TransferBatch) (Outcome, error) {
	bci := batch.BatchControlInfo
	if bci == nil {
		// Without sender/recipient/sequence there is no safe way to build
		// a counter-file.
		logger.Error("Batch control info missing, cannot validate or build RAP")
		return OutcomeValidationImpossible, nil
	}
	if bci.Sender == nil || *bci.Sender == "" || bci.Recipient == nil || *bci.Recipient == "" ||
		bci.FileSequenceNumber == nil || *bci.FileSequenceNumber == "" {
		logger.Error("Sender, recipient or file sequence number missing in batch control info")
		return OutcomeValidationImpossible, nil
	}
	logger = logger.With("sender", *bci.Sender, "file_sequence", *bci.FileSequenceNumber)

	if *bci.Recipient != s.ourTAPCode {
		logger.Warn("File is not addressed to this network", "recipient", *bci.Recipient, "our_code", s.ourTAPCode)
		return OutcomeWrongAddressee, nil
	}

	partner, err := s.repo.ResolvePartner(ctx, *bci.Sender)
	if err != nil {
		if errors.Is(err, domain.ErrPartnerNotFound) {
			logger.Error("Sender code does not resolve to a roaming partner")
		} else {
			logger.Error("Partner resolution failed", "error", err)
		}
		return OutcomeValidationImpossible, nil
	}

	if !bci.IsTestFile() {
		policy, err := s.repo.InboundPolicy(ctx, partner, bci.FileAvailableTimeStamp)
		if err != nil || policy != domain.InboundAllowed {
			logger.Warn("Inbound files not currently accepted from partner", "partner_id", partner, "error", err)
			return OutcomeValidationImpossible, nil
		}
	}

	run := &validationRun{
		runID:        runID,
		batch:        batch,
		partner:      partner,
		builder:      NewReturnBatchBuilder(s.repo, logger, partner),
		fileSequence: *bci.FileSequenceNumber,
		header: HeaderSource{
			Sender:            *bci.Sender,
			Recipient:         *bci.Recipient,
			AvailableAt:       bci.FileAvailableTimeStamp,
			SpecVersion:       bci.SpecificationVersionNumber,
			ReleaseVersion:    bci.ReleaseVersionNumber,
			FileTypeIndicator: bci.FileTypeIndicator,
		},
	}
	if batch.AccountingInfo != nil && batch.AccountingInfo.TapDecimalPlaces != nil {
		run.decimals = *batch.AccountingInfo.TapDecimalPlaces
	}

	// Mandatory top sections. Absence rejects the whole file with a
	// context path of the batch root only.
	topLevel := []PathItem{{Section: domain.SectionTransferBatch}}
	switch {
	case batch.AccountingInfo == nil:
		return s.fatal(ctx, logger, run, domain.SectionTransferBatch, domain.CodeAccountingInfoMissing, topLevel,
			"Accounting info missing in transfer batch")
	case batch.NetworkInfo == nil:
		return s.fatal(ctx, logger, run, domain.SectionTransferBatch, domain.CodeNetworkInfoMissing, topLevel,
			"Network info missing in transfer batch")
	case len(batch.CallEventDetails) == 0:
		return s.fatal(ctx, logger, run, domain.SectionTransferBatch, domain.CodeCallEventsMissing, topLevel,
			"Call event details missing in transfer batch")
	case batch.AuditControlInfo == nil:
		return s.fatal(ctx, logger, run, domain.SectionTransferBatch, domain.CodeAuditControlInfoMissing, topLevel,
			"Audit control info missing in transfer batch")
	}

	// Batch control info optional-but-required fields.
	bciPath := []PathItem{{Section: domain.SectionTransferBatch}, {Section: domain.SectionBatchControlInfo}}
	switch {
	case bci.FileAvailableTimeStamp == nil:
		return s.fatal(ctx, logger, run, domain.SectionBatchControlInfo, domain.CodeFileAvailTimestampMissing,
			append(bciPath, PathItem{Section: domain.SectionFileAvailableTimeStamp}),
			"File available timestamp missing in batch control info")
	case bci.SpecificationVersionNumber == nil:
		return s.fatal(ctx, logger, run, domain.SectionBatchControlInfo, domain.CodeSpecVersionMissing,
			append(bciPath, PathItem{Section: domain.SectionSpecificationVersionNumber}),
			"Specification version number missing in batch control info")
	case bci.TransferCutOffTimeStamp == nil:
		return s.fatal(ctx, logger, run, domain.SectionBatchControlInfo, domain.CodeTransferCutoffMissing,
			append(bciPath, PathItem{Section: domain.SectionTransferCutOffTimeStamp}),
			"Transfer cutoff timestamp missing in batch control info")
	}

	seqPath := append(bciPath, PathItem{Section: domain.SectionFileSequenceNumber})
	if _, err := domain.ParseSequenceNumber(*bci.FileSequenceNumber); err != nil {
		code := domain.CodeSeqNumSyntax
		if errors.Is(err, domain.ErrSequenceRange) {
			code = domain.CodeSeqNumOutOfRange
		}
		return s.fatal(ctx, logger, run, domain.SectionBatchControlInfo, code, seqPath,
			"File sequence number invalid: "+err.Error())
	}

	// Duplicate and sequence control.
	dup, err := s.checkDuplicate(ctx, run, bci, false)
	if err != nil {
		logger.Error("Duplicate control failed", "error", err)
		return OutcomeValidationImpossible, nil
	}
	switch dup {
	case domain.ExactCopyAlreadyProcessed:
		logger.Info("File already fully processed, skipping")
		return OutcomeFileDuplicate, nil
	case domain.SequenceReusedDifferentContent:
		return s.fatal(ctx, logger, run, domain.SectionBatchControlInfo, domain.CodeSeqNumDuplication, seqPath,
			"File sequence number reused with different content")
	}

	if outcome, done, err := s.validateAccountingInfo(ctx, logger, run); done {
		return outcome, err
	}
	if outcome, done, err := s.validateNetworkInfo(ctx, logger, run); done {
		return outcome, err
	}
	if outcome, done, err := s.validateAuditControlInfo(ctx, logger, run); done {
		return outcome, err
	}

	return s.validateCallEvents(ctx, logger, run)
}

// fatal opens the builder, adds one fatal return and flushes the RAP
// file. Terminal for the whole file.
func (s *ValidationService) fatal(ctx context.Context, logger *slog.Logger, run *validationRun, section domain.SectionKind, code int, path []PathItem, msg string) (Outcome, error) {
	logger.Error(msg, "error_code", code)

	if err := run.builder.Open(ctx, run.headerSource()); err != nil {
		logger.Error("Cannot open return batch for fatal error", "error", err)
		return OutcomeValidationImpossible, nil
	}
	detail := domain.ReturnDetail{
		FatalReturn: &domain.FatalReturn{
			FileSequenceNumber: run.fileSequence,
			ErrorBlock: domain.ErrorBlock{
				Section:     section,
				ErrorDetail: []domain.ErrorDetail{{Code: code, Context: BuildContextPath(path)}},
			},
		},
	}
	run.builder.Add(detail, 0)

	if err := s.flush(ctx, logger, run); err != nil {
		return OutcomeFatalInvalid, err
	}
	return OutcomeFatalInvalid, nil
}

func (s *ValidationService) checkDuplicate(ctx context.Context, run *validationRun, bci *domain.BatchControlInfo, isNotification bool) (domain.DuplicateResult, error) {
	identity := domain.FileIdentity{
		Sender:         *bci.Sender,
		Recipient:      *bci.Recipient,
		RoamingHubID:   s.roamingHubID,
		SequenceNumber: *bci.FileSequenceNumber,
		IsNotification: isNotification,
		AvailableAt:    bci.FileAvailableTimeStamp,
	}
	if bci.FileTypeIndicator != nil {
		identity.FileTypeIndicator = *bci.FileTypeIndicator
	}
	var fp domain.ContentFingerprint
	if !isNotification {
		fp = domain.ContentFingerprint{
			EventCount:  run.batch.EventCount(),
			TotalCharge: run.batch.TotalCharge(),
		}
		identity.PriorRapSequence = priorRapSequence(run.batch)
	}
	return s.repo.CheckDuplicate(ctx, identity, fp)
}

// priorRapSequence picks up the RAP sequence reference a previously
// returned event carries when the file is a corrected resubmission.
func priorRapSequence(batch *domain.TransferBatch) string {
	for i := range batch.CallEventDetails {
		e := &batch.CallEventDetails[i]
		switch {
		case e.MobileOriginatedCall != nil && e.MobileOriginatedCall.BasicCallInformation != nil &&
			e.MobileOriginatedCall.BasicCallInformation.RapFileSequenceNumber != nil:
			return *e.MobileOriginatedCall.BasicCallInformation.RapFileSequenceNumber
		case e.MobileTerminatedCall != nil && e.MobileTerminatedCall.BasicCallInformation != nil &&
			e.MobileTerminatedCall.BasicCallInformation.RapFileSequenceNumber != nil:
			return *e.MobileTerminatedCall.BasicCallInformation.RapFileSequenceNumber
		case e.GprsCall != nil && e.GprsCall.GprsBasicCallInformation != nil &&
			e.GprsCall.GprsBasicCallInformation.RapFileSequenceNumber != nil:
			return *e.GprsCall.GprsBasicCallInformation.RapFileSequenceNumber
		}
	}
	return ""
}

// validateAccountingInfo runs the accounting section checks. done=true
// means the returned outcome is terminal.
func (s *ValidationService) validateAccountingInfo(ctx context.Context, logger *slog.Logger, run *validationRun) (Outcome, bool, error) {
	acc := run.batch.AccountingInfo
	accPath := []PathItem{{Section: domain.SectionTransferBatch}, {Section: domain.SectionAccountingInfo}}

	terminal := func(o Outcome, err error) (Outcome, bool, error) { return o, true, err }

	if acc.LocalCurrency == nil || *acc.LocalCurrency == "" {
		o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeLocalCurrencyMissing,
			append(accPath, PathItem{Section: domain.SectionLocalCurrency}),
			"Local currency missing in accounting info")
		return terminal(o, err)
	}
	if acc.TapDecimalPlaces == nil {
		o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeTapDecimalPlacesMissing,
			append(accPath, PathItem{Section: domain.SectionTapDecimalPlaces}),
			"TAP decimal places missing in accounting info")
		return terminal(o, err)
	}
	if err := domain.ValidateDecimalPlaces(*acc.TapDecimalPlaces); err != nil {
		o, ferr := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeTapDecimalsOutOfRange,
			append(accPath, PathItem{Section: domain.SectionTapDecimalPlaces}),
			"TAP decimal places out of range")
		return terminal(o, ferr)
	}

	if run.batch.ContainsTaxes() && len(acc.Taxation) == 0 {
		o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeTaxationMissing,
			append(accPath, PathItem{Section: domain.SectionTaxation}),
			"Taxation table missing while call events carry taxes")
		return terminal(o, err)
	}
	if run.batch.ContainsDiscounts() && len(acc.Discounting) == 0 {
		o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeDiscountingMissing,
			append(accPath, PathItem{Section: domain.SectionDiscounting}),
			"Discounting table missing while call events carry discounts")
		return terminal(o, err)
	}
	hasPositive := run.batch.ContainsPositiveCharges()
	if hasPositive && len(acc.CurrencyConversion) == 0 {
		o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeCurrencyConversionMissing,
			append(accPath, PathItem{Section: domain.SectionCurrencyConversion}),
			"Currency conversion table missing while call events carry positive charges")
		return terminal(o, err)
	}

	seenRates := make(map[int]bool, len(acc.CurrencyConversion))
	for i := range acc.CurrencyConversion {
		cc := &acc.CurrencyConversion[i]
		entryPath := append(accPath, PathItem{Section: domain.SectionCurrencyConversion, Occurrence: i + 1})
		switch {
		case cc.ExchangeRateCode == nil:
			o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeExRateCodeMissing,
				append(entryPath, PathItem{Section: domain.SectionExchangeRateCode}),
				"Exchange rate code missing in currency conversion entry")
			return terminal(o, err)
		case cc.NumberOfDecimalPlaces == nil:
			o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeNumDecPlacesMissing,
				append(entryPath, PathItem{Section: domain.SectionNumberOfDecimalPlaces}),
				"Number of decimal places missing in currency conversion entry")
			return terminal(o, err)
		case cc.ExchangeRate == nil:
			o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeExchangeRateMissing,
				append(entryPath, PathItem{Section: domain.SectionExchangeRate}),
				"Exchange rate missing in currency conversion entry")
			return terminal(o, err)
		case seenRates[*cc.ExchangeRateCode]:
			o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeExRateCodeDuplication,
				append(entryPath, PathItem{Section: domain.SectionExchangeRateCode}),
				"Duplicated exchange rate code in currency conversion table")
			return terminal(o, err)
		}
		seenRates[*cc.ExchangeRateCode] = true
	}

	seenTaxes := make(map[int]bool, len(acc.Taxation))
	for i := range acc.Taxation {
		tx := &acc.Taxation[i]
		entryPath := append(accPath, PathItem{Section: domain.SectionTaxation, Occurrence: i + 1})
		switch {
		case tx.TaxCode == nil:
			o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeTaxCodeMissing,
				append(entryPath, PathItem{Section: domain.SectionTaxCode}),
				"Tax code missing in taxation entry")
			return terminal(o, err)
		case tx.TaxType == nil || *tx.TaxType == "":
			o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeTaxTypeMissing,
				append(entryPath, PathItem{Section: domain.SectionTaxType}),
				"Tax type missing in taxation entry")
			return terminal(o, err)
		case seenTaxes[*tx.TaxCode]:
			o, err := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeTaxCodeDuplication,
				append(entryPath, PathItem{Section: domain.SectionTaxCode}),
				"Duplicated tax code in taxation table")
			return terminal(o, err)
		}
		seenTaxes[*tx.TaxCode] = true

		if tx.TaxRate != nil {
			if _, err := domain.ParseTaxRate(*tx.TaxRate); err != nil {
				code := domain.CodeTaxRateSyntax
				if errors.Is(err, domain.ErrTaxRateRange) {
					code = domain.CodeTaxRateOutOfRange
				}
				o, ferr := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, code,
					append(entryPath, PathItem{Section: domain.SectionTaxRate}),
					"Tax rate invalid: "+err.Error())
				return terminal(o, ferr)
			}
		}
	}

	if hasPositive {
		if o, done, err := s.validateAppliedExchangeRates(ctx, logger, run, accPath); done {
			return o, true, err
		}
	}
	return OutcomeValid, false, nil
}

// validateAppliedExchangeRates cross-checks every conversion rate applied
// to a positive billable charge against the agreed tariff rate. A rate is
// checked once per distinct (code, call timestamp) pair: the agreed rate
// has a validity window, so the same code must hold on every call date it
// was applied to.
func (s *ValidationService) validateAppliedExchangeRates(ctx context.Context, logger *slog.Logger, run *validationRun, accPath []PathItem) (Outcome, bool, error) {
	acc := run.batch.AccountingInfo
	type appliedKey struct {
		code      int
		callStamp string
	}
	type applied struct {
		code       int
		occurrence int
		rate       float64
		callStamp  string
	}
	seen := make(map[appliedKey]bool)
	var appliedRates []applied

	for i := range run.batch.CallEventDetails {
		event := &run.batch.CallEventDetails[i]
		stamp := ""
		if ts := event.StartTimeStamp(); ts != nil {
			stamp = ts.LocalTimeStamp
		}
		for _, ci := range event.ChargeInformations() {
			if ci.ExchangeRateCode == nil {
				continue
			}
			positive := false
			for _, cd := range ci.ChargeDetailList {
				if cd.ChargeType != nil && *cd.ChargeType == domain.BillableChargeType && cd.Charge != nil && *cd.Charge > 0 {
					positive = true
					break
				}
			}
			if !positive {
				continue
			}
			key := appliedKey{code: *ci.ExchangeRateCode, callStamp: stamp}
			if seen[key] {
				continue
			}
			seen[key] = true
			rate, err := run.batch.ExchangeRateByCode(*ci.ExchangeRateCode)
			if err != nil {
				logger.Error("Applied exchange rate code not resolvable in batch", "code", *ci.ExchangeRateCode, "error", err)
				return OutcomeValidationImpossible, true, nil
			}
			occ := 0
			for j := range acc.CurrencyConversion {
				if acc.CurrencyConversion[j].ExchangeRateCode != nil && *acc.CurrencyConversion[j].ExchangeRateCode == *ci.ExchangeRateCode {
					occ = j + 1
					break
				}
			}
			appliedRates = append(appliedRates, applied{code: key.code, occurrence: occ, rate: rate, callStamp: stamp})
		}
	}

	for _, a := range appliedRates {
		res, err := s.repo.ValidateExchangeRate(ctx, run.partner, *acc.LocalCurrency, a.callStamp, a.rate)
		if err != nil {
			logger.Error("Exchange rate oracle failed", "code", a.code, "error", err)
			return OutcomeValidationImpossible, true, nil
		}
		ratePath := append(accPath,
			PathItem{Section: domain.SectionCurrencyConversion, Occurrence: a.occurrence},
			PathItem{Section: domain.SectionExchangeRate})
		switch res {
		case domain.ExRateValid:
		case domain.ExRateHigher:
			o, ferr := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeExchangeRateHigher, ratePath,
				"Exchange rate higher than agreed tariff rate")
			return o, true, ferr
		case domain.ExRateLower:
			o, ferr := s.fatal(ctx, logger, run, domain.SectionAccountingInfo, domain.CodeExchangeRateLower, ratePath,
				"Exchange rate lower than agreed tariff rate")
			return o, true, ferr
		default:
			logger.Error("Exchange rate not checkable", "code", a.code, "verdict", res.String())
			return OutcomeValidationImpossible, true, nil
		}
	}
	return OutcomeValid, false, nil
}

func (s *ValidationService) validateNetworkInfo(ctx context.Context, logger *slog.Logger, run *validationRun) (Outcome, bool, error) {
	net := run.batch.NetworkInfo
	netPath := []PathItem{{Section: domain.SectionTransferBatch}, {Section: domain.SectionNetworkInfo}}

	if len(net.UtcTimeOffsetInfo) == 0 {
		o, err := s.fatal(ctx, logger, run, domain.SectionNetworkInfo, domain.CodeUtcTimeOffsetMissing,
			append(netPath, PathItem{Section: domain.SectionUtcTimeOffsetInfo}),
			"UTC time offset table missing in network info")
		return o, true, err
	}
	if len(net.RecEntityInfo) == 0 {
		o, err := s.fatal(ctx, logger, run, domain.SectionNetworkInfo, domain.CodeRecEntityInfoMissing,
			append(netPath, PathItem{Section: domain.SectionRecEntityInformation}),
			"Recording entity table missing in network info")
		return o, true, err
	}

	seen := make(map[int]bool, len(net.RecEntityInfo))
	for i := range net.RecEntityInfo {
		entity := &net.RecEntityInfo[i]
		entryPath := append(netPath, PathItem{Section: domain.SectionRecEntityInformation, Occurrence: i + 1})
		switch {
		case entity.RecEntityCode == nil:
			o, err := s.fatal(ctx, logger, run, domain.SectionNetworkInfo, domain.CodeRecEntityCodeMissing,
				append(entryPath, PathItem{Section: domain.SectionRecEntityCode}),
				"Recording entity code missing")
			return o, true, err
		case entity.RecEntityType == nil || !entity.RecEntityType.Valid():
			o, err := s.fatal(ctx, logger, run, domain.SectionNetworkInfo, domain.CodeRecEntityTypeMissing,
				append(entryPath, PathItem{Section: domain.SectionRecEntityType}),
				"Recording entity type missing or unknown")
			return o, true, err
		case entity.RecEntityID == nil || *entity.RecEntityID == "":
			o, err := s.fatal(ctx, logger, run, domain.SectionNetworkInfo, domain.CodeRecEntityIDMissing,
				append(entryPath, PathItem{Section: domain.SectionRecEntityID}),
				"Recording entity identification missing")
			return o, true, err
		case seen[*entity.RecEntityCode]:
			o, err := s.fatal(ctx, logger, run, domain.SectionNetworkInfo, domain.CodeRecEntityCodeDuplication,
				append(entryPath, PathItem{Section: domain.SectionRecEntityCode}),
				"Duplicated recording entity code")
			return o, true, err
		}
		seen[*entity.RecEntityCode] = true
	}
	return OutcomeValid, false, nil
}

func (s *ValidationService) validateAuditControlInfo(ctx context.Context, logger *slog.Logger, run *validationRun) (Outcome, bool, error) {
	audit := run.batch.AuditControlInfo
	auditPath := []PathItem{{Section: domain.SectionTransferBatch}, {Section: domain.SectionAuditControlInfo}}

	switch {
	case audit.TotalCharge == nil:
		o, err := s.fatal(ctx, logger, run, domain.SectionAuditControlInfo, domain.CodeTotalChargeMissing,
			append(auditPath, PathItem{Section: domain.SectionTotalCharge}),
			"Total charge missing in audit control info")
		return o, true, err
	case audit.TotalTaxValue == nil:
		o, err := s.fatal(ctx, logger, run, domain.SectionAuditControlInfo, domain.CodeTotalTaxValueMissing,
			append(auditPath, PathItem{Section: domain.SectionTotalTaxValue}),
			"Total tax value missing in audit control info")
		return o, true, err
	case audit.TotalDiscountValue == nil:
		o, err := s.fatal(ctx, logger, run, domain.SectionAuditControlInfo, domain.CodeTotalDiscountMissing,
			append(auditPath, PathItem{Section: domain.SectionTotalDiscountValue}),
			"Total discount value missing in audit control info")
		return o, true, err
	case audit.CallEventDetailsCount == nil:
		o, err := s.fatal(ctx, logger, run, domain.SectionAuditControlInfo, domain.CodeCallCountMissing,
			append(auditPath, PathItem{Section: domain.SectionCallEventDetailsCount}),
			"Call event details count missing in audit control info")
		return o, true, err
	}

	if *audit.CallEventDetailsCount != run.batch.EventCount() {
		logger.Error("Declared event count disagrees with actual",
			"declared", *audit.CallEventDetailsCount, "actual", run.batch.EventCount())
		o, err := s.fatal(ctx, logger, run, domain.SectionAuditControlInfo, domain.CodeCallCountMismatch,
			append(auditPath, PathItem{Section: domain.SectionCallEventDetailsCount}),
			"Call event details count mismatch")
		return o, true, err
	}
	if *audit.TotalCharge != run.batch.TotalCharge() {
		logger.Error("Declared total charge disagrees with actual",
			"declared", *audit.TotalCharge, "actual", run.batch.TotalCharge())
		o, err := s.fatal(ctx, logger, run, domain.SectionAuditControlInfo, domain.CodeTotalChargeMismatch,
			append(auditPath, PathItem{Section: domain.SectionTotalCharge}),
			"Total charge mismatch")
		return o, true, err
	}
	return OutcomeValid, false, nil
}

func (s *ValidationService) validateCallEvents(ctx context.Context, logger *slog.Logger, run *validationRun) (Outcome, error) {
	mode, err := s.repo.IOTMode(ctx, run.partner)
	if err != nil {
		logger.Error("Cannot determine IOT validation mode", "error", err)
		return OutcomeValidationImpossible, nil
	}

	unreachable := 0
	for i := range run.batch.CallEventDetails {
		event := &run.batch.CallEventDetails[i]
		res, err := s.calls.ValidateCall(ctx, run, i, event, mode)
		if err != nil {
			logger.Warn("Call validation unreachable for event", "event_index", i, "error", err)
			unreachable++
			continue
		}
		if res == CallCheckImpossible {
			unreachable++
		}
	}
	if unreachable > 0 {
		logger.Warn("Some call events could not be fully validated", "count", unreachable)
	}

	// The outcome follows the accumulated return batch, not the per-call
	// results: a severe entry added before a later sub-check failed still
	// goes back to the sender.
	severe := run.builder.EntryCount()
	if run.builder.Opened() {
		if s.metrics != nil {
			s.metrics.SevereReturns.Add(float64(severe))
		}
		if err := s.flush(ctx, logger, run); err != nil {
			return OutcomeHasSevereEntries, err
		}
	}
	if severe > 0 {
		return OutcomeHasSevereEntries, nil
	}
	return OutcomeValid, nil
}

// flush finalizes the accumulated return batch, encodes it, writes it
// into the output directory and hands it off for upload.
func (s *ValidationService) flush(ctx context.Context, logger *slog.Logger, run *validationRun) error {
	batch, err := run.builder.Finalize()
	if err != nil {
		return fmt.Errorf("finalizing return batch: %w", err)
	}
	data, err := s.encoder.Encode(batch)
	if err != nil {
		return fmt.Errorf("encoding return batch %s: %w", run.builder.Filename(), err)
	}
	if err := s.writer.Write(data, s.rapOutputDir, run.builder.Filename()); err != nil {
		return fmt.Errorf("writing return batch %s: %w", run.builder.Filename(), err)
	}
	if err := s.uploader.Upload(ctx, s.rapOutputDir, run.builder.Filename(), run.partner); err != nil {
		return fmt.Errorf("uploading return batch %s: %w", run.builder.Filename(), err)
	}
	if s.metrics != nil {
		s.metrics.RapFilesEmitted.Inc()
	}
	logger.Info("RAP file emitted",
		"rap_filename", run.builder.Filename(),
		"rap_sequence", run.builder.RapSequenceNumber(),
		"entries", run.builder.EntryCount())
	return nil
}

func (s *ValidationService) validateNotification(ctx context.Context, logger *slog.Logger, runID uuid.UUID, notif *domain.Notification) (Outcome, error) {
	if notif.Sender == nil || *notif.Sender == "" || notif.Recipient == nil || *notif.Recipient == "" ||
		notif.FileSequenceNumber == nil || *notif.FileSequenceNumber == "" {
		logger.Error("Sender, recipient or file sequence number missing in notification")
		return OutcomeValidationImpossible, nil
	}
	logger = logger.With("sender", *notif.Sender, "file_sequence", *notif.FileSequenceNumber, "notification", true)

	if *notif.Recipient != s.ourTAPCode {
		logger.Warn("Notification is not addressed to this network", "recipient", *notif.Recipient)
		return OutcomeWrongAddressee, nil
	}

	partner, err := s.repo.ResolvePartner(ctx, *notif.Sender)
	if err != nil {
		logger.Error("Partner resolution failed for notification", "error", err)
		return OutcomeValidationImpossible, nil
	}

	isTest := notif.FileTypeIndicator != nil && *notif.FileTypeIndicator != ""
	if !isTest {
		policy, err := s.repo.InboundPolicy(ctx, partner, notif.FileAvailableTimeStamp)
		if err != nil || policy != domain.InboundAllowed {
			logger.Warn("Inbound files not currently accepted from partner", "partner_id", partner, "error", err)
			return OutcomeValidationImpossible, nil
		}
	}

	run := &validationRun{
		runID:        runID,
		partner:      partner,
		builder:      NewReturnBatchBuilder(s.repo, logger, partner),
		fileSequence: *notif.FileSequenceNumber,
		header: HeaderSource{
			Sender:            *notif.Sender,
			Recipient:         *notif.Recipient,
			AvailableAt:       notif.FileAvailableTimeStamp,
			SpecVersion:       notif.SpecificationVersionNumber,
			ReleaseVersion:    notif.ReleaseVersionNumber,
			FileTypeIndicator: notif.FileTypeIndicator,
		},
	}

	seqPath := []PathItem{{Section: domain.SectionNotification}, {Section: domain.SectionFileSequenceNumber}}
	if _, err := domain.ParseSequenceNumber(*notif.FileSequenceNumber); err != nil {
		code := domain.CodeSeqNumSyntax
		if errors.Is(err, domain.ErrSequenceRange) {
			code = domain.CodeSeqNumOutOfRange
		}
		return s.fatal(ctx, logger, run, domain.SectionNotification, code, seqPath,
			"Notification file sequence number invalid: "+err.Error())
	}

	// Notifications are duplicate-checked with a zeroed fingerprint.
	bci := &domain.BatchControlInfo{
		Sender:                 notif.Sender,
		Recipient:              notif.Recipient,
		FileSequenceNumber:     notif.FileSequenceNumber,
		FileAvailableTimeStamp: notif.FileAvailableTimeStamp,
		FileTypeIndicator:      notif.FileTypeIndicator,
	}
	dup, err := s.checkDuplicate(ctx, run, bci, true)
	if err != nil {
		logger.Error("Duplicate control failed for notification", "error", err)
		return OutcomeValidationImpossible, nil
	}
	switch dup {
	case domain.ExactCopyAlreadyProcessed:
		logger.Info("Notification already processed, skipping")
		return OutcomeFileDuplicate, nil
	case domain.SequenceReusedDifferentContent:
		return s.fatal(ctx, logger, run, domain.SectionNotification, domain.CodeSeqNumDuplication, seqPath,
			"Notification sequence number reused")
	}

	return OutcomeValid, nil
}
