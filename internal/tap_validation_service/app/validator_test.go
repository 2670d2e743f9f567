package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/adapters/codec"
	"github.com/RoamIT/roamhub/golang_services/internal/tap_validation_service/domain"
)

// --- Mocks ---

type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) ResolvePartner(ctx context.Context, senderCode string) (domain.PartnerID, error) {
	args := m.Called(ctx, senderCode)
	return args.Get(0).(domain.PartnerID), args.Error(1)
}

func (m *MockReferenceRepository) InboundPolicy(ctx context.Context, partner domain.PartnerID, availableAt *domain.Timestamp) (domain.InboundPolicy, error) {
	args := m.Called(ctx, partner, availableAt)
	return args.Get(0).(domain.InboundPolicy), args.Error(1)
}

func (m *MockReferenceRepository) CheckDuplicate(ctx context.Context, identity domain.FileIdentity, fp domain.ContentFingerprint) (domain.DuplicateResult, error) {
	args := m.Called(ctx, identity, fp)
	return args.Get(0).(domain.DuplicateResult), args.Error(1)
}

func (m *MockReferenceRepository) IssueReturnHeader(ctx context.Context, partner domain.PartnerID, availableAt *domain.Timestamp, isTest bool) (domain.ReturnHeader, error) {
	args := m.Called(ctx, partner, availableAt, isTest)
	return args.Get(0).(domain.ReturnHeader), args.Error(1)
}

func (m *MockReferenceRepository) ValidateExchangeRate(ctx context.Context, partner domain.PartnerID, currency string, callStamp string, rate float64) (domain.ExchangeRateResult, error) {
	args := m.Called(ctx, partner, currency, callStamp, rate)
	return args.Get(0).(domain.ExchangeRateResult), args.Error(1)
}

func (m *MockReferenceRepository) CheckCallAge(ctx context.Context, event domain.CallRef) (domain.CallAgeResult, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(domain.CallAgeResult), args.Error(1)
}

func (m *MockReferenceRepository) IOTMode(ctx context.Context, partner domain.PartnerID) (domain.IOTMode, error) {
	args := m.Called(ctx, partner)
	return args.Get(0).(domain.IOTMode), args.Error(1)
}

func (m *MockReferenceRepository) CheckTariff(ctx context.Context, event domain.CallRef) (domain.TariffVerdict, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(domain.TariffVerdict), args.Error(1)
}

func (m *MockReferenceRepository) RecordValidationResult(ctx context.Context, rec domain.ValidationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// memoryWriter captures emitted RAP files instead of touching the disk.
type memoryWriter struct {
	files map[string][]byte
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{files: map[string][]byte{}}
}

func (w *memoryWriter) Write(data []byte, dir string, filename string) error {
	w.files[filename] = data
	return nil
}

type noopUploader struct{}

func (noopUploader) Upload(ctx context.Context, sourceDir string, filename string, partner domain.PartnerID) error {
	return nil
}

// --- Fixtures ---

const (
	ourCode    = "HOMNL"
	senderCode = "VISDE"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func testReturnHeader() domain.ReturnHeader {
	return domain.ReturnHeader{
		FileID:                  42,
		Filename:                "RCHOMNLVISDE00001",
		SequenceNumber:          "00001",
		RoamingHubName:          "testhub",
		CreationStamp:           "20260301120000",
		UtcOffset:               "+0100",
		TapSpecificationVersion: 3,
		TapReleaseVersion:       12,
		RapSpecificationVersion: 1,
		RapReleaseVersion:       5,
		TapDecimalPlaces:        5,
	}
}

func moCall(charge int64) domain.CallEventDetail {
	return moCallAt(charge, "20260215103000")
}

func moCallAt(charge int64, stamp string) domain.CallEventDetail {
	return domain.CallEventDetail{
		MobileOriginatedCall: &domain.MobileOriginatedCall{
			BasicCallInformation: &domain.MoBasicCallInformation{
				ChargeableSubscriber:    &domain.ChargeableSubscriber{IMSI: "262011234567890"},
				CallEventStartTimeStamp: &domain.CodedTimestamp{LocalTimeStamp: stamp, UtcTimeOffsetCode: 0},
				TotalCallEventDuration:  intPtr(60),
			},
			BasicServiceUsedList: []domain.BasicServiceUsed{{
				ChargeInformationList: []domain.ChargeInformation{{
					ExchangeRateCode: intPtr(1),
					ChargeDetailList: []domain.ChargeDetail{{
						ChargeType: strPtr(domain.BillableChargeType),
						Charge:     int64Ptr(charge),
					}},
				}},
			}},
		},
	}
}

func validTransferBatch() *domain.TransferBatch {
	return &domain.TransferBatch{
		BatchControlInfo: &domain.BatchControlInfo{
			Sender:                     strPtr(senderCode),
			Recipient:                  strPtr(ourCode),
			FileSequenceNumber:         strPtr("00012"),
			FileCreationTimeStamp:      &domain.Timestamp{LocalTimeStamp: "20260215110000", UtcTimeOffset: "+0100"},
			FileAvailableTimeStamp:     &domain.Timestamp{LocalTimeStamp: "20260215120000", UtcTimeOffset: "+0100"},
			TransferCutOffTimeStamp:    &domain.Timestamp{LocalTimeStamp: "20260215100000", UtcTimeOffset: "+0100"},
			SpecificationVersionNumber: intPtr(3),
			ReleaseVersionNumber:       intPtr(12),
		},
		AccountingInfo: &domain.AccountingInfo{
			LocalCurrency:    strPtr("EUR"),
			TapDecimalPlaces: intPtr(5),
			CurrencyConversion: []domain.CurrencyConversion{{
				ExchangeRateCode:      intPtr(1),
				NumberOfDecimalPlaces: intPtr(5),
				ExchangeRate:          int64Ptr(117500),
			}},
		},
		NetworkInfo: &domain.NetworkInfo{
			UtcTimeOffsetInfo: []domain.UtcTimeOffsetInfo{{
				UtcTimeOffsetCode: intPtr(0),
				UtcTimeOffset:     strPtr("+0100"),
			}},
			RecEntityInfo: []domain.RecEntityInformation{{
				RecEntityCode: intPtr(1),
				RecEntityType: recEntityTypePtr(domain.RecEntityMSC),
				RecEntityID:   strPtr("MSC001"),
			}},
		},
		CallEventDetails: []domain.CallEventDetail{moCall(1000)},
		AuditControlInfo: &domain.AuditControlInfo{
			TotalCharge:           int64Ptr(1000),
			TotalTaxValue:         int64Ptr(0),
			TotalDiscountValue:    int64Ptr(0),
			CallEventDetailsCount: intPtr(1),
		},
	}
}

func recEntityTypePtr(t domain.RecEntityType) *domain.RecEntityType { return &t }

func newTestService(repo *MockReferenceRepository) (*ValidationService, *memoryWriter) {
	writer := newMemoryWriter()
	svc := NewValidationService(
		repo,
		codec.NewJSONCodec(),
		writer,
		noopUploader{},
		testLogger(),
		nil,
		ourCode,
		7,
		"/tmp/rap-out",
	)
	return svc, writer
}

func expectHappyPreamble(repo *MockReferenceRepository) {
	repo.On("ResolvePartner", mock.Anything, senderCode).Return(domain.PartnerID(1), nil)
	repo.On("InboundPolicy", mock.Anything, domain.PartnerID(1), mock.Anything).Return(domain.InboundAllowed, nil)
	repo.On("CheckDuplicate", mock.Anything, mock.Anything, mock.Anything).Return(domain.NotDuplicate, nil)
}

func emittedReturnBatch(t *testing.T, writer *memoryWriter) *domain.ReturnBatch {
	t.Helper()
	require.Len(t, writer.files, 1)
	for _, data := range writer.files {
		var batch domain.ReturnBatch
		require.NoError(t, json.Unmarshal(data, &batch))
		return &batch
	}
	return nil
}

// --- Tests ---

func TestValidate_ValidBatch(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("IOTMode", mock.Anything, domain.PartnerID(1)).Return(domain.IOTNotNeeded, nil)
	repo.On("CheckCallAge", mock.Anything, mock.Anything).Return(domain.AgeValid, nil)

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
	assert.Empty(t, writer.files)
	repo.AssertNotCalled(t, "IssueReturnHeader", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_MissingBatchControlInfo(t *testing.T) {
	repo := new(MockReferenceRepository)
	svc, writer := newTestService(repo)

	batch := validTransferBatch()
	batch.BatchControlInfo = nil
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValidationImpossible, outcome)
	assert.Empty(t, writer.files)
}

func TestValidate_WrongAddressee(t *testing.T) {
	repo := new(MockReferenceRepository)
	svc, writer := newTestService(repo)

	batch := validTransferBatch()
	batch.BatchControlInfo.Recipient = strPtr("OTHER")
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeWrongAddressee, outcome)
	assert.Empty(t, writer.files)
	repo.AssertNotCalled(t, "ResolvePartner", mock.Anything, mock.Anything)
}

func TestValidate_MissingAccountingInfo(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)

	svc, writer := newTestService(repo)
	batch := validTransferBatch()
	batch.AccountingInfo = nil
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFatalInvalid, outcome)

	rap := emittedReturnBatch(t, writer)
	require.Len(t, rap.ReturnDetails, 1)
	fatal := rap.ReturnDetails[0].FatalReturn
	require.NotNil(t, fatal)
	assert.Equal(t, "00012", fatal.FileSequenceNumber)
	require.Len(t, fatal.ErrorBlock.ErrorDetail, 1)
	detail := fatal.ErrorBlock.ErrorDetail[0]
	assert.Equal(t, domain.CodeAccountingInfoMissing, detail.Code)
	// Context path is the batch root only: one level, no occurrence.
	require.Len(t, detail.Context, 1)
	assert.Equal(t, domain.SectionTransferBatch.ApplicationTagID(), detail.Context[0].PathItemID)
	assert.Equal(t, 1, detail.Context[0].ItemLevel)
	assert.Nil(t, detail.Context[0].ItemOccurrence)

	// Sender and recipient swap in the counter-file header.
	assert.Equal(t, ourCode, rap.RapBatchControlInfo.Sender)
	assert.Equal(t, senderCode, rap.RapBatchControlInfo.Recipient)
	assert.Equal(t, 1, rap.RapAuditControlInfo.ReturnDetailsCount)
	assert.Equal(t, int64(0), rap.RapAuditControlInfo.TotalSevereReturnValue)
}

func TestValidate_DecimalPlacesOutOfRange(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)

	svc, writer := newTestService(repo)
	batch := validTransferBatch()
	batch.AccountingInfo.TapDecimalPlaces = intPtr(7)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFatalInvalid, outcome)

	rap := emittedReturnBatch(t, writer)
	require.Len(t, rap.ReturnDetails, 1)
	fatal := rap.ReturnDetails[0].FatalReturn
	require.NotNil(t, fatal)
	require.Len(t, fatal.ErrorBlock.ErrorDetail, 1)
	detail := fatal.ErrorBlock.ErrorDetail[0]
	assert.Equal(t, domain.CodeTapDecimalsOutOfRange, detail.Code)
	require.Len(t, detail.Context, 3)
	assert.Equal(t, domain.SectionTransferBatch.ApplicationTagID(), detail.Context[0].PathItemID)
	assert.Equal(t, domain.SectionAccountingInfo.ApplicationTagID(), detail.Context[1].PathItemID)
	assert.Equal(t, domain.SectionTapDecimalPlaces.ApplicationTagID(), detail.Context[2].PathItemID)
	for i, ctx := range detail.Context {
		assert.Equal(t, i+1, ctx.ItemLevel)
	}
}

func TestValidate_AuditCountMismatch(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)

	svc, writer := newTestService(repo)
	batch := validTransferBatch()
	batch.AuditControlInfo.CallEventDetailsCount = intPtr(2)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFatalInvalid, outcome)

	rap := emittedReturnBatch(t, writer)
	require.Len(t, rap.ReturnDetails, 1)
	fatal := rap.ReturnDetails[0].FatalReturn
	require.NotNil(t, fatal)
	assert.Equal(t, domain.CodeCallCountMismatch, fatal.ErrorBlock.ErrorDetail[0].Code)
}

func TestValidate_AuditTotalChargeMismatch(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)

	svc, _ := newTestService(repo)
	batch := validTransferBatch()
	// Off by one unit against the actual "00" sum.
	batch.AuditControlInfo.TotalCharge = int64Ptr(1001)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFatalInvalid, outcome)
}

func TestValidate_FileDuplicate(t *testing.T) {
	repo := new(MockReferenceRepository)
	repo.On("ResolvePartner", mock.Anything, senderCode).Return(domain.PartnerID(1), nil)
	repo.On("InboundPolicy", mock.Anything, domain.PartnerID(1), mock.Anything).Return(domain.InboundAllowed, nil)
	repo.On("CheckDuplicate", mock.Anything, mock.Anything, mock.Anything).Return(domain.ExactCopyAlreadyProcessed, nil)

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFileDuplicate, outcome)
	assert.Empty(t, writer.files)
	repo.AssertNotCalled(t, "IssueReturnHeader", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_SequenceReusedDifferentContent(t *testing.T) {
	repo := new(MockReferenceRepository)
	repo.On("ResolvePartner", mock.Anything, senderCode).Return(domain.PartnerID(1), nil)
	repo.On("InboundPolicy", mock.Anything, domain.PartnerID(1), mock.Anything).Return(domain.InboundAllowed, nil)
	repo.On("CheckDuplicate", mock.Anything, mock.Anything, mock.Anything).Return(domain.SequenceReusedDifferentContent, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFatalInvalid, outcome)

	rap := emittedReturnBatch(t, writer)
	fatal := rap.ReturnDetails[0].FatalReturn
	require.NotNil(t, fatal)
	assert.Equal(t, domain.CodeSeqNumDuplication, fatal.ErrorBlock.ErrorDetail[0].Code)
}

func TestValidate_DuplicateControlFailure(t *testing.T) {
	repo := new(MockReferenceRepository)
	repo.On("ResolvePartner", mock.Anything, senderCode).Return(domain.PartnerID(1), nil)
	repo.On("InboundPolicy", mock.Anything, domain.PartnerID(1), mock.Anything).Return(domain.InboundAllowed, nil)
	repo.On("CheckDuplicate", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.DuplicateCheckUnknown, errors.New("db down"))

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValidationImpossible, outcome)
	assert.Empty(t, writer.files)
}

func TestValidate_TooOldCallUnderRapDropoutAlert(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("IOTMode", mock.Anything, domain.PartnerID(1)).Return(domain.IOTRapDropoutAlert, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)
	// First event breaches the retention policy, second is fine.
	repo.On("CheckCallAge", mock.Anything, mock.MatchedBy(func(ref domain.CallRef) bool { return ref.EventIndex == 0 })).
		Return(domain.AgeTooOld, nil)
	repo.On("CheckCallAge", mock.Anything, mock.MatchedBy(func(ref domain.CallRef) bool { return ref.EventIndex == 1 })).
		Return(domain.AgeValid, nil)
	repo.On("CheckTariff", mock.Anything, mock.Anything).Return(domain.TariffVerdict{Code: domain.TariffValid}, nil)
	repo.On("RecordValidationResult", mock.Anything, mock.Anything).Return(nil)

	svc, writer := newTestService(repo)
	batch := validTransferBatch()
	batch.CallEventDetails = []domain.CallEventDetail{moCall(700), moCall(300)}
	batch.AuditControlInfo.CallEventDetailsCount = intPtr(2)
	batch.AuditControlInfo.TotalCharge = int64Ptr(1000)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeHasSevereEntries, outcome)

	rap := emittedReturnBatch(t, writer)
	require.Len(t, rap.ReturnDetails, 1)
	severe := rap.ReturnDetails[0].SevereReturn
	require.NotNil(t, severe)
	assert.Equal(t, "00012", severe.FileSequenceNumber)
	require.Len(t, severe.ErrorDetail, 1)
	assert.Equal(t, domain.CodeCallOlderThanAllowed, severe.ErrorDetail[0].Code)
	// Affected charge is the rejected record's "00" total, not the file's.
	assert.Equal(t, int64(700), severe.CallEventDetail.TotalCharge())
	assert.Equal(t, int64(700), rap.RapAuditControlInfo.TotalSevereReturnValue)
	assert.Equal(t, 1, rap.RapAuditControlInfo.ReturnDetailsCount)

	// The severe context names the offending occurrence in the event list.
	ctxPath := severe.ErrorDetail[0].Context
	require.Len(t, ctxPath, 3)
	assert.Equal(t, domain.SectionCallEventDetailList.ApplicationTagID(), ctxPath[1].PathItemID)
	require.NotNil(t, ctxPath[1].ItemOccurrence)
	assert.Equal(t, 1, *ctxPath[1].ItemOccurrence)
}

func TestValidate_SevereEntryBeforeTariffFailureStillReturned(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("IOTMode", mock.Anything, domain.PartnerID(1)).Return(domain.IOTRapDropoutAlert, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)
	// The age check rejects the event, then the tariff oracle breaks. The
	// already-accumulated severe entry must still reach the sender.
	repo.On("CheckCallAge", mock.Anything, mock.Anything).Return(domain.AgeTooOld, nil)
	repo.On("CheckTariff", mock.Anything, mock.Anything).
		Return(domain.TariffVerdict{}, errors.New("tariff oracle down"))
	repo.On("RecordValidationResult", mock.Anything, mock.Anything).Return(nil)

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeHasSevereEntries, outcome)

	rap := emittedReturnBatch(t, writer)
	require.Len(t, rap.ReturnDetails, 1)
	severe := rap.ReturnDetails[0].SevereReturn
	require.NotNil(t, severe)
	assert.Equal(t, domain.CodeCallOlderThanAllowed, severe.ErrorDetail[0].Code)
	assert.Equal(t, 1, rap.RapAuditControlInfo.ReturnDetailsCount)
}

func TestValidate_TariffMismatchUnderAlertModeProducesNoRap(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("IOTMode", mock.Anything, domain.PartnerID(1)).Return(domain.IOTAlert, nil)
	repo.On("CheckCallAge", mock.Anything, mock.Anything).Return(domain.AgeValid, nil)
	repo.On("CheckTariff", mock.Anything, mock.Anything).
		Return(domain.TariffVerdict{Code: domain.TariffMismatch, Description: "charge above IOT"}, nil)
	repo.On("RecordValidationResult", mock.Anything, mock.Anything).Return(nil)

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
	assert.Empty(t, writer.files)
	// The verdict is still persisted to the audit log.
	repo.AssertCalled(t, "RecordValidationResult", mock.Anything, mock.Anything)
}

func TestValidate_TariffMismatchUnderRapDropoutAlert(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("IOTMode", mock.Anything, domain.PartnerID(1)).Return(domain.IOTRapDropoutAlert, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)
	repo.On("CheckCallAge", mock.Anything, mock.Anything).Return(domain.AgeValid, nil)
	expected := int64(90000)
	repo.On("CheckTariff", mock.Anything, mock.Anything).Return(domain.TariffVerdict{
		Code:                   domain.TariffMismatch,
		Description:            "charge above IOT",
		ExpectedDate:           "20260215",
		ExpectedCharge:         &expected,
		ExpectedChargeDecimals: 6,
		Calculation:            "60s * 1.5 EUR/min",
	}, nil)
	repo.On("RecordValidationResult", mock.Anything, mock.Anything).Return(nil)

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeHasSevereEntries, outcome)

	rap := emittedReturnBatch(t, writer)
	require.Len(t, rap.ReturnDetails, 1)
	severe := rap.ReturnDetails[0].SevereReturn
	require.NotNil(t, severe)
	assert.Equal(t, domain.CodeChargeNotInRoamingAgreement, severe.ErrorDetail[0].Code)
	// Expected charge is rescaled from the oracle's 6 decimals to the
	// batch's 5.
	assert.Contains(t, severe.OperatorSpecInfo, "Expected IOT date: 20260215")
	assert.Contains(t, severe.OperatorSpecInfo, "Expected charge: 9000")
	assert.Contains(t, severe.OperatorSpecInfo, "Calculation: 60s * 1.5 EUR/min")
}

func TestValidate_ExchangeRateHigherIsFatal(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateHigher, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFatalInvalid, outcome)

	rap := emittedReturnBatch(t, writer)
	fatal := rap.ReturnDetails[0].FatalReturn
	require.NotNil(t, fatal)
	assert.Equal(t, domain.CodeExchangeRateHigher, fatal.ErrorBlock.ErrorDetail[0].Code)
}

func TestValidate_ExchangeRateCheckedPerCallTimestamp(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	// The shared rate code holds on the first call's date but not on the
	// second's: the agreed rate's validity window moved between them.
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", "20260215103000", mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", "20260301000000", mock.Anything).
		Return(domain.ExRateHigher, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)

	svc, writer := newTestService(repo)
	batch := validTransferBatch()
	batch.CallEventDetails = []domain.CallEventDetail{
		moCallAt(700, "20260215103000"),
		moCallAt(300, "20260301000000"),
	}
	batch.AuditControlInfo.CallEventDetailsCount = intPtr(2)
	batch.AuditControlInfo.TotalCharge = int64Ptr(1000)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFatalInvalid, outcome)
	repo.AssertNumberOfCalls(t, "ValidateExchangeRate", 2)

	rap := emittedReturnBatch(t, writer)
	fatal := rap.ReturnDetails[0].FatalReturn
	require.NotNil(t, fatal)
	assert.Equal(t, domain.CodeExchangeRateHigher, fatal.ErrorBlock.ErrorDetail[0].Code)
}

func TestValidate_ExchangeRateNotCheckable(t *testing.T) {
	repo := new(MockReferenceRepository)
	expectHappyPreamble(repo)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateCurrencyNotFound, nil)

	svc, writer := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValidationImpossible, outcome)
	assert.Empty(t, writer.files)
}

func TestValidate_PartnerNotFound(t *testing.T) {
	repo := new(MockReferenceRepository)
	repo.On("ResolvePartner", mock.Anything, senderCode).
		Return(domain.PartnerID(0), domain.ErrPartnerNotFound)

	svc, _ := newTestService(repo)
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: validTransferBatch()})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValidationImpossible, outcome)
}

func TestValidate_TestFileBypassesInboundPolicy(t *testing.T) {
	repo := new(MockReferenceRepository)
	repo.On("ResolvePartner", mock.Anything, senderCode).Return(domain.PartnerID(1), nil)
	repo.On("CheckDuplicate", mock.Anything, mock.Anything, mock.Anything).Return(domain.NotDuplicate, nil)
	repo.On("ValidateExchangeRate", mock.Anything, domain.PartnerID(1), "EUR", mock.Anything, mock.Anything).
		Return(domain.ExRateValid, nil)
	repo.On("IOTMode", mock.Anything, domain.PartnerID(1)).Return(domain.IOTNotNeeded, nil)
	repo.On("CheckCallAge", mock.Anything, mock.Anything).Return(domain.AgeValid, nil)

	svc, _ := newTestService(repo)
	batch := validTransferBatch()
	batch.BatchControlInfo.FileTypeIndicator = strPtr("T")
	outcome, err := svc.Validate(context.Background(), &domain.DataInterchange{TransferBatch: batch})

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
	repo.AssertNotCalled(t, "InboundPolicy", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_Notification(t *testing.T) {
	repo := new(MockReferenceRepository)
	repo.On("ResolvePartner", mock.Anything, senderCode).Return(domain.PartnerID(1), nil)
	repo.On("InboundPolicy", mock.Anything, domain.PartnerID(1), mock.Anything).Return(domain.InboundAllowed, nil)
	repo.On("CheckDuplicate", mock.Anything,
		mock.MatchedBy(func(id domain.FileIdentity) bool { return id.IsNotification }),
		domain.ContentFingerprint{}).Return(domain.NotDuplicate, nil)

	svc, writer := newTestService(repo)
	record := &domain.DataInterchange{Notification: &domain.Notification{
		Sender:                 strPtr(senderCode),
		Recipient:              strPtr(ourCode),
		FileSequenceNumber:     strPtr("00013"),
		FileAvailableTimeStamp: &domain.Timestamp{LocalTimeStamp: "20260215120000", UtcTimeOffset: "+0100"},
	}}
	outcome, err := svc.Validate(context.Background(), record)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
	assert.Empty(t, writer.files)
}

func TestValidate_NotificationSequenceOutOfRange(t *testing.T) {
	repo := new(MockReferenceRepository)
	repo.On("ResolvePartner", mock.Anything, senderCode).Return(domain.PartnerID(1), nil)
	repo.On("InboundPolicy", mock.Anything, domain.PartnerID(1), mock.Anything).Return(domain.InboundAllowed, nil)
	repo.On("IssueReturnHeader", mock.Anything, domain.PartnerID(1), mock.Anything, false).
		Return(testReturnHeader(), nil)

	svc, writer := newTestService(repo)
	record := &domain.DataInterchange{Notification: &domain.Notification{
		Sender:                 strPtr(senderCode),
		Recipient:              strPtr(ourCode),
		FileSequenceNumber:     strPtr("100000"),
		FileAvailableTimeStamp: &domain.Timestamp{LocalTimeStamp: "20260215120000", UtcTimeOffset: "+0100"},
	}}
	outcome, err := svc.Validate(context.Background(), record)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeFatalInvalid, outcome)

	rap := emittedReturnBatch(t, writer)
	fatal := rap.ReturnDetails[0].FatalReturn
	require.NotNil(t, fatal)
	assert.Equal(t, domain.CodeSeqNumOutOfRange, fatal.ErrorBlock.ErrorDetail[0].Code)
	assert.Equal(t, domain.SectionNotification.ApplicationTagID(), fatal.ErrorBlock.ErrorDetail[0].Context[0].PathItemID)
}
