package domain

import "errors"

// Results and request shapes of the reference/business service calls. The
// validator only assembles these and maps the outcomes; the decisions live
// behind the repository.

// PartnerID identifies a roaming partner network in the reference database.
type PartnerID int64

var ErrPartnerNotFound = errors.New("sender code does not resolve to a roaming partner")

// InboundPolicy is the per-partner inbound-traffic permission.
type InboundPolicy int

const (
	InboundUnknown InboundPolicy = iota
	InboundAllowed
	InboundDenied
)

// DuplicateResult classifies a file against previously processed ones.
type DuplicateResult int

const (
	DuplicateCheckUnknown DuplicateResult = iota
	NotDuplicate
	ExactCopyAlreadyProcessed
	SequenceReusedDifferentContent
)

// FileIdentity is the tuple duplicate control keys on.
type FileIdentity struct {
	Sender            string
	Recipient         string
	RoamingHubID      int64
	SequenceNumber    string
	FileTypeIndicator string
	PriorRapSequence  string
	IsNotification    bool
	AvailableAt       *Timestamp
}

// ContentFingerprint distinguishes a resubmitted copy from a reused
// sequence number. Zeroed for notifications.
type ContentFingerprint struct {
	EventCount  int
	TotalCharge int64
}

// ReturnHeader is what the sequence issuance call assigns to a new RAP
// file: its name, its sequence number and the header constants of this
// installation.
type ReturnHeader struct {
	FileID                  int64
	Filename                string
	SequenceNumber          string
	RoamingHubName          string
	CreationStamp           string
	UtcOffset               string
	TapSpecificationVersion int
	TapReleaseVersion       int
	RapSpecificationVersion int
	RapReleaseVersion       int
	TapDecimalPlaces        int
}

// ExchangeRateResult is the tariff-rate oracle verdict for one applied
// currency conversion entry.
type ExchangeRateResult int

const (
	ExRateValid ExchangeRateResult = iota
	ExRateHigher
	ExRateLower
	ExRateWrongCode
	ExRateCurrencyNotFound
	ExRateCurrencyMismatch
	ExRateNotSet
)

func (r ExchangeRateResult) String() string {
	switch r {
	case ExRateValid:
		return "valid"
	case ExRateHigher:
		return "higher than tariff"
	case ExRateLower:
		return "lower than tariff"
	case ExRateWrongCode:
		return "wrong exchange rate code"
	case ExRateCurrencyNotFound:
		return "currency not found"
	case ExRateCurrencyMismatch:
		return "currency mismatch"
	case ExRateNotSet:
		return "tariff rate not set"
	default:
		return "unknown"
	}
}

// CallAgeResult is the retention policy verdict for one call event.
type CallAgeResult int

const (
	AgeValid CallAgeResult = iota
	AgeTooOld
	AgePolicyError
)

// IOTMode is the per-partner inter-operator tariff validation mode.
// Only RapDropoutAlert turns a tariff failure into a severe return.
type IOTMode int

const (
	IOTNotNeeded IOTMode = iota
	IOTAlert
	IOTDropoutAlert
	IOTRapDropoutAlert
)

func (m IOTMode) String() string {
	switch m {
	case IOTNotNeeded:
		return "not needed"
	case IOTAlert:
		return "alert"
	case IOTDropoutAlert:
		return "dropout alert"
	case IOTRapDropoutAlert:
		return "rap dropout alert"
	default:
		return "unknown"
	}
}

// CallRef identifies one call event of one file toward the age and tariff
// oracles and the validation audit log.
type CallRef struct {
	Partner        PartnerID
	FileSequence   string
	EventIndex     int
	Kind           CallKind
	IMSI           string
	StartTimeStamp string
	UtcOffset      string
	Charge         int64
}

// TariffCode is the tariff oracle's verdict class.
type TariffCode int

const (
	TariffValid TariffCode = iota
	TariffMismatch
	TariffImpossible
)

// TariffVerdict is the full tariff oracle response. ExpectedCharge is
// scaled by ExpectedChargeDecimals, which may differ from the validated
// file's decimal places.
type TariffVerdict struct {
	Code                   TariffCode
	Description            string
	ExpectedDate           string
	ExpectedCharge         *int64
	ExpectedChargeDecimals int
	Calculation            string
}

// ValidationRecord is one audit log row: what was checked, what came out,
// and the RAP sequence if the event was returned.
type ValidationRecord struct {
	Event       CallRef
	ResultCode  int
	Description string
	RapSequence string
}
