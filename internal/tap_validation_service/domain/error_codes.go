package domain

// TD.32 error codes grouped by the batch section whose error block carries
// them. Codes are only unique within a section scope.

// Transfer batch level: a mandatory top section is absent.
const (
	CodeBatchControlInfoMissing = 30
	CodeAccountingInfoMissing   = 31
	CodeNetworkInfoMissing      = 32
	CodeCallEventsMissing       = 35
	CodeAuditControlInfoMissing = 36
)

// Batch control info fields.
const (
	CodeFileAvailTimestampMissing = 33
	CodeSpecVersionMissing        = 34
	CodeTransferCutoffMissing     = 36
)

// File sequence number.
const (
	CodeSeqNumSyntax      = 10
	CodeSeqNumOutOfRange  = 20
	CodeSeqNumDuplication = 201
)

// Accounting info fields and the exchange-rate tolerance checks.
const (
	CodeTaxationMissing           = 30
	CodeDiscountingMissing        = 31
	CodeLocalCurrencyMissing      = 32
	CodeCurrencyConversionMissing = 34
	CodeTapDecimalPlacesMissing   = 35
	CodeExchangeRateLower         = 200
	CodeExchangeRateHigher        = 201
)

// Currency conversion entries.
const (
	CodeExRateCodeMissing     = 30
	CodeNumDecPlacesMissing   = 31
	CodeExchangeRateMissing   = 33
	CodeExRateCodeDuplication = 34
	CodeTapDecimalsOutOfRange = 20
)

// Taxation entries.
const (
	CodeTaxCodeMissing     = 30
	CodeTaxTypeMissing     = 31
	CodeTaxCodeDuplication = 33
	CodeTaxRateSyntax      = 10
	CodeTaxRateOutOfRange  = 20
)

// Network info tables.
const (
	CodeUtcTimeOffsetMissing = 30
	CodeRecEntityInfoMissing = 33
)

// Recording entity entries.
const (
	CodeRecEntityCodeMissing     = 30
	CodeRecEntityTypeMissing     = 31
	CodeRecEntityIDMissing       = 32
	CodeRecEntityCodeDuplication = 33
)

// Audit control info fields and reconciliation.
const (
	CodeTotalChargeMissing   = 30
	CodeTotalTaxValueMissing = 31
	CodeTotalDiscountMissing = 32
	CodeCallCountMissing     = 33
	CodeCallCountMismatch    = 100
	CodeTotalChargeMismatch  = 100
)

// Severe (per-event) codes.
const (
	CodeChargeNotInRoamingAgreement = 200
	CodeCallOlderThanAllowed        = 261
)
