package domain

// TAP interchange model per TD.57. Every optional element of the transfer
// batch tree is a pointer or slice so that presence checks are explicit;
// the validator never assumes a complete tree.

// Timestamp is a header-level timestamp: local stamp "yyyymmddhhmmss" plus
// a literal UTC offset such as "+0300".
type Timestamp struct {
	LocalTimeStamp string `json:"localTimeStamp"`
	UtcTimeOffset  string `json:"utcTimeOffset"`
}

// CodedTimestamp is a call-level timestamp: the UTC offset is referenced
// by code into NetworkInfo's UTC offset table.
type CodedTimestamp struct {
	LocalTimeStamp    string `json:"localTimeStamp"`
	UtcTimeOffsetCode int    `json:"utcTimeOffsetCode"`
}

// DataInterchange is the decoded top-level TAP record: exactly one of
// TransferBatch or Notification is set.
type DataInterchange struct {
	TransferBatch *TransferBatch `json:"transferBatch,omitempty"`
	Notification  *Notification  `json:"notification,omitempty"`
}

// IsNotification reports whether the record is a header-only notification.
func (d *DataInterchange) IsNotification() bool {
	return d.Notification != nil
}

type TransferBatch struct {
	BatchControlInfo *BatchControlInfo `json:"batchControlInfo,omitempty"`
	AccountingInfo   *AccountingInfo   `json:"accountingInfo,omitempty"`
	NetworkInfo      *NetworkInfo      `json:"networkInfo,omitempty"`
	CallEventDetails []CallEventDetail `json:"callEventDetails,omitempty"`
	AuditControlInfo *AuditControlInfo `json:"auditControlInfo,omitempty"`
}

type Notification struct {
	Sender                     *string    `json:"sender,omitempty"`
	Recipient                  *string    `json:"recipient,omitempty"`
	FileSequenceNumber         *string    `json:"fileSequenceNumber,omitempty"`
	FileCreationTimeStamp      *Timestamp `json:"fileCreationTimeStamp,omitempty"`
	FileAvailableTimeStamp     *Timestamp `json:"fileAvailableTimeStamp,omitempty"`
	TransferCutOffTimeStamp    *Timestamp `json:"transferCutOffTimeStamp,omitempty"`
	SpecificationVersionNumber *int       `json:"specificationVersionNumber,omitempty"`
	ReleaseVersionNumber       *int       `json:"releaseVersionNumber,omitempty"`
	FileTypeIndicator          *string    `json:"fileTypeIndicator,omitempty"`
}

type BatchControlInfo struct {
	Sender                     *string    `json:"sender,omitempty"`
	Recipient                  *string    `json:"recipient,omitempty"`
	FileSequenceNumber         *string    `json:"fileSequenceNumber,omitempty"`
	FileCreationTimeStamp      *Timestamp `json:"fileCreationTimeStamp,omitempty"`
	FileAvailableTimeStamp     *Timestamp `json:"fileAvailableTimeStamp,omitempty"`
	TransferCutOffTimeStamp    *Timestamp `json:"transferCutOffTimeStamp,omitempty"`
	SpecificationVersionNumber *int       `json:"specificationVersionNumber,omitempty"`
	ReleaseVersionNumber       *int       `json:"releaseVersionNumber,omitempty"`
	FileTypeIndicator          *string    `json:"fileTypeIndicator,omitempty"`
}

// IsTestFile reports whether the batch carries a file type indicator,
// which marks test data exchanged during IREG/TADIG testing.
func (b *BatchControlInfo) IsTestFile() bool {
	return b.FileTypeIndicator != nil && *b.FileTypeIndicator != ""
}

type AccountingInfo struct {
	Taxation           []Taxation           `json:"taxation,omitempty"`
	Discounting        []Discounting        `json:"discounting,omitempty"`
	LocalCurrency      *string              `json:"localCurrency,omitempty"`
	TapCurrency        *string              `json:"tapCurrency,omitempty"`
	CurrencyConversion []CurrencyConversion `json:"currencyConversionInfo,omitempty"`
	TapDecimalPlaces   *int                 `json:"tapDecimalPlaces,omitempty"`
}

type CurrencyConversion struct {
	ExchangeRateCode      *int   `json:"exchangeRateCode,omitempty"`
	NumberOfDecimalPlaces *int   `json:"numberOfDecimalPlaces,omitempty"`
	ExchangeRate          *int64 `json:"exchangeRate,omitempty"`
}

// Taxation holds one tax table entry. The rate is a decimal string scaled
// by 10^5 and expresses a percentage (TD.57 v32).
type Taxation struct {
	TaxCode *int    `json:"taxCode,omitempty"`
	TaxType *string `json:"taxType,omitempty"`
	TaxRate *string `json:"taxRate,omitempty"`
}

type Discounting struct {
	DiscountCode       *int   `json:"discountCode,omitempty"`
	DiscountRate       *int64 `json:"discountRate,omitempty"`
	FixedDiscountValue *int64 `json:"fixedDiscountValue,omitempty"`
}

type NetworkInfo struct {
	UtcTimeOffsetInfo []UtcTimeOffsetInfo    `json:"utcTimeOffsetInfo,omitempty"`
	RecEntityInfo     []RecEntityInformation `json:"recEntityInfo,omitempty"`
}

type UtcTimeOffsetInfo struct {
	UtcTimeOffsetCode *int    `json:"utcTimeOffsetCode,omitempty"`
	UtcTimeOffset     *string `json:"utcTimeOffset,omitempty"`
}

type RecEntityInformation struct {
	RecEntityCode *int           `json:"recEntityCode,omitempty"`
	RecEntityType *RecEntityType `json:"recEntityType,omitempty"`
	RecEntityID   *string        `json:"recEntityId,omitempty"`
}

type AuditControlInfo struct {
	EarliestCallTimeStamp *Timestamp `json:"earliestCallTimeStamp,omitempty"`
	LatestCallTimeStamp   *Timestamp `json:"latestCallTimeStamp,omitempty"`
	TotalCharge           *int64     `json:"totalCharge,omitempty"`
	TotalTaxValue         *int64     `json:"totalTaxValue,omitempty"`
	TotalDiscountValue    *int64     `json:"totalDiscountValue,omitempty"`
	CallEventDetailsCount *int       `json:"callEventDetailsCount,omitempty"`
}

// CallEventDetail is the per-usage-record union: exactly one member is set.
type CallEventDetail struct {
	MobileOriginatedCall *MobileOriginatedCall `json:"mobileOriginatedCall,omitempty"`
	MobileTerminatedCall *MobileTerminatedCall `json:"mobileTerminatedCall,omitempty"`
	GprsCall             *GprsCall             `json:"gprsCall,omitempty"`
	SupplServiceEvent    *SupplServiceEvent    `json:"supplServiceEvent,omitempty"`
}

type MobileOriginatedCall struct {
	BasicCallInformation *MoBasicCallInformation `json:"basicCallInformation,omitempty"`
	LocationInformation  *LocationInformation    `json:"locationInformation,omitempty"`
	EquipmentIdentifier  *string                 `json:"equipmentIdentifier,omitempty"`
	BasicServiceUsedList []BasicServiceUsed      `json:"basicServiceUsedList,omitempty"`
}

type MoBasicCallInformation struct {
	ChargeableSubscriber    *ChargeableSubscriber `json:"chargeableSubscriber,omitempty"`
	Destination             *Destination          `json:"destination,omitempty"`
	DestinationNetwork      *string               `json:"destinationNetwork,omitempty"`
	CallEventStartTimeStamp *CodedTimestamp       `json:"callEventStartTimeStamp,omitempty"`
	TotalCallEventDuration  *int                  `json:"totalCallEventDuration,omitempty"`
	CauseForTerm            *int                  `json:"causeForTerm,omitempty"`
	RapFileSequenceNumber   *string               `json:"rapFileSequenceNumber,omitempty"`
}

type MobileTerminatedCall struct {
	BasicCallInformation *MtBasicCallInformation `json:"basicCallInformation,omitempty"`
	LocationInformation  *LocationInformation    `json:"locationInformation,omitempty"`
	EquipmentIdentifier  *string                 `json:"equipmentIdentifier,omitempty"`
	BasicServiceUsedList []BasicServiceUsed      `json:"basicServiceUsedList,omitempty"`
}

type MtBasicCallInformation struct {
	ChargeableSubscriber    *ChargeableSubscriber `json:"chargeableSubscriber,omitempty"`
	CallOriginator          *CallOriginator       `json:"callOriginator,omitempty"`
	OriginatingNetwork      *string               `json:"originatingNetwork,omitempty"`
	CallEventStartTimeStamp *CodedTimestamp       `json:"callEventStartTimeStamp,omitempty"`
	TotalCallEventDuration  *int                  `json:"totalCallEventDuration,omitempty"`
	CauseForTerm            *int                  `json:"causeForTerm,omitempty"`
	RapFileSequenceNumber   *string               `json:"rapFileSequenceNumber,omitempty"`
}

type ChargeableSubscriber struct {
	IMSI   string `json:"imsi,omitempty"`
	MSISDN string `json:"msisdn,omitempty"`
}

type Destination struct {
	CalledNumber         *string `json:"calledNumber,omitempty"`
	DialledDigits        *string `json:"dialledDigits,omitempty"`
	SMSDestinationNumber *string `json:"smsDestinationNumber,omitempty"`
}

type CallOriginator struct {
	CallingNumber *string `json:"callingNumber,omitempty"`
	SMSOriginator *string `json:"smsOriginator,omitempty"`
	ClirIndicator *int    `json:"clirIndicator,omitempty"`
}

type LocationInformation struct {
	NetworkLocation *NetworkLocation `json:"networkLocation,omitempty"`
	ServingNetwork  *string          `json:"servingNetwork,omitempty"`
}

type NetworkLocation struct {
	RecEntityCode *int `json:"recEntityCode,omitempty"`
	LocationArea  *int `json:"locationArea,omitempty"`
	CellID        *int `json:"cellId,omitempty"`
}

type BasicServiceUsed struct {
	BasicService          *BasicService       `json:"basicService,omitempty"`
	ChargingTimeStamp     *CodedTimestamp     `json:"chargingTimeStamp,omitempty"`
	ChargeInformationList []ChargeInformation `json:"chargeInformationList,omitempty"`
	HSCSDIndicator        bool                `json:"hscsdIndicator,omitempty"`
}

type BasicService struct {
	TeleServiceCode   *string `json:"teleServiceCode,omitempty"`
	BearerServiceCode *string `json:"bearerServiceCode,omitempty"`
}

type ChargeInformation struct {
	ChargedItem         *string             `json:"chargedItem,omitempty"`
	ExchangeRateCode    *int                `json:"exchangeRateCode,omitempty"`
	CallTypeGroup       *CallTypeGroup      `json:"callTypeGroup,omitempty"`
	ChargeDetailList    []ChargeDetail      `json:"chargeDetailList,omitempty"`
	TaxInformation      []TaxInformation    `json:"taxInformation,omitempty"`
	DiscountInformation *DiscountInformation `json:"discountInformation,omitempty"`
}

type CallTypeGroup struct {
	CallTypeLevel1 *int `json:"callTypeLevel1,omitempty"`
	CallTypeLevel2 *int `json:"callTypeLevel2,omitempty"`
	CallTypeLevel3 *int `json:"callTypeLevel3,omitempty"`
}

// BillableChargeType flags the charge-detail entry holding the billable
// total of its charge information group.
const BillableChargeType = "00"

type ChargeDetail struct {
	ChargeType            *string         `json:"chargeType,omitempty"`
	Charge                *int64          `json:"charge,omitempty"`
	ChargeableUnits       *int64          `json:"chargeableUnits,omitempty"`
	ChargedUnits          *int64          `json:"chargedUnits,omitempty"`
	ChargeDetailTimeStamp *CodedTimestamp `json:"chargeDetailTimeStamp,omitempty"`
}

type TaxInformation struct {
	TaxCode  *int   `json:"taxCode,omitempty"`
	TaxValue *int64 `json:"taxValue,omitempty"`
}

type DiscountInformation struct {
	DiscountCode *int   `json:"discountCode,omitempty"`
	Discount     *int64 `json:"discount,omitempty"`
}

type GprsCall struct {
	GprsBasicCallInformation *GprsBasicCallInformation `json:"gprsBasicCallInformation,omitempty"`
	GprsLocationInformation  *GprsLocationInformation  `json:"gprsLocationInformation,omitempty"`
	EquipmentIdentifier      *string                   `json:"equipmentIdentifier,omitempty"`
	GprsServiceUsed          *GprsServiceUsed          `json:"gprsServiceUsed,omitempty"`
}

type GprsBasicCallInformation struct {
	GprsChargeableSubscriber *GprsChargeableSubscriber `json:"gprsChargeableSubscriber,omitempty"`
	GprsDestination          *GprsDestination          `json:"gprsDestination,omitempty"`
	CallEventStartTimeStamp  *CodedTimestamp           `json:"callEventStartTimeStamp,omitempty"`
	TotalCallEventDuration   *int                      `json:"totalCallEventDuration,omitempty"`
	CauseForTerm             *int                      `json:"causeForTerm,omitempty"`
	PartialTypeIndicator     *string                   `json:"partialTypeIndicator,omitempty"`
	PDPContextStartTimestamp *CodedTimestamp           `json:"pdpContextStartTimestamp,omitempty"`
	ChargingID               *int64                    `json:"chargingId,omitempty"`
	RapFileSequenceNumber    *string                   `json:"rapFileSequenceNumber,omitempty"`
}

type GprsChargeableSubscriber struct {
	ChargeableSubscriber    *ChargeableSubscriber `json:"chargeableSubscriber,omitempty"`
	NetworkAccessIdentifier *string               `json:"networkAccessIdentifier,omitempty"`
	PdpAddress              *string               `json:"pdpAddress,omitempty"`
}

type GprsDestination struct {
	AccessPointNameNI *string `json:"accessPointNameNI,omitempty"`
	AccessPointNameOI *string `json:"accessPointNameOI,omitempty"`
}

type GprsLocationInformation struct {
	RecEntityCodes []int   `json:"recEntityCodes,omitempty"`
	LocationArea   *int    `json:"locationArea,omitempty"`
	CellID         *int    `json:"cellId,omitempty"`
	ServingNetwork *string `json:"servingNetwork,omitempty"`
}

type GprsServiceUsed struct {
	DataVolumeIncoming    *int64              `json:"dataVolumeIncoming,omitempty"`
	DataVolumeOutgoing    *int64              `json:"dataVolumeOutgoing,omitempty"`
	ChargeInformationList []ChargeInformation `json:"chargeInformationList,omitempty"`
}

// SupplServiceEvent records a supplementary service action. It is counted
// in audit totals but excluded from call-level validation.
type SupplServiceEvent struct {
	ChargeableSubscriber    *ChargeableSubscriber `json:"chargeableSubscriber,omitempty"`
	CallEventStartTimeStamp *CodedTimestamp       `json:"callEventStartTimeStamp,omitempty"`
}
