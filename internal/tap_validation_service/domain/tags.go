package domain

// SectionKind names a node of the interchange tree for error context paths.
type SectionKind int

const (
	SectionUnknown SectionKind = iota
	SectionTransferBatch
	SectionNotification
	SectionCallEventDetailList
	SectionBatchControlInfo
	SectionAccountingInfo
	SectionNetworkInfo
	SectionAuditControlInfo
	SectionMobileOriginatedCall
	SectionMobileTerminatedCall
	SectionGprsCall
	SectionSupplServiceEvent
	SectionSender
	SectionRecipient
	SectionFileSequenceNumber
	SectionFileAvailableTimeStamp
	SectionTransferCutOffTimeStamp
	SectionSpecificationVersionNumber
	SectionLocalCurrency
	SectionTapDecimalPlaces
	SectionCurrencyConversion
	SectionExchangeRateCode
	SectionNumberOfDecimalPlaces
	SectionExchangeRate
	SectionTaxation
	SectionTaxCode
	SectionTaxType
	SectionTaxRate
	SectionDiscounting
	SectionUtcTimeOffsetInfo
	SectionRecEntityInformation
	SectionRecEntityCode
	SectionRecEntityType
	SectionRecEntityID
	SectionTotalCharge
	SectionTotalTaxValue
	SectionTotalDiscountValue
	SectionCallEventDetailsCount
)

// ApplicationTagID maps a section kind to its TD.57 application tag.
// The tag is the pathItemId carried in a RAP error context item.
func (k SectionKind) ApplicationTagID() int {
	if id, ok := applicationTags[k]; ok {
		return id
	}
	return 0
}

var applicationTags = map[SectionKind]int{
	SectionTransferBatch:              1,
	SectionNotification:               2,
	SectionCallEventDetailList:        3,
	SectionBatchControlInfo:           4,
	SectionAccountingInfo:             5,
	SectionNetworkInfo:                6,
	SectionAuditControlInfo:           15,
	SectionMobileOriginatedCall:       9,
	SectionMobileTerminatedCall:       10,
	SectionSupplServiceEvent:          11,
	SectionGprsCall:                   14,
	SectionSender:                     196,
	SectionRecipient:                  182,
	SectionFileSequenceNumber:         109,
	SectionFileAvailableTimeStamp:     107,
	SectionTransferCutOffTimeStamp:    227,
	SectionSpecificationVersionNumber: 201,
	SectionLocalCurrency:              135,
	SectionTapDecimalPlaces:           244,
	SectionCurrencyConversion:         106,
	SectionExchangeRateCode:           105,
	SectionNumberOfDecimalPlaces:      152,
	SectionExchangeRate:               104,
	SectionTaxation:                   216,
	SectionTaxCode:                    212,
	SectionTaxType:                    213,
	SectionTaxRate:                    215,
	SectionDiscounting:                94,
	SectionUtcTimeOffsetInfo:          232,
	SectionRecEntityInformation:       183,
	SectionRecEntityCode:              184,
	SectionRecEntityType:              186,
	SectionRecEntityID:                185,
	SectionTotalCharge:                415,
	SectionTotalTaxValue:              226,
	SectionTotalDiscountValue:         225,
	SectionCallEventDetailsCount:      43,
}

// SectionForCallKind returns the tree node for a call union member.
func SectionForCallKind(kind CallKind) SectionKind {
	switch kind {
	case CallKindMobileOriginated:
		return SectionMobileOriginatedCall
	case CallKindMobileTerminated:
		return SectionMobileTerminatedCall
	case CallKindGprs:
		return SectionGprsCall
	case CallKindSupplService:
		return SectionSupplServiceEvent
	default:
		return SectionUnknown
	}
}
