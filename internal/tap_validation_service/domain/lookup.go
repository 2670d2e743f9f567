package domain

import (
	"errors"
	"fmt"
)

// Per-batch lookups. These resolve the coded references a call event makes
// into the tables of its own transfer batch; nothing here touches the
// reference database.

var (
	ErrUnknownUtcOffsetCode    = errors.New("utc time offset code not present in network info")
	ErrUnknownRecEntityCode    = errors.New("recording entity code not present in network info")
	ErrUnknownExchangeRateCode = errors.New("exchange rate code not present in accounting info")
	ErrUnknownTaxCode          = errors.New("tax code not present in accounting info")
	ErrUnknownDiscountCode     = errors.New("discount code not present in accounting info")
)

// UtcOffsetByCode resolves a call-level UTC offset code to its literal
// offset, e.g. "+0300".
func (t *TransferBatch) UtcOffsetByCode(code int) (string, error) {
	if t.NetworkInfo != nil {
		for _, o := range t.NetworkInfo.UtcTimeOffsetInfo {
			if o.UtcTimeOffsetCode != nil && *o.UtcTimeOffsetCode == code && o.UtcTimeOffset != nil {
				return *o.UtcTimeOffset, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownUtcOffsetCode, code)
}

// RecEntityByCode resolves a recording entity code to its table entry.
func (t *TransferBatch) RecEntityByCode(code int) (*RecEntityInformation, error) {
	if t.NetworkInfo != nil {
		for i := range t.NetworkInfo.RecEntityInfo {
			e := &t.NetworkInfo.RecEntityInfo[i]
			if e.RecEntityCode != nil && *e.RecEntityCode == code {
				return e, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownRecEntityCode, code)
}

// ExchangeRateByCode resolves an exchange rate code and applies the entry's
// own number of decimal places, yielding the SDR-per-local-currency rate.
func (t *TransferBatch) ExchangeRateByCode(code int) (float64, error) {
	if t.AccountingInfo != nil {
		for _, cc := range t.AccountingInfo.CurrencyConversion {
			if cc.ExchangeRateCode != nil && *cc.ExchangeRateCode == code {
				if cc.ExchangeRate == nil || cc.NumberOfDecimalPlaces == nil {
					break
				}
				return FromScaled(*cc.ExchangeRate, *cc.NumberOfDecimalPlaces), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownExchangeRateCode, code)
}

// TaxRateByCode resolves a tax code to its scaled rate.
func (t *TransferBatch) TaxRateByCode(code int) (int64, error) {
	if t.AccountingInfo != nil {
		for _, tx := range t.AccountingInfo.Taxation {
			if tx.TaxCode != nil && *tx.TaxCode == code && tx.TaxRate != nil {
				return ParseTaxRate(*tx.TaxRate)
			}
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownTaxCode, code)
}

// DiscountByCode resolves a discount code to its table entry.
func (t *TransferBatch) DiscountByCode(code int) (*Discounting, error) {
	if t.AccountingInfo != nil {
		for i := range t.AccountingInfo.Discounting {
			d := &t.AccountingInfo.Discounting[i]
			if d.DiscountCode != nil && *d.DiscountCode == code {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownDiscountCode, code)
}

// TotalCharge sums the billable charge-detail entries across every call
// event. Compared against the audit section's declared total.
func (t *TransferBatch) TotalCharge() int64 {
	var total int64
	for i := range t.CallEventDetails {
		total += t.CallEventDetails[i].TotalCharge()
	}
	return total
}

// TotalTaxValue sums the tax information values across every call event.
func (t *TransferBatch) TotalTaxValue() int64 {
	var total int64
	for i := range t.CallEventDetails {
		for _, ci := range t.CallEventDetails[i].ChargeInformations() {
			for _, tx := range ci.TaxInformation {
				if tx.TaxValue != nil {
					total += *tx.TaxValue
				}
			}
		}
	}
	return total
}

// TotalDiscountValue sums the discount values across every call event.
func (t *TransferBatch) TotalDiscountValue() int64 {
	var total int64
	for i := range t.CallEventDetails {
		for _, ci := range t.CallEventDetails[i].ChargeInformations() {
			if ci.DiscountInformation != nil && ci.DiscountInformation.Discount != nil {
				total += *ci.DiscountInformation.Discount
			}
		}
	}
	return total
}

// EventCount is the number of call event details, supplementary service
// events included.
func (t *TransferBatch) EventCount() int {
	return len(t.CallEventDetails)
}

// ContainsTaxes reports whether any call event carries tax information.
func (t *TransferBatch) ContainsTaxes() bool {
	for i := range t.CallEventDetails {
		for _, ci := range t.CallEventDetails[i].ChargeInformations() {
			if len(ci.TaxInformation) > 0 {
				return true
			}
		}
	}
	return false
}

// ContainsDiscounts reports whether any call event carries discount
// information.
func (t *TransferBatch) ContainsDiscounts() bool {
	for i := range t.CallEventDetails {
		for _, ci := range t.CallEventDetails[i].ChargeInformations() {
			if ci.DiscountInformation != nil {
				return true
			}
		}
	}
	return false
}

// ContainsPositiveCharges reports whether any billable charge-detail entry
// is above zero. A batch of only zero charges does not need a currency
// conversion table.
func (t *TransferBatch) ContainsPositiveCharges() bool {
	for i := range t.CallEventDetails {
		for _, ci := range t.CallEventDetails[i].ChargeInformations() {
			for _, cd := range ci.ChargeDetailList {
				if cd.ChargeType != nil && *cd.ChargeType == BillableChargeType && cd.Charge != nil && *cd.Charge > 0 {
					return true
				}
			}
		}
	}
	return false
}
