package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// TAP carries monetary values as integers scaled by a per-file number of
// decimal places, and tax rates as strings scaled by 10^5. Helpers here do
// the conversions and the range checks the loader applied to 8-byte octets.

const (
	MinFileSequenceNumber = 1
	MaxFileSequenceNumber = 99999

	MinTapDecimalPlaces = 0
	MaxTapDecimalPlaces = 6

	// Tax rates are percent scaled by 10^5: "1500000" means 15%.
	TaxRateScale     = 100000
	MaxScaledTaxRate = 9999999
)

var (
	ErrSequenceSyntax = errors.New("file sequence number is not a decimal string")
	ErrSequenceRange  = errors.New("file sequence number out of range")
	ErrDecimalPlaces  = errors.New("tap decimal places out of range")
	ErrTaxRateSyntax  = errors.New("tax rate is not a decimal string")
	ErrTaxRateRange   = errors.New("tax rate out of range")
)

// FromScaled converts a scaled integer into its monetary value given the
// number of decimal places of the carrying file or table entry.
func FromScaled(value int64, decimalPlaces int) float64 {
	return float64(value) / pow10(decimalPlaces)
}

// RescaleCharge moves a scaled value between two decimal-places exponents.
// Used when a reference charge computed at one precision must be reported
// inside a file written at another.
func RescaleCharge(value int64, fromPlaces, toPlaces int) int64 {
	for fromPlaces < toPlaces {
		value *= 10
		fromPlaces++
	}
	for fromPlaces > toPlaces {
		value /= 10
		fromPlaces--
	}
	return value
}

func pow10(n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}

// ParseSequenceNumber validates the "00001".."99999" file sequence number
// and returns its numeric value.
func ParseSequenceNumber(s string) (int, error) {
	if s == "" {
		return 0, ErrSequenceSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrSequenceSyntax
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrSequenceSyntax
	}
	if n < MinFileSequenceNumber || n > MaxFileSequenceNumber {
		return 0, fmt.Errorf("%w: %d", ErrSequenceRange, n)
	}
	return n, nil
}

// ValidateDecimalPlaces checks the batch-level tap decimal places value.
func ValidateDecimalPlaces(n int) error {
	if n < MinTapDecimalPlaces || n > MaxTapDecimalPlaces {
		return fmt.Errorf("%w: %d", ErrDecimalPlaces, n)
	}
	return nil
}

// ParseTaxRate validates a taxation table rate string and returns the
// scaled value. The string must be all digits and fit the 7-digit bound.
func ParseTaxRate(s string) (int64, error) {
	if s == "" {
		return 0, ErrTaxRateSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrTaxRateSyntax
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrTaxRateSyntax
	}
	if n < 0 || n > MaxScaledTaxRate {
		return 0, fmt.Errorf("%w: %d", ErrTaxRateRange, n)
	}
	return n, nil
}

// TaxRatePercent converts a scaled tax rate into a percentage.
func TaxRatePercent(scaled int64) float64 {
	return float64(scaled) / TaxRateScale
}
