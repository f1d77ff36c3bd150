package extraction

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ValidationError is a reason a record is not acceptable as-is
type ValidationError string

const (
	ErrStoreNameMissing  ValidationError = "store_name_missing"
	ErrStoreNameTooShort ValidationError = "store_name_too_short"
	ErrAmountMissing     ValidationError = "amount_missing"
	ErrAmountInvalid     ValidationError = "amount_invalid"
	ErrAmountNotPositive ValidationError = "amount_not_positive"
	ErrDateMissing       ValidationError = "date_missing"
	ErrDateInvalid       ValidationError = "date_invalid"
	ErrLowConfidence     ValidationError = "low_confidence"
)

const minStoreNameLength = 2

// Validate checks a record against the minimum acceptability rules.
// It reports problems as data and never fails.
func Validate(rec Record, minConfidence float64) []ValidationError {
	errs := make([]ValidationError, 0)

	name := strings.TrimSpace(rec.StoreName)
	switch {
	case name == "":
		errs = append(errs, ErrStoreNameMissing)
	case utf8.RuneCountInString(name) < minStoreNameLength:
		errs = append(errs, ErrStoreNameTooShort)
	}

	amount := strings.TrimSpace(rec.Amount)
	if amount == "" {
		errs = append(errs, ErrAmountMissing)
	} else if v, err := decimal.NewFromString(amount); err != nil {
		errs = append(errs, ErrAmountInvalid)
	} else if !v.IsPositive() {
		errs = append(errs, ErrAmountNotPositive)
	}

	if rec.Date == "" {
		errs = append(errs, ErrDateMissing)
	} else if _, ok := ParseISODate(rec.Date); !ok {
		errs = append(errs, ErrDateInvalid)
	}

	if rec.Confidence.Overall < minConfidence {
		errs = append(errs, ErrLowConfidence)
	}

	return errs
}
