package entries

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
	"github.com/angelmondragon/entrydesk-backend/pkg/types"
)

const (
	msgAmountPositive  = "amount must be greater than zero"
	msgAmountPrecision = "amount must have at most 2 decimal places"
	msgAmountTooLarge  = "amount must be less than 100000000"
	msgDateRequired    = "entry date is required"
	msgDateInFuture    = "entry date cannot be in the future"
	msgDuplicateDate   = "an entry already exists for this date"
	msgInvalidCategory = "category must be one of PERSONAL, WORK, EDUCATION"
	msgReasonRequired  = "rejection reason is required"
)

// maxAmount is the first value that no longer fits NUMERIC(10,2).
var maxAmount = decimal.New(1, 8)

// fieldErrors collects rule violations in the order they were found.
type fieldErrors struct {
	fields map[string]string
	first  string
}

func (f *fieldErrors) add(field, message string) {
	if f.fields == nil {
		f.fields = map[string]string{}
	}
	if _, exists := f.fields[field]; exists {
		return
	}
	f.fields[field] = message
	if f.first == "" {
		f.first = message
	}
}

func (f *fieldErrors) err() error {
	if len(f.fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, f.first).WithDetails(f.fields)
}

func validateAmount(errs *fieldErrors, amount decimal.Decimal) {
	switch {
	case !amount.IsPositive():
		errs.add("amount", msgAmountPositive)
	case !amount.Equal(amount.Round(2)):
		errs.add("amount", msgAmountPrecision)
	case amount.GreaterThanOrEqual(maxAmount):
		errs.add("amount", msgAmountTooLarge)
	}
}

func validateEntryDate(errs *fieldErrors, date types.Date, today types.Date) {
	switch {
	case date.IsZero():
		errs.add("entry_date", msgDateRequired)
	case date.After(today):
		errs.add("entry_date", msgDateInFuture)
	}
}

func validateCategory(errs *fieldErrors, category enums.EntryCategory) {
	if !category.IsValid() {
		errs.add("category", msgInvalidCategory)
	}
}

func duplicateDateError() error {
	return pkgerrors.New(pkgerrors.CodeValidation, msgDuplicateDate).
		WithDetails(map[string]string{"entry_date": msgDuplicateDate})
}

func notPendingError(action string) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "entry is not pending and cannot be %s", action)
}
