package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ModelKind names a savings model on the wire and in storage.
type ModelKind string

const (
	KindFullSkip       ModelKind = "full-skip"
	KindFractionalSkip ModelKind = "fractional-skip"
	KindFractional     ModelKind = "fractional"
	KindAllOrNothing   ModelKind = "all-or-nothing"
)

// SavingsModel decides how much a skip is worth and how total savings are scored.
// The concrete types are FullSkip, FractionalSkip, LegacyFractional and
// LegacyAllOrNothing; callers dispatch on them with a type switch.
type SavingsModel interface {
	Kind() ModelKind
	isSavingsModel()
}

// FullSkip credits the habit's full expense on every skip.
type FullSkip struct{}

// FractionalSkip credits a share of the weekly savings goal on every skip.
type FractionalSkip struct {
	TypicalWeeklySpend decimal.Decimal
	WeeklySavingsGoal  decimal.Decimal
}

// LegacyFractional scores total savings as skipped × expense.
type LegacyFractional struct{}

// LegacyAllOrNothing only scores complete 7-skip weeks.
type LegacyAllOrNothing struct{}

func (FullSkip) Kind() ModelKind           { return KindFullSkip }
func (FractionalSkip) Kind() ModelKind     { return KindFractionalSkip }
func (LegacyFractional) Kind() ModelKind   { return KindFractional }
func (LegacyAllOrNothing) Kind() ModelKind { return KindAllOrNothing }

func (FullSkip) isSavingsModel()           {}
func (FractionalSkip) isSavingsModel()     {}
func (LegacyFractional) isSavingsModel()   {}
func (LegacyAllOrNothing) isSavingsModel() {}

// NewSavingsModel builds a model from its wire kind. The fractional amounts are
// only read for fractional-skip.
func NewSavingsModel(kind string, typicalWeeklySpend, weeklySavingsGoal decimal.Decimal) (SavingsModel, error) {
	switch ModelKind(kind) {
	case KindFullSkip:
		return FullSkip{}, nil
	case KindFractionalSkip:
		return FractionalSkip{TypicalWeeklySpend: typicalWeeklySpend, WeeklySavingsGoal: weeklySavingsGoal}, nil
	case KindFractional:
		return LegacyFractional{}, nil
	case KindAllOrNothing:
		return LegacyAllOrNothing{}, nil
	}
	return nil, fmt.Errorf("unknown savings model %q", kind)
}

// IsLegacy reports whether m scores savings from the skip counter instead of per-log amounts.
func IsLegacy(m SavingsModel) bool {
	switch m.(type) {
	case LegacyFractional, LegacyAllOrNothing:
		return true
	}
	return false
}
