package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MinorUnitFactor converts major currency units to minor ones (paise,
// cents). Fixed at 100 for every currency this shop settles in.
const MinorUnitFactor = 100

// AmountMinor computes unitPrice × quantity in minor units. unitPrice is
// a decimal string in major units, as stored on the price row. The
// result must be a whole number of minor units; a price with sub-minor
// precision is a data error, not something to round silently.
func AmountMinor(unitPrice string, quantity int) (int64, error) {
	if quantity <= 0 {
		return 0, errors.New("quantity must be positive")
	}
	price, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return 0, errors.New("invalid unit price")
	}
	if price.Sign() <= 0 {
		return 0, errors.New("unit price must be positive")
	}

	total := price.Mul(decimal.NewFromInt(int64(quantity))).Mul(decimal.NewFromInt(MinorUnitFactor))
	if !total.IsInteger() {
		return 0, errors.New("unit price has sub-minor precision")
	}
	return total.IntPart(), nil
}
