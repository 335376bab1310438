package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// EffectivePriceCents applies the product's discount percent to its list price.
// The result is rounded half-up to whole cents so the same product always
// snapshots to the same unit price.
func EffectivePriceCents(priceCents int64, discountPercent float64) (int64, error) {
	if priceCents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if discountPercent < 0 || discountPercent > 100 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}

	price := decimal.NewFromInt(priceCents)
	discount := decimal.NewFromFloat(discountPercent)
	factor := hundred.Sub(discount).Div(hundred)

	return price.Mul(factor).Round(0).IntPart(), nil
}

// LineAmountCents snapshots one line: quantity times the product's effective
// unit price at the time of the write.
func LineAmountCents(product models.Product, quantity int) (int64, error) {
	if quantity <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	unit, err := EffectivePriceCents(product.PriceCents, product.DiscountPercent)
	if err != nil {
		return 0, err
	}
	return unit * int64(quantity), nil
}

// SumAmounts totals a set of snapshot amounts.
func SumAmounts(amounts []int64) int64 {
	var total int64
	for _, amount := range amounts {
		total += amount
	}
	return total
}
