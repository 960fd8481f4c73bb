// Package pricing computes purchase totals in integer minor currency units.
//
// Rates are exact decimals. Each derived amount is truncated toward zero
// before it feeds the next step, so tax and admin fee never round up.
package pricing

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrOverflow = errors.New("purchase total exceeds the int64 range")

var maxTotal = decimal.NewFromInt(math.MaxInt64)

var (
	DefaultTaxRate      = decimal.RequireFromString("0.10")
	DefaultAdminFeeRate = decimal.RequireFromString("0.05")
)

// Breakdown is the priced result of buying Quantity units at UnitPrice.
type Breakdown struct {
	UnitPrice int64 `json:"price"`
	Quantity  int64 `json:"quantity"`
	Subtotal  int64 `json:"subtotal"`
	Tax       int64 `json:"tax"`
	AdminFee  int64 `json:"admin_fee"`
	Total     int64 `json:"total"`
}

type Calculator struct {
	TaxRate      decimal.Decimal
	AdminFeeRate decimal.Decimal
}

// NewCalculator parses the configured rates.
func NewCalculator(taxRate, adminFeeRate string) (*Calculator, error) {
	tax, err := decimal.NewFromString(taxRate)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid tax rate %q", taxRate)
	}
	fee, err := decimal.NewFromString(adminFeeRate)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid admin fee rate %q", adminFeeRate)
	}
	if tax.IsNegative() || fee.IsNegative() {
		return nil, errors.New("rates must not be negative")
	}
	return &Calculator{TaxRate: tax, AdminFeeRate: fee}, nil
}

// Default returns a calculator with the standard 10% tax and 5% admin fee.
func Default() *Calculator {
	return &Calculator{TaxRate: DefaultTaxRate, AdminFeeRate: DefaultAdminFeeRate}
}

// Quote prices a purchase. Inputs are assumed already validated; a total
// that does not fit in int64 yields ErrOverflow.
func (c *Calculator) Quote(unitPrice, quantity int64) (Breakdown, error) {
	subtotal := decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(quantity))
	tax := subtotal.Mul(c.TaxRate).Truncate(0)
	fee := subtotal.Add(tax).Mul(c.AdminFeeRate).Truncate(0)
	total := subtotal.Add(tax).Add(fee)
	if total.GreaterThan(maxTotal) || total.IsNegative() {
		return Breakdown{}, errors.Wrapf(ErrOverflow, "price %d x %d", unitPrice, quantity)
	}
	return Breakdown{
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Subtotal:  subtotal.IntPart(),
		Tax:       tax.IntPart(),
		AdminFee:  fee.IntPart(),
		Total:     total.IntPart(),
	}, nil
}
