package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VATRate is applied when an item carries labour/parts prices but no VAT-inclusive total.
var VATRate = decimal.NewFromFloat(0.20)

var (
	vatMultiplier = decimal.NewFromInt(1).Add(VATRate)
	hundred       = decimal.NewFromInt(100)
)

// ParseAmount converts a stored numeric to a decimal. Anything unparseable becomes zero.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// EffectiveTotal resolves the VAT-inclusive value of an item on its own,
// preferring the selected option's figures over the item's.
func EffectiveTotal(it RepairItem) decimal.Decimal {
	labour, parts, total := it.LabourTotal, it.PartsTotal, it.TotalIncVat
	if it.SelectedOption != nil {
		labour, parts, total = it.SelectedOption.LabourTotal, it.SelectedOption.PartsTotal, it.SelectedOption.TotalIncVat
	}
	if !total.IsZero() {
		return total
	}
	net := labour.Add(parts)
	if net.IsZero() {
		return decimal.Zero
	}
	return net.Mul(vatMultiplier)
}

// RoundCurrency rounds to two decimal places.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundPercent rounds to one decimal place.
func RoundPercent(d decimal.Decimal) decimal.Decimal {
	return d.Round(1)
}

// Percent returns part/whole*100, or nil when whole is zero.
func Percent(part, whole decimal.Decimal) *decimal.Decimal {
	if whole.IsZero() {
		return nil
	}
	p := RoundPercent(part.Div(whole).Mul(hundred))
	return &p
}
