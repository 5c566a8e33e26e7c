package service

import (
	"fmt"
	"math"
	"strconv"

	"sellerctl/internal/model"
)

// Policy is house policy applied to price-changing commands
type Policy struct {
	MaxDiscountPercent float64 // percentage discounts above this are refused
	PriceFloor         float64 // no computed price goes below this
}

// DefaultPolicy returns the stock 40% ceiling and $0.99 floor
func DefaultPolicy() Policy {
	return Policy{MaxDiscountPercent: 40, PriceFloor: 0.99}
}

// RoundCents rounds to 2 decimal places
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// AdjustPrice applies a signed bulk adjustment: percentage computes
// current*(1+value/100), fixed adds value. The result is rounded to cents
// and never below the floor.
func (p Policy) AdjustPrice(current float64, kind string, value float64) float64 {
	var next float64
	if kind == model.AdjustPercentage {
		next = current * (1 + value/100)
	} else {
		next = current + value
	}
	return math.Max(p.PriceFloor, RoundCents(next))
}

// OfferPrice is the price watchers are offered for a positive discount
func (p Policy) OfferPrice(current float64, kind string, discount float64) float64 {
	var next float64
	if kind == model.AdjustPercentage {
		next = current * (1 - discount/100)
	} else {
		next = current - discount
	}
	return math.Max(p.PriceFloor, RoundCents(next))
}

// CheckDiscount refuses percentage discounts deeper than the ceiling.
// percent is the size of the cut as a positive number.
func (p Policy) CheckDiscount(kind string, percent float64, field string) error {
	if kind != model.AdjustPercentage || percent <= p.MaxDiscountPercent {
		return nil
	}
	return fmt.Errorf("Safety cap: discount cannot exceed %s%%. Reduce %s and retry.", formatNumber(p.MaxDiscountPercent), field)
}

func formatPrice(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
