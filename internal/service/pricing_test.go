package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sellerctl/internal/model"
)

func TestAdjustPrice(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name    string
		current float64
		kind    string
		value   float64
		want    float64
	}{
		{"ten percent off 100", 100, model.AdjustPercentage, -10, 90},
		{"ten percent off 0.50 floors", 0.50, model.AdjustPercentage, -10, 0.99},
		{"five percent up", 19.99, model.AdjustPercentage, 5, 20.99},
		{"fixed decrease", 25, model.AdjustFixed, -2.5, 22.5},
		{"fixed decrease below floor", 1.5, model.AdjustFixed, -5, 0.99},
		{"rounds to cents", 33.33, model.AdjustPercentage, -3, 32.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.AdjustPrice(tt.current, tt.kind, tt.value))
		})
	}
}

func TestOfferPrice(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 45.0, p.OfferPrice(50, model.AdjustPercentage, 10))
	assert.Equal(t, 40.0, p.OfferPrice(50, model.AdjustFixed, 10))
	assert.Equal(t, 0.99, p.OfferPrice(5, model.AdjustFixed, 10))
}

func TestCheckDiscount(t *testing.T) {
	p := DefaultPolicy()
	assert.NoError(t, p.CheckDiscount(model.AdjustPercentage, 40, "discount_value"))
	assert.NoError(t, p.CheckDiscount(model.AdjustFixed, 400, "discount_value"))

	err := p.CheckDiscount(model.AdjustPercentage, 45, "discount_value")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "cannot exceed 40%")
	}

	custom := Policy{MaxDiscountPercent: 25, PriceFloor: 0.99}
	assert.Error(t, custom.CheckDiscount(model.AdjustPercentage, 30, "adjustment_value"))
}
