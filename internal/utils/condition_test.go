package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCondition(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"New", "new"},
		{"New with tags", "new"},
		{"Pre-owned", "used"},
		{" USED ", "used"},
		{"Seller refurbished", "refurbished"},
		{"Seller refurbished - like new", "refurbished"},
		{"Open box", "used"},
		{"", ""},
		{"mint", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCondition(tt.in))
		})
	}
}

func TestNormalizeAdjustment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"percentage", "percentage"},
		{"Percent", "percentage"},
		{"%", "percentage"},
		{"percent_off", "percentage"},
		{"fixed", "fixed"},
		{" Dollars ", "fixed"},
		{"$", "fixed"},
		{"fixed amount", "fixed"},
		{"ratio", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAdjustment(tt.in))
		})
	}
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Vintage Nikon F3 Body", ShortTitle("Vintage Nikon F3 Body FREE SHIPPING fast", 55))
	assert.Equal(t, "abc", ShortTitle("abcdef", 3))
	assert.Equal(t, "héllo", ShortTitle("héllo wörld", 5))
}
