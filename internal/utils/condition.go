package utils

import (
	"regexp"
	"strings"
)

var conditionAliases = map[string][]string{
	"new":         {"new", "brand new", "new with tags", "new with box", "new without tags", "new other", "nwt", "nib", "sealed"},
	"refurbished": {"refurbished", "seller refurbished", "certified refurbished", "manufacturer refurbished", "renewed", "refurb"},
	"used":        {"used", "pre-owned", "preowned", "pre owned", "second hand", "secondhand", "for parts", "open box"},
}

var adjustmentAliases = map[string]string{
	"percentage": "percentage", "percent": "percentage", "pct": "percentage", "%": "percentage",
	"percent off": "percentage", "percentage off": "percentage",
	"fixed": "fixed", "fixed amount": "fixed", "amount": "fixed", "flat": "fixed",
	"dollar": "fixed", "dollars": "fixed", "$": "fixed", "usd": "fixed", "dollars off": "fixed",
}

var shippingBlurbRe = regexp.MustCompile(`(?i)FREE\s*SHIP.*`)

// NormalizeCondition maps a platform or user condition string onto
// new, used or refurbished. Unrecognised input returns "".
func NormalizeCondition(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return ""
	}

	// Exact alias match
	for canonical, aliases := range conditionAliases {
		for _, alias := range aliases {
			if lower == alias {
				return canonical
			}
		}
	}

	// Contains match; refurbished first since "seller refurbished, like new" is not new
	for _, canonical := range []string{"refurbished", "used", "new"} {
		for _, alias := range conditionAliases[canonical] {
			if strings.Contains(lower, alias) {
				return canonical
			}
		}
	}
	return ""
}

// NormalizeAdjustment maps a discount or adjustment kind onto percentage or
// fixed. Unrecognised input returns "".
func NormalizeAdjustment(s string) string {
	lower := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return adjustmentAliases[strings.ReplaceAll(lower, "_", " ")]
}

// ShortTitle strips shipping blurbs from a listing title and caps it at maxRunes
func ShortTitle(title string, maxRunes int) string {
	t := strings.TrimSpace(shippingBlurbRe.ReplaceAllString(title, ""))
	r := []rune(t)
	if len(r) > maxRunes {
		return strings.TrimSpace(string(r[:maxRunes]))
	}
	return t
}
