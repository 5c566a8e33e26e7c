package service

import (
	"fmt"
	"math"
	"strings"

	"sellerctl/internal/model"
)

// Summarize describes a parsed command in one sentence
func Summarize(cmd model.ParsedCommand) string {
	f := cmd.Fields
	str := func(k string) string { s, _ := f.String(k); return s }
	num := func(k string) string {
		if v, ok := f.Number(k); ok {
			return formatNumber(v)
		}
		return "?"
	}

	switch cmd.Intent {
	case model.IntentCreateListing:
		return fmt.Sprintf("Create a new listing for %q at $%s.", str("title"), num("price"))

	case model.IntentUpdatePrice:
		return fmt.Sprintf("Update listing %s price to $%s.", str("listing_id"), num("new_price"))

	case model.IntentEnableOffers:
		s := "Enable Best Offer on listing " + str("listing_id")
		if v, ok := f.Number("auto_accept_threshold"); ok && v > 0 {
			s += " with auto-accept at $" + formatNumber(v)
		}
		return s + "."

	case model.IntentBulkPriceAdjust:
		v, _ := f.Number("adjustment_value")
		dir := "Decrease"
		if v > 0 {
			dir = "Increase"
		}
		scope := " all listings"
		if c := str("filter_condition"); c != "" {
			scope = " all " + c + " listings"
		}
		amount := "$" + formatNumber(math.Abs(v))
		if str("adjustment_type") == model.AdjustPercentage {
			amount = formatNumber(math.Abs(v)) + "%"
		}
		return fmt.Sprintf("%s%s by %s.", dir, scope, amount)

	case model.IntentRespondToBuyer:
		buyer := ""
		if b := str("buyer_id"); b != "" {
			buyer = " " + b
		}
		return fmt.Sprintf("Send message to buyer%s: %q", buyer, str("message"))

	case model.IntentEndListing:
		s := "End listing " + str("listing_id")
		if r := str("reason"); r != "" {
			s += " — reason: " + strings.ReplaceAll(r, "_", " ")
		}
		return s + "."

	case model.IntentDuplicateListing:
		var overrides []string
		if _, ok := f.Number("price_override"); ok {
			overrides = append(overrides, "price $"+num("price_override"))
		}
		if _, ok := f.Number("quantity_override"); ok {
			overrides = append(overrides, "qty "+num("quantity_override"))
		}
		s := "Duplicate listing " + str("listing_id")
		if len(overrides) > 0 {
			s += " with " + strings.Join(overrides, ", ")
		}
		return s + "."

	case model.IntentSendOfferToWatchers:
		disc := "$" + num("discount_value") + " off"
		if str("discount_type") == model.AdjustPercentage {
			disc = num("discount_value") + "% off"
		}
		return fmt.Sprintf("Send %s offer to all watchers on listing %s.", disc, str("listing_id"))

	case model.IntentUpdateFulfillmentSettings:
		var parts []string
		if v, ok := f.Number("handling_time"); ok {
			unit := "days"
			if v == 1 {
				unit = "day"
			}
			parts = append(parts, fmt.Sprintf("handling time: %s %s", formatNumber(v), unit))
		}
		if v, ok := f.Bool("vacation_mode"); ok {
			parts = append(parts, "vacation mode: "+onOff(v))
		}
		if str("auto_reply_message") != "" {
			parts = append(parts, "auto-reply message set")
		}
		if len(parts) == 0 {
			return "Update fulfillment settings: no changes specified."
		}
		return "Update fulfillment settings: " + strings.Join(parts, ", ") + "."

	case model.IntentBulkEndListings:
		var filters []string
		if c := str("filter_condition"); c != "" {
			filters = append(filters, "condition: "+c)
		}
		if _, ok := f.Number("older_than_days"); ok {
			filters = append(filters, "older than "+num("older_than_days")+" days")
		}
		if _, ok := f.Number("below_price"); ok {
			filters = append(filters, "priced below $"+num("below_price"))
		}
		if len(filters) == 0 {
			return "End all listings."
		}
		return "End all listings where " + strings.Join(filters, " and ") + "."
	}

	return "Intent not recognized."
}
