package service

import (
	"fmt"
	"math"

	"sellerctl/internal/model"
)

// DecodeCommand converts validated fields into the intent's typed command.
// Required fields must already be present; callers check MissingRequired first.
func DecodeCommand(intent model.Intent, f model.Fields) (model.Command, error) {
	switch intent {
	case model.IntentCreateListing:
		title, _ := f.String("title")
		price, _ := f.Number("price")
		cond, _ := f.String("condition")
		ship, _ := f.String("shipping_policy")
		return model.CreateListingCommand{
			Title:               title,
			Price:               price,
			Condition:           cond,
			Quantity:            intField(f, "quantity"),
			AutoAcceptThreshold: numField(f, "auto_accept_threshold"),
			ShippingPolicy:      ship,
			HandlingTime:        intField(f, "handling_time"),
		}, nil

	case model.IntentUpdatePrice:
		id, _ := f.String("listing_id")
		price, _ := f.Number("new_price")
		return model.UpdatePriceCommand{ListingID: id, NewPrice: price}, nil

	case model.IntentEnableOffers:
		id, _ := f.String("listing_id")
		return model.EnableOffersCommand{ListingID: id, AutoAcceptThreshold: numField(f, "auto_accept_threshold")}, nil

	case model.IntentBulkPriceAdjust:
		kind, _ := f.String("adjustment_type")
		value, _ := f.Number("adjustment_value")
		cond, _ := f.String("filter_condition")
		return model.BulkPriceAdjustCommand{AdjustmentType: kind, AdjustmentValue: value, FilterCondition: cond}, nil

	case model.IntentRespondToBuyer:
		msg, _ := f.String("message")
		buyer, _ := f.String("buyer_id")
		id, _ := f.String("listing_id")
		return model.RespondToBuyerCommand{Message: msg, BuyerID: buyer, ListingID: id}, nil

	case model.IntentEndListing:
		id, _ := f.String("listing_id")
		reason, ok := f.String("reason")
		if !ok {
			reason = "other"
		}
		return model.EndListingCommand{ListingID: id, Reason: reason}, nil

	case model.IntentDuplicateListing:
		id, _ := f.String("listing_id")
		return model.DuplicateListingCommand{
			ListingID:        id,
			PriceOverride:    numField(f, "price_override"),
			QuantityOverride: intField(f, "quantity_override"),
		}, nil

	case model.IntentSendOfferToWatchers:
		id, _ := f.String("listing_id")
		kind, _ := f.String("discount_type")
		value, _ := f.Number("discount_value")
		return model.SendOfferToWatchersCommand{ListingID: id, DiscountType: kind, DiscountValue: value}, nil

	case model.IntentUpdateFulfillmentSettings:
		var s model.FulfillmentSettings
		s.HandlingTime = intField(f, "handling_time")
		if v, ok := f.Bool("vacation_mode"); ok {
			s.VacationMode = &v
		}
		if v, ok := f.String("auto_reply_message"); ok {
			s.AutoReplyMessage = &v
		}
		return model.UpdateFulfillmentCommand{Settings: s}, nil

	case model.IntentBulkEndListings:
		cond, _ := f.String("filter_condition")
		return model.BulkEndListingsCommand{Filter: model.ItemFilter{
			Condition:     cond,
			OlderThanDays: intField(f, "older_than_days"),
			BelowPrice:    numField(f, "below_price"),
		}}, nil
	}

	return nil, fmt.Errorf("no command type for intent %s", intent)
}

func numField(f model.Fields, key string) *float64 {
	v, ok := f.Number(key)
	if !ok {
		return nil
	}
	return &v
}

func intField(f model.Fields, key string) *int {
	v, ok := f.Number(key)
	if !ok {
		return nil
	}
	n := int(math.Round(v))
	return &n
}
