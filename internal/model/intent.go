package model

import (
	"strings"
)

// Intent identifies the kind of action a seller command requests
type Intent string

// The closed set of intents
const (
	IntentCreateListing             Intent = "CREATE_LISTING"
	IntentUpdatePrice               Intent = "UPDATE_PRICE"
	IntentEnableOffers              Intent = "ENABLE_OFFERS"
	IntentBulkPriceAdjust           Intent = "BULK_PRICE_ADJUST"
	IntentRespondToBuyer            Intent = "RESPOND_TO_BUYER"
	IntentEndListing                Intent = "END_LISTING"
	IntentDuplicateListing          Intent = "DUPLICATE_LISTING"
	IntentSendOfferToWatchers       Intent = "SEND_OFFER_TO_WATCHERS"
	IntentUpdateFulfillmentSettings Intent = "UPDATE_FULFILLMENT_SETTINGS"
	IntentBulkEndListings           Intent = "BULK_END_LISTINGS"
	IntentUnknown                   Intent = "UNKNOWN"
)

// KnownIntents lists every actionable intent in registry order (UNKNOWN excluded)
var KnownIntents = []Intent{
	IntentCreateListing,
	IntentUpdatePrice,
	IntentEnableOffers,
	IntentBulkPriceAdjust,
	IntentRespondToBuyer,
	IntentEndListing,
	IntentDuplicateListing,
	IntentSendOfferToWatchers,
	IntentUpdateFulfillmentSettings,
	IntentBulkEndListings,
}

// ParseIntent maps a classifier label onto the closed set.
// "update-price", "update_price" and "Update Price" all resolve to UPDATE_PRICE.
// Anything else is IntentUnknown.
func ParseIntent(s string) Intent {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, in := range KnownIntents {
		if string(in) == norm {
			return in
		}
	}
	return IntentUnknown
}

// IsKnown reports whether the intent is actionable
func (i Intent) IsKnown() bool {
	return i != IntentUnknown && ParseIntent(string(i)) == i
}

// IntentMeta is display metadata for an intent
type IntentMeta struct {
	Label       string `json:"label"`
	Category    string `json:"category"`
	Destructive bool   `json:"destructive"`
}

// FieldType is the scalar type of a command field
type FieldType string

// Field types
const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldEnum    FieldType = "enum"
)

// FieldSpec describes one field of an intent
type FieldSpec struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required"`
	EnumValues []string  `json:"enum_values,omitempty"`
	Note       string    `json:"note,omitempty"` // extra guidance for the classifier
}

// FieldSchema is the ordered field list for one intent
type FieldSchema []FieldSpec

// Field looks up a field by name
func (s FieldSchema) Field(name string) (FieldSpec, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Required returns the names of required fields in schema order
func (s FieldSchema) Required() []string {
	var names []string
	for _, f := range s {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Enum values shared by several intents
var (
	ConditionValues      = []string{"new", "used", "refurbished"}
	ShippingPolicyValues = []string{"free", "calculated", "flat"}
	AdjustmentTypeValues = []string{"percentage", "fixed"}
	EndReasonValues      = []string{"out_of_stock", "damaged", "other"}
)

// Adjustment kinds for bulk price changes and watcher offers
const (
	AdjustPercentage = "percentage"
	AdjustFixed      = "fixed"
)
