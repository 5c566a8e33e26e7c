package model

// Fields holds schema-constrained scalar values keyed by field name.
// Values are string, float64, bool or nil (an explicitly missing required field).
type Fields map[string]any

// Clone returns a shallow copy; values are scalars so this is a full copy
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns a non-empty string value
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Number returns a numeric value
func (f Fields) Number(key string) (float64, bool) {
	v, ok := f[key].(float64)
	return v, ok
}

// Bool returns a boolean value
func (f Fields) Bool(key string) (bool, bool) {
	v, ok := f[key].(bool)
	return v, ok
}

// ParsedCommand is a classified seller instruction
type ParsedCommand struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Fields     Fields  `json:"fields"`
}

// UnknownCommand is the substitute for anything that could not be classified
func UnknownCommand() ParsedCommand {
	return ParsedCommand{Intent: IntentUnknown, Confidence: 0, Fields: Fields{}}
}

// Command is the typed form of a validated ParsedCommand.
// The set of implementations is closed; see the *Command types below.
type Command interface {
	Intent() Intent
	isCommand()
}

// CreateListingCommand carries CREATE_LISTING fields
type CreateListingCommand struct {
	Title               string
	Price               float64
	Condition           string
	Quantity            *int
	AutoAcceptThreshold *float64
	ShippingPolicy      string
	HandlingTime        *int
}

// UpdatePriceCommand carries UPDATE_PRICE fields
type UpdatePriceCommand struct {
	ListingID string
	NewPrice  float64
}

// EnableOffersCommand carries ENABLE_OFFERS fields
type EnableOffersCommand struct {
	ListingID           string
	AutoAcceptThreshold *float64
}

// BulkPriceAdjustCommand carries BULK_PRICE_ADJUST fields.
// Value is signed: negative decreases, positive increases.
type BulkPriceAdjustCommand struct {
	AdjustmentType  string
	AdjustmentValue float64
	FilterCondition string
}

// RespondToBuyerCommand carries RESPOND_TO_BUYER fields
type RespondToBuyerCommand struct {
	Message   string
	BuyerID   string
	ListingID string
}

// EndListingCommand carries END_LISTING fields
type EndListingCommand struct {
	ListingID string
	Reason    string
}

// DuplicateListingCommand carries DUPLICATE_LISTING fields
type DuplicateListingCommand struct {
	ListingID        string
	PriceOverride    *float64
	QuantityOverride *int
}

// SendOfferToWatchersCommand carries SEND_OFFER_TO_WATCHERS fields.
// DiscountValue is positive: 10 means 10% or $10 off.
type SendOfferToWatchersCommand struct {
	ListingID     string
	DiscountType  string
	DiscountValue float64
}

// UpdateFulfillmentCommand carries UPDATE_FULFILLMENT_SETTINGS fields
type UpdateFulfillmentCommand struct {
	Settings FulfillmentSettings
}

// BulkEndListingsCommand carries BULK_END_LISTINGS filters; all supplied filters apply together
type BulkEndListingsCommand struct {
	Filter ItemFilter
}

func (CreateListingCommand) Intent() Intent       { return IntentCreateListing }
func (UpdatePriceCommand) Intent() Intent         { return IntentUpdatePrice }
func (EnableOffersCommand) Intent() Intent        { return IntentEnableOffers }
func (BulkPriceAdjustCommand) Intent() Intent     { return IntentBulkPriceAdjust }
func (RespondToBuyerCommand) Intent() Intent      { return IntentRespondToBuyer }
func (EndListingCommand) Intent() Intent          { return IntentEndListing }
func (DuplicateListingCommand) Intent() Intent    { return IntentDuplicateListing }
func (SendOfferToWatchersCommand) Intent() Intent { return IntentSendOfferToWatchers }
func (UpdateFulfillmentCommand) Intent() Intent   { return IntentUpdateFulfillmentSettings }
func (BulkEndListingsCommand) Intent() Intent     { return IntentBulkEndListings }

func (CreateListingCommand) isCommand()       {}
func (UpdatePriceCommand) isCommand()         {}
func (EnableOffersCommand) isCommand()        {}
func (BulkPriceAdjustCommand) isCommand()     {}
func (RespondToBuyerCommand) isCommand()      {}
func (EndListingCommand) isCommand()          {}
func (DuplicateListingCommand) isCommand()    {}
func (SendOfferToWatchersCommand) isCommand() {}
func (UpdateFulfillmentCommand) isCommand()   {}
func (BulkEndListingsCommand) isCommand()     {}
