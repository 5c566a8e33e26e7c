package service

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"sellerctl/internal/model"
	"sellerctl/internal/utils"
)

// ValidationResult is the registry's verdict on a field object
type ValidationResult struct {
	Fields          model.Fields // schema keys only; missing required fields are explicit nil
	MissingRequired []string     // required fields still nil, schema order
	Dropped         []string     // keys not in the schema
	Invalid         []string     // keys whose value could not be coerced
}

// SchemaRegistry defines the fields of every intent
type SchemaRegistry struct {
	schemas map[model.Intent]model.FieldSchema
	meta    map[model.Intent]model.IntentMeta
}

// NewSchemaRegistry creates the registry with the built-in intent set
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: defaultSchemas(), meta: defaultMeta()}
}

func defaultSchemas() map[model.Intent]model.FieldSchema {
	return map[model.Intent]model.FieldSchema{
		model.IntentCreateListing: {
			{Name: "title", Type: model.FieldString, Required: true},
			{Name: "price", Type: model.FieldNumber, Required: true},
			{Name: "condition", Type: model.FieldEnum, Required: true, EnumValues: model.ConditionValues},
			{Name: "quantity", Type: model.FieldNumber},
			{Name: "auto_accept_threshold", Type: model.FieldNumber},
			{Name: "shipping_policy", Type: model.FieldEnum, EnumValues: model.ShippingPolicyValues},
			{Name: "handling_time", Type: model.FieldNumber},
		},
		model.IntentUpdatePrice: {
			{Name: "listing_id", Type: model.FieldString, Required: true},
			{Name: "new_price", Type: model.FieldNumber, Required: true},
		},
		model.IntentEnableOffers: {
			{Name: "listing_id", Type: model.FieldString, Required: true},
			{Name: "auto_accept_threshold", Type: model.FieldNumber},
		},
		model.IntentBulkPriceAdjust: {
			{Name: "adjustment_type", Type: model.FieldEnum, Required: true, EnumValues: model.AdjustmentTypeValues},
			{Name: "adjustment_value", Type: model.FieldNumber, Required: true, Note: "negative for decrease, positive for increase"},
			{Name: "filter_condition", Type: model.FieldEnum, EnumValues: model.ConditionValues},
		},
		model.IntentRespondToBuyer: {
			{Name: "message", Type: model.FieldString, Required: true},
			{Name: "buyer_id", Type: model.FieldString},
			{Name: "listing_id", Type: model.FieldString},
		},
		model.IntentEndListing: {
			{Name: "listing_id", Type: model.FieldString, Required: true},
			{Name: "reason", Type: model.FieldEnum, EnumValues: model.EndReasonValues},
		},
		model.IntentDuplicateListing: {
			{Name: "listing_id", Type: model.FieldString, Required: true},
			{Name: "price_override", Type: model.FieldNumber},
			{Name: "quantity_override", Type: model.FieldNumber},
		},
		model.IntentSendOfferToWatchers: {
			{Name: "listing_id", Type: model.FieldString, Required: true},
			{Name: "discount_type", Type: model.FieldEnum, Required: true, EnumValues: model.AdjustmentTypeValues},
			{Name: "discount_value", Type: model.FieldNumber, Required: true, Note: "positive number, e.g. 10 means 10% off or $10 off"},
		},
		model.IntentUpdateFulfillmentSettings: {
			{Name: "handling_time", Type: model.FieldNumber, Note: "days"},
			{Name: "vacation_mode", Type: model.FieldBoolean},
			{Name: "auto_reply_message", Type: model.FieldString},
		},
		model.IntentBulkEndListings: {
			{Name: "filter_condition", Type: model.FieldEnum, EnumValues: model.ConditionValues},
			{Name: "older_than_days", Type: model.FieldNumber},
			{Name: "below_price", Type: model.FieldNumber},
		},
	}
}

func defaultMeta() map[model.Intent]model.IntentMeta {
	return map[model.Intent]model.IntentMeta{
		model.IntentCreateListing:             {Label: "Create Listing", Category: "Inventory"},
		model.IntentUpdatePrice:               {Label: "Update Price", Category: "Pricing"},
		model.IntentEnableOffers:              {Label: "Enable Offers", Category: "Negotiation"},
		model.IntentBulkPriceAdjust:           {Label: "Bulk Price Adjust", Category: "Pricing", Destructive: true},
		model.IntentRespondToBuyer:            {Label: "Respond to Buyer", Category: "Negotiation"},
		model.IntentEndListing:                {Label: "End Listing", Category: "Inventory", Destructive: true},
		model.IntentDuplicateListing:          {Label: "Duplicate Listing", Category: "Inventory"},
		model.IntentSendOfferToWatchers:       {Label: "Send Offer to Watchers", Category: "Negotiation"},
		model.IntentUpdateFulfillmentSettings: {Label: "Update Fulfillment", Category: "Account"},
		model.IntentBulkEndListings:           {Label: "Bulk End Listings", Category: "Inventory", Destructive: true},
	}
}

// Schema returns the field schema for an intent; unknown intents have none
func (r *SchemaRegistry) Schema(intent model.Intent) model.FieldSchema {
	return r.schemas[intent]
}

// Meta returns display metadata for an intent
func (r *SchemaRegistry) Meta(intent model.Intent) (model.IntentMeta, bool) {
	m, ok := r.meta[intent]
	return m, ok
}

// Describe lists every intent with its metadata and schema, in registry order
func (r *SchemaRegistry) Describe() []model.IntentDescriptor {
	out := make([]model.IntentDescriptor, 0, len(model.KnownIntents))
	for _, in := range model.KnownIntents {
		out = append(out, model.IntentDescriptor{Intent: in, Meta: r.meta[in], Fields: r.schemas[in]})
	}
	return out
}

// Validate strips keys outside the intent's schema, coerces values where the
// conversion is unambiguous and reports required fields that are still null.
// An intent outside the registry is treated as UNKNOWN: no fields survive.
func (r *SchemaRegistry) Validate(intent model.Intent, fields map[string]any) ValidationResult {
	res := ValidationResult{Fields: model.Fields{}}
	schema, ok := r.schemas[intent]
	if !ok {
		for k := range fields {
			res.Dropped = append(res.Dropped, k)
		}
		slices.Sort(res.Dropped)
		return res
	}

	for k := range fields {
		if _, ok := schema.Field(k); !ok {
			res.Dropped = append(res.Dropped, k)
		}
	}
	slices.Sort(res.Dropped)

	for _, spec := range schema {
		raw, present := fields[spec.Name]
		var value any
		if present && raw != nil {
			v, err := CoerceField(spec, raw)
			if err != nil {
				res.Invalid = append(res.Invalid, spec.Name)
			} else {
				value = v
			}
		}

		switch {
		case value != nil:
			res.Fields[spec.Name] = value
		case spec.Required:
			res.Fields[spec.Name] = nil
			res.MissingRequired = append(res.MissingRequired, spec.Name)
		}
	}
	return res
}

// CoerceField converts raw into the field's scalar type.
// A nil result with nil error means the value is blank.
func CoerceField(spec model.FieldSpec, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch spec.Type {
	case model.FieldNumber:
		return coerceNumber(raw)
	case model.FieldString:
		return coerceString(raw)
	case model.FieldBoolean:
		return coerceBool(raw)
	case model.FieldEnum:
		return coerceEnum(spec, raw)
	default:
		return nil, fmt.Errorf("%w: unsupported field type %q", model.ErrInvalidValue, spec.Type)
	}
}

func coerceNumber(raw any) (any, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", model.ErrInvalidValue, v)
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		s = strings.TrimSuffix(strings.TrimPrefix(s, "$"), "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", model.ErrInvalidValue, v)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("%w: %T is not a number", model.ErrInvalidValue, raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite number", model.ErrInvalidValue)
	}
	return f, nil
}

func coerceString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		return s, nil
	case float64:
		// listing ids frequently come back as bare numbers
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	default:
		return nil, fmt.Errorf("%w: %T is not a string", model.ErrInvalidValue, raw)
	}
}

func coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		case "":
			return nil, nil
		}
	case float64:
		if v == 1 {
			return true, nil
		}
		if v == 0 {
			return false, nil
		}
	}
	return nil, fmt.Errorf("%w: %v is not a boolean", model.ErrInvalidValue, raw)
}

func coerceEnum(spec model.FieldSpec, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not one of %v", model.ErrInvalidValue, raw, spec.EnumValues)
	}
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return nil, nil
	}
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if slices.Contains(spec.EnumValues, norm) {
		return norm, nil
	}
	if slices.Equal(spec.EnumValues, model.ConditionValues) {
		if c := utils.NormalizeCondition(s); c != "" {
			return c, nil
		}
	}
	if slices.Equal(spec.EnumValues, model.AdjustmentTypeValues) {
		if a := utils.NormalizeAdjustment(s); a != "" {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not one of %v", model.ErrInvalidValue, s, spec.EnumValues)
}
