package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sellerctl/internal/utils"
)

// Item is an active marketplace listing as reported by the platform
type Item struct {
	ID           string    `json:"itemId" db:"item_id"`
	Title        string    `json:"title" db:"title"`
	Price        float64   `json:"price" db:"price"`
	WatcherCount int       `json:"watchCount" db:"watcher_count"`
	BidCount     int       `json:"bids" db:"bid_count"`
	StartTime    time.Time `json:"startTime" db:"start_time"`
	Condition    string    `json:"condition,omitempty" db:"condition"`
}

// DisplayTitle falls back to the item ID when the title is blank
func (i Item) DisplayTitle() string {
	if strings.TrimSpace(i.Title) == "" {
		return i.ID
	}
	return i.Title
}

// AgeDays is the number of whole days the listing has been live at now.
// Listings without a start time have no age.
func (i Item) AgeDays(now time.Time) (int, bool) {
	if i.StartTime.IsZero() {
		return 0, false
	}
	return int(now.Sub(i.StartTime).Hours() / 24), true
}

// ItemFilter selects targets for bulk commands. Nil or empty members do not filter.
type ItemFilter struct {
	Condition     string
	OlderThanDays *int
	BelowPrice    *float64
}

// IsEmpty reports whether the filter selects everything
func (f ItemFilter) IsEmpty() bool {
	return f.Condition == "" && f.OlderThanDays == nil && f.BelowPrice == nil
}

// Matches applies every supplied criterion conjunctively
func (f ItemFilter) Matches(item Item, now time.Time) bool {
	if f.Condition != "" && utils.NormalizeCondition(item.Condition) != f.Condition {
		return false
	}
	if f.OlderThanDays != nil {
		age, ok := item.AgeDays(now)
		if !ok || age < *f.OlderThanDays {
			return false
		}
	}
	if f.BelowPrice != nil && !(item.Price < *f.BelowPrice) {
		return false
	}
	return true
}

// Apply returns the matching items in their original order
func (f ItemFilter) Apply(items []Item, now time.Time) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Matches(it, now) {
			out = append(out, it)
		}
	}
	return out
}

// Outcome is the platform's answer to a single write call
type Outcome struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	NewItemID string `json:"newItemId,omitempty"`
}

// DuplicateOverrides are optional changes applied to a duplicated listing
type DuplicateOverrides struct {
	Price    *float64 `json:"priceOverride,omitempty"`
	Quantity *int     `json:"quantityOverride,omitempty"`
}

// WatcherDiscount is the discount offered to a listing's watchers.
// Value is positive: 10 means 10% or $10 off depending on Type.
type WatcherDiscount struct {
	Type  string  `json:"discountType"`
	Value float64 `json:"discountValue"`
}

// FulfillmentSettings are account-level fulfillment changes; nil members are left untouched
type FulfillmentSettings struct {
	HandlingTime     *int    `json:"handling_time,omitempty"`
	VacationMode     *bool   `json:"vacation_mode,omitempty"`
	AutoReplyMessage *string `json:"auto_reply_message,omitempty"`
}

// IsEmpty reports whether no setting is being changed
func (s FulfillmentSettings) IsEmpty() bool {
	return s.HandlingTime == nil && s.VacationMode == nil && s.AutoReplyMessage == nil
}

// CapabilityError reports that the platform adapter has no route for an operation
type CapabilityError struct {
	Capability string // e.g. "EndItem"
	Route      string // e.g. "/api/end-listing"
}

func (e *CapabilityError) Error() string {
	if e.Route != "" {
		return fmt.Sprintf("%s is not available (missing backend route %s)", e.Capability, e.Route)
	}
	return fmt.Sprintf("%s is not available", e.Capability)
}

// Sentinel errors
var (
	ErrCommandNotFound = errors.New("command not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownField    = errors.New("field is not defined for this intent")
	ErrInvalidValue    = errors.New("value does not match the field type")
)
