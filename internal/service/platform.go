package service

import (
	"context"

	"sellerctl/internal/model"
)

// ListingReader is the read side of the marketplace
type ListingReader interface {
	ListActiveItems(ctx context.Context) ([]model.Item, error)
}

// Platform is the marketplace management API. A returned error is a
// transport or capability problem; a platform refusal is an Outcome with
// Success=false and the platform's own message.
type Platform interface {
	ListingReader
	SetPrice(ctx context.Context, itemID string, price float64) (model.Outcome, error)
	EndItem(ctx context.Context, itemID, reason string) (model.Outcome, error)
	DuplicateItem(ctx context.Context, itemID string, overrides model.DuplicateOverrides) (model.Outcome, error)
	SendWatcherOffer(ctx context.Context, itemID string, discount model.WatcherDiscount) (model.Outcome, error)
	UpdateFulfillment(ctx context.Context, settings model.FulfillmentSettings) (model.Outcome, error)
}

func findItem(items []model.Item, id string) (model.Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}
