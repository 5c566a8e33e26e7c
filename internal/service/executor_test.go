package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerctl/internal/model"
)

func TestEngine_BulkPartialFailure(t *testing.T) {
	platform := newFakePlatform(makeItems(10)...)
	for _, id := range []string{"item-02", "item-05", "item-07", "item-10"} {
		platform.failIDs[id] = "Listing is locked"
	}
	e := NewEngine(platform, DefaultPolicy(), nil).WithClock(fixedClock)

	res := e.Execute(context.Background(), model.BulkPriceAdjustCommand{AdjustmentType: model.AdjustPercentage, AdjustmentValue: -10})

	assert.True(t, res.Success)
	assert.Equal(t, "Adjusted 6/10 listings. 4 failed.", res.Message)
	require.Len(t, res.ItemLogs, 10)
	ok, failed := res.Counts()
	assert.Equal(t, 6, ok)
	assert.Equal(t, 4, failed)

	for i, l := range res.ItemLogs {
		assert.Equal(t, makeItems(10)[i].ID, l.ItemID, "fetch order preserved")
		assert.Equal(t, "$100.00", l.OldValue)
		assert.Equal(t, "$90.00", l.NewValue)
		if !l.Success {
			assert.Equal(t, "Listing is locked", l.Error)
		}
	}
	assert.Equal(t, 90.0, platform.prices["item-01"])
}

func TestEngine_BulkConcurrentKeepsOrder(t *testing.T) {
	platform := newFakePlatform(makeItems(25)...)
	platform.failIDs["item-13"] = "nope"
	e := NewEngine(platform, DefaultPolicy(), nil).WithClock(fixedClock).SetConcurrency(4)

	var mu sync.Mutex
	var seen []int
	res := e.ExecuteStream(context.Background(), model.BulkEndListingsCommand{}, func(done, total int, l model.ItemLog) {
		mu.Lock()
		seen = append(seen, done)
		mu.Unlock()
		assert.Equal(t, 25, total)
	})

	assert.True(t, res.Success)
	assert.Equal(t, "Ended 24/25 listings. 1 failed.", res.Message)
	require.Len(t, res.ItemLogs, 25)
	for i, l := range res.ItemLogs {
		assert.Equal(t, makeItems(25)[i].ID, l.ItemID)
		assert.Equal(t, "ENDED", l.NewValue)
	}
	assert.Len(t, seen, 25)
}

func TestEngine_BulkFloorsPrices(t *testing.T) {
	platform := newFakePlatform(model.Item{ID: "cheap", Title: "Sticker", Price: 0.50})
	e := NewEngine(platform, DefaultPolicy(), nil)

	res := e.Execute(context.Background(), model.BulkPriceAdjustCommand{AdjustmentType: model.AdjustPercentage, AdjustmentValue: -10})
	require.True(t, res.Success)
	assert.Equal(t, 0.99, platform.prices["cheap"])
	assert.Equal(t, "$0.99", res.ItemLogs[0].NewValue)
}

func TestEngine_SafetyCap(t *testing.T) {
	tests := []struct {
		name string
		cmd  model.Command
	}{
		{"watcher offer", model.SendOfferToWatchersCommand{ListingID: "1", DiscountType: model.AdjustPercentage, DiscountValue: 45}},
		{"bulk decrease", model.BulkPriceAdjustCommand{AdjustmentType: model.AdjustPercentage, AdjustmentValue: -50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := newFakePlatform(makeItems(3)...)
			res := NewEngine(platform, DefaultPolicy(), nil).Execute(context.Background(), tt.cmd)
			assert.False(t, res.Success)
			assert.Contains(t, res.Message, "Safety cap")
			assert.Empty(t, res.ItemLogs)
			assert.Zero(t, platform.writeCount())
		})
	}
}

func TestEngine_SingleTarget(t *testing.T) {
	handling := 3
	vacation := true

	tests := []struct {
		name        string
		setup       func(*fakePlatform)
		cmd         model.Command
		wantSuccess bool
		wantMessage string
		wantLogs    int
	}{
		{
			name:        "update price",
			cmd:         model.UpdatePriceCommand{ListingID: "123", NewPrice: 49.999},
			wantSuccess: true,
			wantMessage: "Listing 123 price updated to $50.00.",
			wantLogs:    1,
		},
		{
			name:        "platform refusal is verbatim",
			setup:       func(f *fakePlatform) { f.failIDs["123"] = "Price below category minimum" },
			cmd:         model.UpdatePriceCommand{ListingID: "123", NewPrice: 1},
			wantMessage: "Platform error: Price below category minimum",
			wantLogs:    1,
		},
		{
			name:        "refusal without a message",
			setup:       func(f *fakePlatform) { f.failIDs["123"] = "" },
			cmd:         model.EndListingCommand{ListingID: "123"},
			wantMessage: "Platform error: Unknown error",
			wantLogs:    1,
		},
		{
			name:        "non positive price never reaches the platform",
			cmd:         model.UpdatePriceCommand{ListingID: "123", NewPrice: 0},
			wantMessage: "new_price must be greater than zero.",
		},
		{
			name:        "end listing",
			cmd:         model.EndListingCommand{ListingID: "55", Reason: "damaged"},
			wantSuccess: true,
			wantMessage: "Listing 55 ended.",
			wantLogs:    1,
		},
		{
			name:        "duplicate reports new id",
			cmd:         model.DuplicateListingCommand{ListingID: "55"},
			wantSuccess: true,
			wantMessage: "Listing 55 duplicated. New ID: 55-copy.",
			wantLogs:    1,
		},
		{
			name:        "watcher offer within cap",
			cmd:         model.SendOfferToWatchersCommand{ListingID: "55", DiscountType: model.AdjustPercentage, DiscountValue: 40},
			wantSuccess: true,
			wantMessage: "Offer sent to watchers on listing 55.",
			wantLogs:    1,
		},
		{
			name:        "fulfillment",
			cmd:         model.UpdateFulfillmentCommand{Settings: model.FulfillmentSettings{HandlingTime: &handling, VacationMode: &vacation}},
			wantSuccess: true,
			wantMessage: "Fulfillment updated: handling time → 3d, vacation mode → ON.",
			wantLogs:    1,
		},
		{
			name:        "fulfillment without settings",
			cmd:         model.UpdateFulfillmentCommand{},
			wantMessage: "No fulfillment settings specified.",
		},
		{
			name:        "missing capability",
			setup:       func(f *fakePlatform) { f.callErr = &model.CapabilityError{Capability: "EndItem", Route: "/api/end-listing"} },
			cmd:         model.EndListingCommand{ListingID: "77", Reason: "other"},
			wantMessage: "END_LISTING requires /api/end-listing. Listing: 77, reason: other.",
			wantLogs:    1,
		},
		{
			name:        "transport failure",
			setup:       func(f *fakePlatform) { f.callErr = errBoom },
			cmd:         model.DuplicateListingCommand{ListingID: "77"},
			wantMessage: "Platform error: boom",
			wantLogs:    1,
		},
		{
			name:        "create listing is unsupported",
			cmd:         model.CreateListingCommand{Title: "Lens", Price: 10, Condition: "new"},
			wantMessage: "Creating a listing requires image upload, which this pipeline does not support. Create the listing with photos in the marketplace's listing tool.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := newFakePlatform()
			if tt.setup != nil {
				tt.setup(platform)
			}
			res := NewEngine(platform, DefaultPolicy(), nil).Execute(context.Background(), tt.cmd)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Len(t, res.ItemLogs, tt.wantLogs)
			assert.Equal(t, tt.wantLogs, platform.writeCount())
		})
	}
}

func TestEngine_BulkEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("no matches", func(t *testing.T) {
		below := 1.0
		platform := newFakePlatform(makeItems(3)...)
		res := NewEngine(platform, DefaultPolicy(), nil).Execute(ctx, model.BulkEndListingsCommand{Filter: model.ItemFilter{BelowPrice: &below}})
		assert.False(t, res.Success)
		assert.Equal(t, "No listings matched your filter criteria.", res.Message)
		assert.Zero(t, platform.writeCount())
	})

	t.Run("fetch failure", func(t *testing.T) {
		platform := newFakePlatform()
		platform.listErr = errBoom
		res := NewEngine(platform, DefaultPolicy(), nil).Execute(ctx, model.BulkEndListingsCommand{})
		assert.False(t, res.Success)
		assert.Equal(t, "Could not fetch listings: boom", res.Message)
	})

	t.Run("fully failed", func(t *testing.T) {
		platform := newFakePlatform(makeItems(2)...)
		platform.failIDs["item-01"] = "x"
		platform.failIDs["item-02"] = "y"
		res := NewEngine(platform, DefaultPolicy(), nil).Execute(ctx, model.BulkPriceAdjustCommand{AdjustmentType: model.AdjustFixed, AdjustmentValue: 1})
		assert.False(t, res.Success)
		assert.Equal(t, "Adjusted 0/2 listings. 2 failed.", res.Message)
	})

	t.Run("route missing for every item", func(t *testing.T) {
		platform := newFakePlatform(makeItems(2)...)
		platform.callErr = &model.CapabilityError{Capability: "EndItem", Route: "/api/end-listing"}
		res := NewEngine(platform, DefaultPolicy(), nil).Execute(ctx, model.BulkEndListingsCommand{})
		assert.False(t, res.Success)
		assert.Equal(t, "BULK_END_LISTINGS requires /api/end-listing. 2 listings matched your filter.", res.Message)
		assert.Len(t, res.ItemLogs, 2)
	})

	t.Run("capability without route", func(t *testing.T) {
		platform := newFakePlatform(makeItems(2)...)
		platform.callErr = &model.CapabilityError{Capability: "EndItem"}
		res := NewEngine(platform, DefaultPolicy(), nil).Execute(ctx, model.BulkEndListingsCommand{})
		assert.False(t, res.Success)
		assert.Equal(t, "BULK_END_LISTINGS requires EndItem. 2 listings matched your filter.", res.Message)
	})

	t.Run("canceled before start", func(t *testing.T) {
		platform := newFakePlatform(makeItems(3)...)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		res := NewEngine(platform, DefaultPolicy(), nil).Execute(cctx, model.BulkEndListingsCommand{})
		assert.False(t, res.Success)
		require.Len(t, res.ItemLogs, 3)
		assert.Equal(t, "execution canceled", res.ItemLogs[0].Error)
		assert.Zero(t, platform.writeCount())
	})

	t.Run("condition filter uses normalised condition", func(t *testing.T) {
		items := makeItems(3)
		items[1].Condition = "Brand New"
		platform := newFakePlatform(items...)
		res := NewEngine(platform, DefaultPolicy(), nil).Execute(ctx, model.BulkPriceAdjustCommand{
			AdjustmentType: model.AdjustPercentage, AdjustmentValue: 5, FilterCondition: "new",
		})
		assert.True(t, res.Success)
		assert.Equal(t, "Adjusted 1/1 listings.", res.Message)
		assert.Equal(t, 105.0, platform.prices["item-02"])
	})
}
