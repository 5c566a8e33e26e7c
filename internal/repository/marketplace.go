package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sellerctl/internal/model"
	"sellerctl/internal/utils"
)

// Marketplace backend routes
const (
	RouteActiveListings    = "/api/active-listings"
	RouteApplyOptimization = "/api/apply-optimization"
	RouteEndListing        = "/api/end-listing"
	RouteDuplicateListing  = "/api/duplicate-listing"
	RouteSendOffer         = "/api/send-offer-to-watchers"
	RouteUpdateFulfillment = "/api/update-fulfillment"
)

// MarketplaceClient talks to a seller backend that fronts the marketplace API
type MarketplaceClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewMarketplaceClient creates a marketplace client
func NewMarketplaceClient(baseURL, token string, timeout time.Duration) *MarketplaceClient {
	return &MarketplaceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// backendResponse is the envelope every write route answers with
type backendResponse struct {
	Success   bool            `json:"success"`
	Error     string          `json:"error"`
	Errors    []string        `json:"errors"`
	NewItemID string          `json:"newItemId"`
	Items     []listingRecord `json:"items"`
}

// listingRecord tolerates backends that send prices and counts as strings
type listingRecord struct {
	ItemID       string    `json:"itemId"`
	Title        string    `json:"title"`
	Price        flexFloat `json:"price"`
	WatchCount   flexFloat `json:"watchCount"`
	Bids         flexFloat `json:"bids"`
	StartTime    string    `json:"startTime"`
	Condition    string    `json:"condition"`
	ConditionAlt string    `json:"conditionDisplayName"`
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

func (l listingRecord) toItem() model.Item {
	item := model.Item{
		ID:           l.ItemID,
		Title:        l.Title,
		Price:        float64(l.Price),
		WatcherCount: int(l.WatchCount),
		BidCount:     int(l.Bids),
		Condition:    l.Condition,
	}
	if item.Condition == "" {
		item.Condition = l.ConditionAlt
	}
	if l.StartTime != "" {
		if t, err := time.Parse(time.RFC3339, l.StartTime); err == nil {
			item.StartTime = t
		}
	}
	return item
}

// ListActiveItems fetches the seller's active listings
func (c *MarketplaceClient) ListActiveItems(ctx context.Context) ([]model.Item, error) {
	resp, err := c.do(ctx, http.MethodGet, RouteActiveListings, "ListActiveItems", nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("backend refused listing fetch: %s", resp.message())
	}
	items := make([]model.Item, 0, len(resp.Items))
	for _, rec := range resp.Items {
		items = append(items, rec.toItem())
	}
	return items, nil
}

// SetPrice revises a listing's price
func (c *MarketplaceClient) SetPrice(ctx context.Context, itemID string, price float64) (model.Outcome, error) {
	body := map[string]any{"itemId": itemID, "changes": map[string]any{"price": price}}
	return c.write(ctx, RouteApplyOptimization, "SetPrice", body)
}

// EndItem ends a listing
func (c *MarketplaceClient) EndItem(ctx context.Context, itemID, reason string) (model.Outcome, error) {
	return c.write(ctx, RouteEndListing, "EndItem", map[string]any{"itemId": itemID, "reason": reason})
}

// DuplicateItem relists a copy of a listing
func (c *MarketplaceClient) DuplicateItem(ctx context.Context, itemID string, overrides model.DuplicateOverrides) (model.Outcome, error) {
	body := map[string]any{"itemId": itemID}
	if overrides.Price != nil {
		body["priceOverride"] = *overrides.Price
	}
	if overrides.Quantity != nil {
		body["quantityOverride"] = *overrides.Quantity
	}
	return c.write(ctx, RouteDuplicateListing, "DuplicateItem", body)
}

// SendWatcherOffer sends a discount to a listing's watchers
func (c *MarketplaceClient) SendWatcherOffer(ctx context.Context, itemID string, discount model.WatcherDiscount) (model.Outcome, error) {
	body := map[string]any{"itemId": itemID, "discountType": discount.Type, "discountValue": discount.Value}
	return c.write(ctx, RouteSendOffer, "SendWatcherOffer", body)
}

// UpdateFulfillment changes account fulfillment settings
func (c *MarketplaceClient) UpdateFulfillment(ctx context.Context, settings model.FulfillmentSettings) (model.Outcome, error) {
	return c.write(ctx, RouteUpdateFulfillment, "UpdateFulfillment", settings)
}

func (c *MarketplaceClient) write(ctx context.Context, route, capability string, body any) (model.Outcome, error) {
	resp, err := c.do(ctx, http.MethodPost, route, capability, body)
	if err != nil {
		return model.Outcome{}, err
	}
	if !resp.Success {
		return model.Outcome{Error: resp.message()}, nil
	}
	return model.Outcome{Success: true, NewItemID: resp.NewItemID}, nil
}

func (c *MarketplaceClient) do(ctx context.Context, method, route, capability string, body any) (*backendResponse, error) {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", route, err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return nil, &model.CapabilityError{Capability: capability, Route: route}
	}

	var out backendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%s failed with status %d: %s", route, resp.StatusCode, utils.Truncate(string(raw), 200))
		}
		return nil, fmt.Errorf("failed to decode %s response: %w", route, err)
	}
	// Non-2xx with a JSON envelope is a platform refusal, not a transport failure
	if resp.StatusCode >= 300 && out.Success {
		out.Success = false
	}
	return &out, nil
}

func (r *backendResponse) message() string {
	if len(r.Errors) > 0 {
		return strings.Join(r.Errors, ", ")
	}
	return r.Error
}
