package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sellerctl/internal/model"
)

const unknownPlatformError = "Unknown error"

// Engine executes confirmed commands against the platform
type Engine struct {
	platform    Platform
	policy      Policy
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// NewEngine creates an execution engine. Bulk calls run one at a time
// unless SetConcurrency raises the limit.
func NewEngine(platform Platform, policy Policy, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{platform: platform, policy: policy, concurrency: 1, now: time.Now, logger: logger}
}

// SetConcurrency bounds concurrent per-item calls during bulk fan-out
func (e *Engine) SetConcurrency(n int) *Engine {
	e.concurrency = max(n, 1)
	return e
}

// WithClock replaces the clock used for listing age filters
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Policy returns the policy the engine enforces
func (e *Engine) Policy() Policy {
	return e.policy
}

// Execute performs cmd and reports its outcome
func (e *Engine) Execute(ctx context.Context, cmd model.Command) model.ExecutionResult {
	return e.ExecuteStream(ctx, cmd, nil)
}

// ExecuteStream is Execute with per-item progress for bulk commands
func (e *Engine) ExecuteStream(ctx context.Context, cmd model.Command, progress ProgressFunc) model.ExecutionResult {
	if cmd == nil {
		return failure(fmt.Sprintf("Unknown intent: %s", model.IntentUnknown))
	}
	start := time.Now()
	res := e.dispatch(ctx, cmd, progress)
	ok, failed := res.Counts()
	e.logger.Info("command executed",
		zap.String("intent", string(cmd.Intent())),
		zap.Bool("success", res.Success),
		zap.Int("items_ok", ok),
		zap.Int("items_failed", failed),
		zap.Duration("elapsed", time.Since(start)))
	return res
}

func (e *Engine) dispatch(ctx context.Context, cmd model.Command, progress ProgressFunc) model.ExecutionResult {
	switch c := cmd.(type) {
	case model.UpdatePriceCommand:
		return e.updatePrice(ctx, c)
	case model.BulkPriceAdjustCommand:
		return e.bulkPriceAdjust(ctx, c, progress)
	case model.EndListingCommand:
		return e.endListing(ctx, c)
	case model.DuplicateListingCommand:
		return e.duplicateListing(ctx, c)
	case model.SendOfferToWatchersCommand:
		return e.sendOffer(ctx, c)
	case model.UpdateFulfillmentCommand:
		return e.updateFulfillment(ctx, c)
	case model.BulkEndListingsCommand:
		return e.bulkEnd(ctx, c, progress)
	case model.EnableOffersCommand:
		return failure(fmt.Sprintf("%s requires a listing revision route (Best Offer settings), which this platform does not provide. Listing: %s.",
			c.Intent(), orDefault(c.ListingID, "not specified")))
	case model.CreateListingCommand:
		return failure("Creating a listing requires image upload, which this pipeline does not support. Create the listing with photos in the marketplace's listing tool.")
	case model.RespondToBuyerCommand:
		return failure(fmt.Sprintf("%s requires a buyer messaging route, which this platform does not provide. Message staged: %q", c.Intent(), c.Message))
	}
	return failure(fmt.Sprintf("Unknown intent: %s", cmd.Intent()))
}

func (e *Engine) updatePrice(ctx context.Context, c model.UpdatePriceCommand) model.ExecutionResult {
	if c.NewPrice <= 0 {
		return failure("new_price must be greater than zero.")
	}
	price := RoundCents(c.NewPrice)
	outcome, err := e.platform.SetPrice(ctx, c.ListingID, price)
	return single(c.ListingID, formatPrice(price), outcome, err,
		fmt.Sprintf("Listing %s price updated to %s.", c.ListingID, formatPrice(price)),
		fmt.Sprintf("Listing: %s.", c.ListingID), c.Intent())
}

func (e *Engine) endListing(ctx context.Context, c model.EndListingCommand) model.ExecutionResult {
	reason := orDefault(c.Reason, "other")
	outcome, err := e.platform.EndItem(ctx, c.ListingID, reason)
	return single(c.ListingID, "ENDED", outcome, err,
		fmt.Sprintf("Listing %s ended.", c.ListingID),
		fmt.Sprintf("Listing: %s, reason: %s.", c.ListingID, reason), c.Intent())
}

func (e *Engine) duplicateListing(ctx context.Context, c model.DuplicateListingCommand) model.ExecutionResult {
	outcome, err := e.platform.DuplicateItem(ctx, c.ListingID, model.DuplicateOverrides{Price: c.PriceOverride, Quantity: c.QuantityOverride})
	newID := orDefault(outcome.NewItemID, "pending")
	detail := fmt.Sprintf("Source listing: %s.", c.ListingID)
	if c.PriceOverride != nil {
		detail = fmt.Sprintf("Source listing: %s, new price: %s.", c.ListingID, formatPrice(*c.PriceOverride))
	}
	return single(c.ListingID, newID, outcome, err,
		fmt.Sprintf("Listing %s duplicated. New ID: %s.", c.ListingID, newID),
		detail, c.Intent())
}

func (e *Engine) sendOffer(ctx context.Context, c model.SendOfferToWatchersCommand) model.ExecutionResult {
	if c.DiscountValue <= 0 {
		return failure("discount_value must be greater than zero.")
	}
	if err := e.policy.CheckDiscount(c.DiscountType, c.DiscountValue, "discount_value"); err != nil {
		return failure(err.Error())
	}
	discount := model.WatcherDiscount{Type: c.DiscountType, Value: c.DiscountValue}
	outcome, err := e.platform.SendWatcherOffer(ctx, c.ListingID, discount)
	label := discountLabel(discount)
	return single(c.ListingID, label, outcome, err,
		fmt.Sprintf("Offer sent to watchers on listing %s.", c.ListingID),
		fmt.Sprintf("Listing: %s, discount: %s.", c.ListingID, label), c.Intent())
}

func (e *Engine) updateFulfillment(ctx context.Context, c model.UpdateFulfillmentCommand) model.ExecutionResult {
	updates := fulfillmentChanges(c.Settings)
	if len(updates) == 0 {
		return failure("No fulfillment settings specified.")
	}
	changes := strings.Join(updates, ", ")
	outcome, err := e.platform.UpdateFulfillment(ctx, c.Settings)
	res := single("fulfillment", changes, outcome, err,
		fmt.Sprintf("Fulfillment updated: %s.", changes),
		fmt.Sprintf("Intended: %s.", changes), c.Intent())
	res.ItemLogs[0].Title = "Fulfillment settings"
	return res
}

func (e *Engine) bulkPriceAdjust(ctx context.Context, c model.BulkPriceAdjustCommand, progress ProgressFunc) model.ExecutionResult {
	if c.AdjustmentType != model.AdjustPercentage && c.AdjustmentType != model.AdjustFixed {
		return failure("Missing adjustment_type or adjustment_value.")
	}
	if err := e.policy.CheckDiscount(c.AdjustmentType, -c.AdjustmentValue, "adjustment_value"); err != nil {
		return failure(err.Error())
	}

	items, err := e.platform.ListActiveItems(ctx)
	if err != nil {
		return failure(fmt.Sprintf("Could not fetch listings: %v", err))
	}
	targets := model.ItemFilter{Condition: c.FilterCondition}.Apply(items, e.now())
	if len(targets) == 0 {
		return failure("No listings matched your filter criteria.")
	}

	var capErr atomic.Pointer[model.CapabilityError]
	logs := fanOut(ctx, targets, e.concurrency, func(ctx context.Context, it model.Item) model.ItemLog {
		next := e.policy.AdjustPrice(it.Price, c.AdjustmentType, c.AdjustmentValue)
		outcome, err := e.platform.SetPrice(ctx, it.ID, next)
		l := itemLog(it, formatPrice(it.Price), formatPrice(next), outcome, err)
		var ce *model.CapabilityError
		if errors.As(err, &ce) {
			capErr.Store(ce)
		}
		return l
	}, progress)

	return bulkResult(c.Intent(), "Adjusted", logs, capErr.Load())
}

func (e *Engine) bulkEnd(ctx context.Context, c model.BulkEndListingsCommand, progress ProgressFunc) model.ExecutionResult {
	items, err := e.platform.ListActiveItems(ctx)
	if err != nil {
		return failure(fmt.Sprintf("Could not fetch listings: %v", err))
	}
	targets := c.Filter.Apply(items, e.now())
	if len(targets) == 0 {
		return failure("No listings matched your filter criteria.")
	}

	var capErr atomic.Pointer[model.CapabilityError]
	logs := fanOut(ctx, targets, e.concurrency, func(ctx context.Context, it model.Item) model.ItemLog {
		outcome, err := e.platform.EndItem(ctx, it.ID, "other")
		l := itemLog(it, formatPrice(it.Price), "ENDED", outcome, err)
		var ce *model.CapabilityError
		if errors.As(err, &ce) {
			capErr.Store(ce)
		}
		return l
	}, progress)

	return bulkResult(c.Intent(), "Ended", logs, capErr.Load())
}

// bulkResult summarises a fan-out. Any success makes the whole command a success.
func bulkResult(intent model.Intent, verb string, logs []model.ItemLog, capErr *model.CapabilityError) model.ExecutionResult {
	res := model.ExecutionResult{ItemLogs: logs}
	ok, failed := res.Counts()
	res.Success = ok > 0

	if ok == 0 && capErr != nil && allCapabilityFailures(logs, capErr) {
		res.Message = fmt.Sprintf("%s requires %s. %d listings matched your filter.", intent, capabilityName(capErr), len(logs))
		return res
	}

	res.Message = fmt.Sprintf("%s %d/%d listings.", verb, ok, len(logs))
	if failed > 0 {
		res.Message += fmt.Sprintf(" %d failed.", failed)
	}
	return res
}

func allCapabilityFailures(logs []model.ItemLog, capErr *model.CapabilityError) bool {
	for _, l := range logs {
		if l.Success || l.Error != capErr.Error() {
			return false
		}
	}
	return true
}

func itemLog(it model.Item, oldValue, newValue string, outcome model.Outcome, err error) model.ItemLog {
	l := model.ItemLog{ItemID: it.ID, Title: it.DisplayTitle(), OldValue: oldValue, NewValue: newValue}
	switch {
	case err != nil:
		l.Error = err.Error()
	case outcome.Success:
		l.Success = true
	default:
		l.Error = orDefault(outcome.Error, unknownPlatformError)
	}
	return l
}

// single maps one platform call onto a result with one ItemLog.
// detail names the target in capability messages.
func single(target, newValue string, outcome model.Outcome, err error, okMsg, detail string, intent model.Intent) model.ExecutionResult {
	l := model.ItemLog{ItemID: target, Title: target, NewValue: newValue}
	res := model.ExecutionResult{ItemLogs: []model.ItemLog{l}}

	var capErr *model.CapabilityError
	switch {
	case errors.As(err, &capErr):
		res.Message = fmt.Sprintf("%s requires %s. %s", intent, capabilityName(capErr), detail)
		res.ItemLogs[0].Error = capErr.Error()
	case err != nil:
		res.Message = fmt.Sprintf("Platform error: %v", err)
		res.ItemLogs[0].Error = err.Error()
	case outcome.Success:
		res.Success = true
		res.Message = okMsg
		res.ItemLogs[0].Success = true
	default:
		msg := orDefault(outcome.Error, unknownPlatformError)
		res.Message = "Platform error: " + msg
		res.ItemLogs[0].Error = msg
	}
	return res
}

func capabilityName(e *model.CapabilityError) string {
	if e.Route != "" {
		return e.Route
	}
	return e.Capability
}

func failure(msg string) model.ExecutionResult {
	return model.ExecutionResult{Success: false, Message: msg}
}

func fulfillmentChanges(s model.FulfillmentSettings) []string {
	var updates []string
	if s.HandlingTime != nil {
		updates = append(updates, fmt.Sprintf("handling time → %dd", *s.HandlingTime))
	}
	if s.VacationMode != nil {
		updates = append(updates, "vacation mode → "+onOff(*s.VacationMode))
	}
	if s.AutoReplyMessage != nil && *s.AutoReplyMessage != "" {
		updates = append(updates, "auto-reply set")
	}
	return updates
}

func discountLabel(d model.WatcherDiscount) string {
	if d.Type == model.AdjustPercentage {
		return formatNumber(d.Value) + "% off"
	}
	return formatPrice(d.Value) + " off"
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
