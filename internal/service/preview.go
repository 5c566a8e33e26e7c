package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"sellerctl/internal/model"
	"sellerctl/internal/utils"
)

const previewTitleRunes = 55

// Previewer projects the effect of a command without touching platform state
type Previewer struct {
	reader ListingReader
	policy Policy
	now    func() time.Time
	logger *zap.Logger
}

// NewPreviewer creates a previewer reading current state from reader
func NewPreviewer(reader ListingReader, policy Policy, logger *zap.Logger) *Previewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Previewer{reader: reader, policy: policy, now: time.Now, logger: logger}
}

// WithClock replaces the clock used for listing age
func (p *Previewer) WithClock(now func() time.Time) *Previewer {
	p.now = now
	return p
}

// NeedsState reports whether previewing cmd requires a listing fetch.
// Commands that do not are simply not previewable.
func NeedsState(cmd model.Command) bool {
	switch cmd.(type) {
	case model.UpdatePriceCommand, model.BulkPriceAdjustCommand, model.EndListingCommand,
		model.BulkEndListingsCommand, model.SendOfferToWatchersCommand, model.DuplicateListingCommand:
		return true
	}
	return false
}

// Preview fetches current listings and computes the diff lines for cmd
func (p *Previewer) Preview(ctx context.Context, cmd model.Command) model.Preview {
	if cmd == nil || !NeedsState(cmd) {
		return model.Preview{Lines: []model.DiffLine{}}
	}

	items, err := p.reader.ListActiveItems(ctx)
	if err != nil {
		p.logger.Warn("preview fetch failed", zap.String("intent", string(cmd.Intent())), zap.Error(err))
		return model.Preview{Lines: []model.DiffLine{{Label: "Active listings", Info: "current listings unavailable"}}}
	}
	return model.Preview{Lines: p.Diff(cmd, items)}
}

// Diff computes the preview lines for cmd against a listing snapshot.
// Bulk price previews use the same condition filter the engine applies, so
// the projected set matches the set that will be changed.
func (p *Previewer) Diff(cmd model.Command, items []model.Item) []model.DiffLine {
	lines := []model.DiffLine{}

	switch c := cmd.(type) {
	case model.UpdatePriceCommand:
		item, ok := findItem(items, c.ListingID)
		if !ok {
			return notFound(c.ListingID)
		}
		lines = append(lines, model.DiffLine{
			Label:  shortTitle(item),
			Before: formatPrice(item.Price),
			After:  formatPrice(c.NewPrice),
		})

	case model.BulkPriceAdjustCommand:
		targets := model.ItemFilter{Condition: c.FilterCondition}.Apply(items, p.now())
		var total float64
		for _, it := range targets {
			total += it.Price
		}
		n := float64(len(targets))
		avg := total / max(n, 1)

		var avgAfter, totalAfter float64
		if c.AdjustmentType == model.AdjustPercentage {
			factor := 1 + c.AdjustmentValue/100
			avgAfter, totalAfter = avg*factor, total*factor
		} else {
			avgAfter, totalAfter = avg+c.AdjustmentValue, total+c.AdjustmentValue*n
		}
		lines = append(lines,
			model.DiffLine{
				Label:  fmt.Sprintf("%d listings", len(targets)),
				Before: "avg " + formatPrice(avg),
				After:  "avg " + formatPrice(avgAfter),
			},
			model.DiffLine{
				Label:  "Total listed value",
				Before: formatWhole(total),
				After:  formatWhole(totalAfter),
			},
		)
		if err := p.policy.CheckDiscount(c.AdjustmentType, -c.AdjustmentValue, "adjustment_value"); err != nil {
			lines = append(lines, model.DiffLine{Label: "Blocked", Warning: err.Error()})
		}

	case model.EndListingCommand:
		item, ok := findItem(items, c.ListingID)
		if !ok {
			return notFound(c.ListingID)
		}
		lines = append(lines, model.DiffLine{Label: shortTitle(item), Before: formatPrice(item.Price), After: "ENDED"})
		var warns []string
		if item.WatcherCount > 0 {
			warns = append(warns, fmt.Sprintf("%d watchers", item.WatcherCount))
		}
		if item.BidCount > 0 {
			warns = append(warns, fmt.Sprintf("%d active bids", item.BidCount))
		}
		if len(warns) > 0 {
			lines = append(lines, model.DiffLine{Label: "⚠ Caution", Warning: strings.Join(warns, " · ") + " will be lost"})
		}

	case model.BulkEndListingsCommand:
		targets := c.Filter.Apply(items, p.now())
		var total float64
		watched := 0
		for _, it := range targets {
			total += it.Price
			if it.WatcherCount > 0 {
				watched++
			}
		}
		lines = append(lines,
			model.DiffLine{
				Label:  "Listings matched",
				Before: fmt.Sprintf("%d active", len(items)),
				After:  fmt.Sprintf("%d to end", len(targets)),
			},
			model.DiffLine{Label: "Capital removed", Info: formatWhole(total) + " in listed value"},
		)
		if watched > 0 {
			lines = append(lines, model.DiffLine{Label: "⚠ Caution", Warning: fmt.Sprintf("%d of these have watchers", watched)})
		}

	case model.SendOfferToWatchersCommand:
		item, ok := findItem(items, c.ListingID)
		if !ok {
			return notFound(c.ListingID)
		}
		offered := p.policy.OfferPrice(item.Price, c.DiscountType, c.DiscountValue)
		lines = append(lines,
			model.DiffLine{Label: shortTitle(item), Before: formatPrice(item.Price), After: formatPrice(offered) + " offered"},
			model.DiffLine{Label: plural(item.WatcherCount, "watcher"), Info: "will receive this targeted offer"},
		)
		if err := p.policy.CheckDiscount(c.DiscountType, c.DiscountValue, "discount_value"); err != nil {
			lines = append(lines, model.DiffLine{Label: "Blocked", Warning: err.Error()})
		}

	case model.DuplicateListingCommand:
		item, ok := findItem(items, c.ListingID)
		if !ok {
			return notFound(c.ListingID)
		}
		after := "unchanged"
		if c.PriceOverride != nil {
			after = formatPrice(*c.PriceOverride)
		}
		lines = append(lines,
			model.DiffLine{Label: shortTitle(item), Info: "Source listing"},
			model.DiffLine{Label: "Price", Before: formatPrice(item.Price), After: after},
		)
		if c.QuantityOverride != nil {
			lines = append(lines, model.DiffLine{Label: "Quantity", Info: fmt.Sprintf("set to %d", *c.QuantityOverride)})
		}
	}

	return lines
}

// Start begins an asynchronous preview. The job reports Loading until the
// fetch completes.
func (p *Previewer) Start(ctx context.Context, cmd model.Command) *PreviewJob {
	job := &PreviewJob{done: make(chan struct{})}
	if cmd == nil || !NeedsState(cmd) {
		job.result = model.Preview{Lines: []model.DiffLine{}}
		close(job.done)
		return job
	}

	job.result = model.Preview{Lines: []model.DiffLine{}, Loading: true}
	go func() {
		defer close(job.done)
		res := p.Preview(ctx, cmd)
		job.mu.Lock()
		job.result = res
		job.mu.Unlock()
	}()
	return job
}

// PreviewJob is an in-flight preview
type PreviewJob struct {
	mu     sync.Mutex
	result model.Preview
	done   chan struct{}
}

// Snapshot returns the current state without blocking
func (j *PreviewJob) Snapshot() model.Preview {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := j.result
	out.Lines = append([]model.DiffLine{}, j.result.Lines...)
	return out
}

// Done is closed once the preview is complete
func (j *PreviewJob) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the preview completes or ctx ends
func (j *PreviewJob) Wait(ctx context.Context) (model.Preview, error) {
	select {
	case <-j.done:
		return j.Snapshot(), nil
	case <-ctx.Done():
		return j.Snapshot(), ctx.Err()
	}
}

func notFound(id string) []model.DiffLine {
	return []model.DiffLine{{Label: "Listing " + id, Info: "Not found in active listings"}}
}

func shortTitle(item model.Item) string {
	return utils.ShortTitle(item.DisplayTitle(), previewTitleRunes)
}

func formatWhole(v float64) string {
	return fmt.Sprintf("$%.0f", v)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
