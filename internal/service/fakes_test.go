package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"sellerctl/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// fakePlatform is an in-memory marketplace with scripted failures
type fakePlatform struct {
	mu sync.Mutex

	items   []model.Item
	listErr error

	failIDs map[string]string // item id -> platform error message
	callErr error             // returned by every write

	writes   []string
	prices   map[string]float64
	ended    map[string]string
	offers   map[string]model.WatcherDiscount
	settings []model.FulfillmentSettings
}

func newFakePlatform(items ...model.Item) *fakePlatform {
	return &fakePlatform{
		items:   items,
		failIDs: map[string]string{},
		prices:  map[string]float64{},
		ended:   map[string]string{},
		offers:  map[string]model.WatcherDiscount{},
	}
}

func (f *fakePlatform) ListActiveItems(ctx context.Context) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Item{}, f.items...), nil
}

func (f *fakePlatform) write(op, id string) (model.Outcome, error) {
	f.writes = append(f.writes, op+":"+id)
	if f.callErr != nil {
		return model.Outcome{}, f.callErr
	}
	if msg, ok := f.failIDs[id]; ok {
		return model.Outcome{Success: false, Error: msg}, nil
	}
	return model.Outcome{Success: true}, nil
}

func (f *fakePlatform) SetPrice(ctx context.Context, id string, price float64) (model.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, err := f.write("price", id)
	if err == nil && out.Success {
		f.prices[id] = price
	}
	return out, err
}

func (f *fakePlatform) EndItem(ctx context.Context, id, reason string) (model.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, err := f.write("end", id)
	if err == nil && out.Success {
		f.ended[id] = reason
	}
	return out, err
}

func (f *fakePlatform) DuplicateItem(ctx context.Context, id string, o model.DuplicateOverrides) (model.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, err := f.write("duplicate", id)
	if err == nil && out.Success {
		out.NewItemID = id + "-copy"
	}
	return out, err
}

func (f *fakePlatform) SendWatcherOffer(ctx context.Context, id string, d model.WatcherDiscount) (model.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, err := f.write("offer", id)
	if err == nil && out.Success {
		f.offers[id] = d
	}
	return out, err
}

func (f *fakePlatform) UpdateFulfillment(ctx context.Context, s model.FulfillmentSettings) (model.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, err := f.write("fulfillment", "account")
	if err == nil && out.Success {
		f.settings = append(f.settings, s)
	}
	return out, err
}

func (f *fakePlatform) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

// staticClassifier returns the same answer for every input
func staticClassifier(intent string, confidence float64, fields map[string]any) Classifier {
	return ClassifierFunc(func(ctx context.Context, text string) (*ClassifierOutput, error) {
		cp := make(map[string]any, len(fields))
		for k, v := range fields {
			cp[k] = v
		}
		return &ClassifierOutput{Intent: intent, Confidence: confidence, Fields: cp}, nil
	})
}

func failingClassifier(err error) Classifier {
	return ClassifierFunc(func(ctx context.Context, text string) (*ClassifierOutput, error) {
		return nil, err
	})
}

var errBoom = errors.New("boom")

func makeItems(n int) []model.Item {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:        fmt.Sprintf("item-%02d", i+1),
			Title:     fmt.Sprintf("Vintage Camera %d", i+1),
			Price:     100,
			StartTime: testNow.AddDate(0, 0, -(i + 1)),
			Condition: "Used",
		}
	}
	return items
}

func newTestPipeline(c Classifier, p Platform) *Pipeline {
	registry := NewSchemaRegistry()
	return &Pipeline{
		Resolver:  NewIntentResolver(c, registry, nil),
		Previewer: NewPreviewer(p, DefaultPolicy(), nil).WithClock(fixedClock),
		Engine:    NewEngine(p, DefaultPolicy(), nil).WithClock(fixedClock),
		Now:       fixedClock,
	}
}
