package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"sellerctl/internal/model"
)

// ProgressFunc receives each item outcome as it completes.
// done counts completed items including this one.
type ProgressFunc func(done, total int, log model.ItemLog)

const canceledItemError = "execution canceled"

// fanOut applies fn to every item and returns one ItemLog per item in input
// order. limit <= 1 runs strictly one after another.
func fanOut(ctx context.Context, items []model.Item, limit int, fn func(context.Context, model.Item) model.ItemLog, progress ProgressFunc) []model.ItemLog {
	logs := make([]model.ItemLog, len(items))
	total := len(items)

	var mu sync.Mutex
	done := 0
	report := func(l model.ItemLog) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		progress(done, total, l)
	}

	if limit <= 1 {
		for i, it := range items {
			if ctx.Err() != nil {
				logs[i] = canceledLog(it)
			} else {
				logs[i] = fn(ctx, it)
			}
			report(logs[i])
		}
		return logs
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, it := range items {
		if ctx.Err() != nil {
			logs[i] = canceledLog(it)
			report(logs[i])
			continue
		}
		g.Go(func() error {
			logs[i] = fn(ctx, it)
			report(logs[i])
			return nil
		})
	}
	_ = g.Wait()
	return logs
}

func canceledLog(it model.Item) model.ItemLog {
	return model.ItemLog{ItemID: it.ID, Title: it.DisplayTitle(), Success: false, Error: canceledItemError}
}
