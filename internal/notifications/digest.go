package notifications

import (
	"context"
	"math"
	"sync"
	"time"
)

// Aggregate reduces per-subscriber results inside [windowStart, now) into a
// DigestSummary. A subscriber is active iff it has at least one qualifying
// result in the window.
//
// Per-subscriber result queries are independent reads and run through a
// bounded worker pool; the reduction happens only after every sub-query has
// completed. A failed sub-query logs a warning and counts that subscriber as
// inactive rather than failing the whole run.
func (d *Dispatcher) Aggregate(ctx context.Context, windowStart time.Time, subscribers []UserRecord) DigestSummary {
	workers := d.opts.AggregateWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(subscribers) {
		workers = len(subscribers)
	}

	ch := make(chan UserRecord, len(subscribers))
	for _, sub := range subscribers {
		ch <- sub
	}
	close(ch)

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		active      int
		totalEvents int
		totalScore  int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range ch {
				results, err := d.store.ResultsSince(ctx, sub.ID, windowStart)
				if err != nil {
					d.logger.Warn("query results failed", "user_id", sub.ID, "error", err)
					continue
				}
				if len(results) == 0 {
					continue
				}

				score := 0
				for _, r := range results {
					score += r.Score
				}

				mu.Lock()
				active++
				totalEvents += len(results)
				totalScore += score
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	avg := 0
	if totalEvents > 0 {
		avg = int(math.Round(float64(totalScore) / float64(totalEvents)))
	}

	return DigestSummary{
		WindowStart:       windowStart,
		WindowEnd:         d.now(),
		ActiveSubscribers: active,
		TotalEvents:       totalEvents,
		AverageScore:      avg,
	}
}
