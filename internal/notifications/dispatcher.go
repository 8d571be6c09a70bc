package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options controls pipeline thresholds and concurrency.
type Options struct {
	InactivityThreshold time.Duration // last activity older than this → reminder
	LowScoreThreshold   int           // percent below which results escalate
	DigestWindow        time.Duration // trailing window for digest runs
	FanOutWorkers       int           // concurrent individual deliveries
	AggregateWorkers    int           // concurrent per-subscriber result queries
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		InactivityThreshold: 3 * 24 * time.Hour,
		LowScoreThreshold:   50,
		DigestWindow:        7 * 24 * time.Hour,
		FanOutWorkers:       8,
		AggregateWorkers:    4,
	}
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

// Dispatcher orchestrates one pipeline invocation per event: resolve the
// audience, derive fields, compose, deliver. Dependencies are injected at
// construction so tests can substitute doubles. Invocations are stateless;
// nothing is shared between them.
type Dispatcher struct {
	store   Store
	gateway Gateway
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Dispatcher.
func New(store Store, gateway Gateway, opts Options, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:   store,
		gateway: gateway,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle runs the pipeline for one event and tallies per-call outcomes.
// Partial delivery failures are recorded in the Result, never returned as an
// error; a non-nil error means the invocation could not run at all (e.g.
// the record store was unreachable before any audience was resolved).
func (d *Dispatcher) Handle(ctx context.Context, ev Event) (Result, error) {
	switch ev.Kind {
	case EventContentCreated:
		return d.handleContentCreated(ctx, ev)
	case EventResultRecorded:
		return d.handleResultRecorded(ctx, ev)
	case EventScheduleTick:
		switch ev.Schedule {
		case ScheduleDigest:
			return d.handleDigest(ctx, ev)
		case ScheduleInactivity:
			return d.handleInactivity(ctx, ev)
		}
	}
	return Result{}, fmt.Errorf("unsupported event %q/%q", ev.Kind, ev.Schedule)
}

func (d *Dispatcher) handleContentCreated(ctx context.Context, ev Event) (Result, error) {
	if ev.Content == nil {
		return Result{}, fmt.Errorf("content event without content record")
	}
	audience, err := d.ResolveAudience(ctx, ev)
	if err != nil {
		return Result{}, err
	}
	if audience.Empty() {
		return Result{}, nil
	}

	res := d.deliver(ctx, audience, ComposeNewContent(ev.Content))
	d.logger.Info("content notification dispatched", "content_id", ev.Content.ID, "summary", res.Summary())
	return res, nil
}

func (d *Dispatcher) handleResultRecorded(ctx context.Context, ev Event) (Result, error) {
	if ev.Result == nil {
		return Result{}, fmt.Errorf("result event without result record")
	}
	audience, err := d.ResolveAudience(ctx, ev)
	if err != nil {
		return Result{}, err
	}
	if audience.Empty() {
		return Result{}, nil
	}

	subscriber, err := d.store.GetUser(ctx, ev.Result.UserID)
	if errors.Is(err, ErrNotFound) {
		// Deleted between resolution and derivation; treat as empty.
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("get user %s: %w", ev.Result.UserID, err)
	}

	percentage := Percentage(ev.Result.Score, ev.Result.TotalUnits)
	res := d.deliver(ctx, audience, ComposeResultCompleted(subscriber, ev.Result.Score, percentage))

	// The escalation send is fully decoupled: it uses the same resolved
	// audience and its outcome neither suppresses nor is suppressed by the
	// primary send.
	if d.ShouldEscalate(KindResultCompleted, percentage) {
		res.add(d.deliver(ctx, audience, ComposeLowScoreAlert(subscriber, ev.Result.Score, percentage)))
	}

	d.logger.Info("result notification dispatched",
		"user_id", ev.Result.UserID, "percentage", percentage, "summary", res.Summary())
	return res, nil
}

func (d *Dispatcher) handleDigest(ctx context.Context, ev Event) (Result, error) {
	audience, err := d.ResolveAudience(ctx, ev)
	if err != nil {
		return Result{}, err
	}
	if audience.Empty() {
		return Result{}, nil
	}

	subscribers, err := d.store.UsersByRole(ctx, RoleSubscriber)
	if err != nil {
		return Result{}, fmt.Errorf("query subscribers: %w", err)
	}

	windowStart := d.now().Add(-d.opts.DigestWindow)
	summary := d.Aggregate(ctx, windowStart, subscribers)

	res := d.deliver(ctx, audience, ComposeWeeklyDigest(summary))
	d.logger.Info("digest dispatched",
		"active", summary.ActiveSubscribers,
		"total_events", summary.TotalEvents,
		"average_score", summary.AverageScore,
		"summary", res.Summary())
	return res, nil
}

func (d *Dispatcher) handleInactivity(ctx context.Context, ev Event) (Result, error) {
	audience, err := d.ResolveAudience(ctx, ev)
	if err != nil {
		return Result{}, err
	}
	if audience.Empty() {
		return Result{}, nil
	}

	now := d.now()
	targets := make([]targeted, 0, len(audience.Recipients))
	for _, rec := range audience.Recipients {
		days := 0
		if rec.LastActivityAt != nil {
			days = DaysInactive(*rec.LastActivityAt, now)
		}
		targets = append(targets, targeted{
			recipientID: rec.ID,
			msg:         ComposeInactivityReminder(days).forToken(rec.Token),
		})
	}

	res := d.fanOut(ctx, targets)
	d.logger.Info("inactivity reminders dispatched", "candidates", len(targets), "summary", res.Summary())
	return res, nil
}

// --------------------------------------------------------------------------
// Delivery
// --------------------------------------------------------------------------

// targeted pairs a per-recipient message with its recipient id for tallying.
type targeted struct {
	recipientID string
	msg         *Message
}

// deliver sends one composed message to a resolved audience: a single call
// for broadcasts, a bounded fan-out for individuals.
func (d *Dispatcher) deliver(ctx context.Context, audience Audience, msg *Message) Result {
	if audience.Broadcast() {
		addressed := *msg
		addressed.Topic = audience.Topic
		if _, err := d.gateway.Send(ctx, &addressed); err != nil {
			d.logger.Warn("broadcast send failed", "topic", audience.Topic, "error", err)
			return Result{Failed: 1, Errors: []string{fmt.Sprintf("topic %s: %v", audience.Topic, err)}}
		}
		return Result{Sent: 1}
	}

	targets := make([]targeted, 0, len(audience.Recipients))
	for _, rec := range audience.Recipients {
		targets = append(targets, targeted{recipientID: rec.ID, msg: msg.forToken(rec.Token)})
	}
	return d.fanOut(ctx, targets)
}

// fanOut issues one gateway call per target through a worker pool. Every
// call is attempted; a single recipient's failure is recorded locally and
// never cancels siblings or fails the invocation.
func (d *Dispatcher) fanOut(ctx context.Context, targets []targeted) Result {
	if len(targets) == 0 {
		return Result{}
	}

	workers := d.opts.FanOutWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(targets) {
		workers = len(targets)
	}

	ch := make(chan targeted, len(targets))
	for _, t := range targets {
		ch <- t
	}
	close(ch)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		res Result
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range ch {
				_, err := d.gateway.Send(ctx, t.msg)

				mu.Lock()
				if err != nil {
					res.Failed++
					res.Errors = append(res.Errors, fmt.Sprintf("recipient %s: %v", t.recipientID, err))
				} else {
					res.Sent++
				}
				mu.Unlock()

				if err != nil {
					d.logger.Warn("send failed", "recipient_id", t.recipientID, "error", err)
				}
			}
		}()
	}
	wg.Wait()
	return res
}
