package notifications

import (
	"context"
	"errors"
	"fmt"
)

// ResolveAudience determines the recipient set for an event.
//
// Misses are an expected steady state: a result recorded by an unknown user
// or by a non-subscriber role resolves to the empty audience, never an
// error. Only record-store failures propagate.
func (d *Dispatcher) ResolveAudience(ctx context.Context, ev Event) (Audience, error) {
	switch ev.Kind {
	case EventContentCreated:
		return Audience{Topic: TopicAllSubscribers}, nil

	case EventResultRecorded:
		user, err := d.store.GetUser(ctx, ev.Result.UserID)
		if errors.Is(err, ErrNotFound) {
			d.logger.Warn("result author not found, skipping", "user_id", ev.Result.UserID)
			return Audience{}, nil
		}
		if err != nil {
			return Audience{}, fmt.Errorf("get user %s: %w", ev.Result.UserID, err)
		}
		if user.Role != RoleSubscriber {
			return Audience{}, nil
		}
		return Audience{Topic: TopicAllSupervisors}, nil

	case EventScheduleTick:
		switch ev.Schedule {
		case ScheduleInactivity:
			return d.resolveInactive(ctx)
		case ScheduleDigest:
			return d.resolveDigest(ctx)
		}
	}
	return Audience{}, fmt.Errorf("unsupported event %q/%q", ev.Kind, ev.Schedule)
}

// resolveInactive finds subscribers past the inactivity threshold. Records
// without a delivery token cannot receive targeted sends and are skipped
// with a log line.
func (d *Dispatcher) resolveInactive(ctx context.Context) (Audience, error) {
	cutoff := d.now().Add(-d.opts.InactivityThreshold)
	users, err := d.store.UsersInactiveBefore(ctx, RoleSubscriber, cutoff)
	if err != nil {
		return Audience{}, fmt.Errorf("query inactive subscribers: %w", err)
	}

	recipients := make([]UserRecord, 0, len(users))
	for _, u := range users {
		if u.Token == "" {
			d.logger.Info("no delivery token, skipping", "user_id", u.ID)
			continue
		}
		recipients = append(recipients, u)
	}
	return Audience{Recipients: recipients}, nil
}

// resolveDigest broadcasts to supervisors unless no subscriber records exist
// at all, in which case the digest run is a no-op. A week with subscribers
// but zero activity still produces a "0 active" digest.
func (d *Dispatcher) resolveDigest(ctx context.Context) (Audience, error) {
	subscribers, err := d.store.UsersByRole(ctx, RoleSubscriber)
	if err != nil {
		return Audience{}, fmt.Errorf("query subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		d.logger.Info("no subscriber records, skipping digest")
		return Audience{}, nil
	}
	return Audience{Topic: TopicAllSupervisors}, nil
}
