// Package notifications turns data-mutation events and schedule ticks into
// push notifications: audience resolution, payload composition, low-score
// escalation, digest aggregation, and fan-out delivery.
//
// Pipeline: event → resolve audience → derive fields → compose → deliver.
// Broadcast events go out as a single topic send; individual fan-outs run
// through a bounded worker pool with per-recipient failure isolation.
package notifications

import (
	"context"
	"fmt"
	"math"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// perUnitMax is the maximum points a single unit is worth.
	perUnitMax = 20

	// DefaultTotalUnits is assumed when a result omits its unit count.
	DefaultTotalUnits = 5
)

// Broadcast topics.
const (
	TopicAllSubscribers = "all_subscribers"
	TopicAllSupervisors = "all_supervisors"
)

// Client-side delivery channels.
const (
	ChannelContent    = "content_notifications"
	ChannelSupervisor = "supervisor_notifications"
	ChannelReminder   = "reminder_notifications"
)

// Delivery priorities.
const (
	PriorityHigh    = "high"
	PriorityDefault = "default"
)

// --------------------------------------------------------------------------
// Roles and event kinds
// --------------------------------------------------------------------------

// Role classifies a user record.
type Role string

const (
	RoleSubscriber Role = "subscriber"
	RoleSupervisor Role = "supervisor"
)

// Kind identifies a notification message type. The value is carried in the
// data payload under "type" for client-side routing.
type Kind string

const (
	KindNewContent         Kind = "new_content"
	KindResultCompleted    Kind = "result_completed"
	KindLowScoreAlert      Kind = "low_score_alert"
	KindWeeklyDigest       Kind = "weekly_digest"
	KindInactivityReminder Kind = "inactivity_reminder"
)

// EventKind tags an inbound trigger.
type EventKind string

const (
	EventContentCreated EventKind = "content_created"
	EventResultRecorded EventKind = "result_recorded"
	EventScheduleTick   EventKind = "schedule_tick"
)

// ScheduleKind tags a schedule tick.
type ScheduleKind string

const (
	ScheduleDigest     ScheduleKind = "digest"
	ScheduleInactivity ScheduleKind = "inactivity"
)

// --------------------------------------------------------------------------
// Records (read-only views over the record store)
// --------------------------------------------------------------------------

// UserRecord is a user as read from the record store.
type UserRecord struct {
	ID             string
	Role           Role
	Name           string
	Token          string     // delivery token; empty = topic-only reachable
	LastActivityAt *time.Time // nil = never recorded
}

// ResultRecord is an immutable score entry for a user.
type ResultRecord struct {
	ID         string
	UserID     string
	Score      int
	TotalUnits int
	CreatedAt  time.Time
}

// ContentRecord is a newly created piece of content.
type ContentRecord struct {
	ID       string
	Category string
}

// --------------------------------------------------------------------------
// Events
// --------------------------------------------------------------------------

// Event is a single inbound trigger. Exactly one of Content/Result is set
// for data events; Schedule is set for schedule ticks. Events live for one
// pipeline invocation and are never persisted.
type Event struct {
	Kind     EventKind
	Schedule ScheduleKind
	Content  *ContentRecord
	Result   *ResultRecord
}

// --------------------------------------------------------------------------
// Audience
// --------------------------------------------------------------------------

// Audience is the resolved recipient set for one event: either a broadcast
// topic or a list of individual records. The zero value is the empty
// audience, which is an expected steady state, not an error.
type Audience struct {
	Topic      string
	Recipients []UserRecord
}

// Empty reports whether no delivery target was resolved.
func (a Audience) Empty() bool {
	return a.Topic == "" && len(a.Recipients) == 0
}

// Broadcast reports whether the audience is a topic broadcast.
func (a Audience) Broadcast() bool {
	return a.Topic != ""
}

// --------------------------------------------------------------------------
// Messages
// --------------------------------------------------------------------------

// Message is one composed push notification. Exactly one of Topic/Token is
// set. Constructed fresh per send and never mutated afterwards; the data
// payload is string-valued per the gateway wire format.
type Message struct {
	Topic       string
	Token       string
	Title       string
	Body        string
	Data        map[string]string
	Priority    string
	Channel     string
	ClickAction string
}

// forToken clones the message addressed to a single recipient token.
func (m *Message) forToken(token string) *Message {
	clone := *m
	clone.Topic = ""
	clone.Token = token
	clone.Data = make(map[string]string, len(m.Data))
	for k, v := range m.Data {
		clone.Data[k] = v
	}
	return &clone
}

// --------------------------------------------------------------------------
// Digest
// --------------------------------------------------------------------------

// DigestSummary is the reduction of one trailing activity window.
type DigestSummary struct {
	WindowStart       time.Time
	WindowEnd         time.Time
	ActiveSubscribers int
	TotalEvents       int
	AverageScore      int
}

// --------------------------------------------------------------------------
// Dispatch results
// --------------------------------------------------------------------------

// Result tallies per-call delivery outcomes for one pipeline invocation.
type Result struct {
	Sent   int
	Failed int
	Errors []string
}

func (r *Result) add(other Result) {
	r.Sent += other.Sent
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

// Summary returns a one-line human-readable tally.
func (r Result) Summary() string {
	return fmt.Sprintf("sent=%d failed=%d", r.Sent, r.Failed)
}

// --------------------------------------------------------------------------
// External collaborators
// --------------------------------------------------------------------------

// Store is the record-store query surface the pipeline consumes.
// Implementations must be safe for concurrent use.
type Store interface {
	// GetUser returns the user with the given id, or ErrNotFound.
	GetUser(ctx context.Context, id string) (UserRecord, error)
	// UsersByRole returns all users with the given role.
	UsersByRole(ctx context.Context, role Role) ([]UserRecord, error)
	// UsersInactiveBefore returns users of the given role whose last
	// activity is strictly older than cutoff. Users with no recorded
	// activity are excluded.
	UsersInactiveBefore(ctx context.Context, role Role, cutoff time.Time) ([]UserRecord, error)
	// ResultsSince returns the user's results created at or after since.
	ResultsSince(ctx context.Context, userID string, since time.Time) ([]ResultRecord, error)
}

// Gateway delivers one composed message and returns a receipt id.
// Best effort, fire-and-forget: the pipeline never retries a failed send.
type Gateway interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// --------------------------------------------------------------------------
// Derivations
// --------------------------------------------------------------------------

// Percentage derives the score percentage for a result. Each unit is worth
// perUnitMax points. A non-positive unit count yields 0 rather than a
// division error.
func Percentage(score, totalUnits int) int {
	if totalUnits <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(totalUnits*perUnitMax) * 100))
}

// DaysInactive returns whole days elapsed since the user's last activity.
func DaysInactive(lastActivity time.Time, now time.Time) int {
	if lastActivity.IsZero() || now.Before(lastActivity) {
		return 0
	}
	return int(now.Sub(lastActivity).Hours() / 24)
}
