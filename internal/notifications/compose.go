package notifications

import (
	"fmt"
	"strconv"
)

// Composers build one Message per notification kind. They are pure functions
// of their inputs: no I/O, no target — the dispatcher addresses the message
// to a topic or token afterwards. Numeric fields stay native until this
// final step, where the gateway's string-valued data format is produced.

// ComposeNewContent announces newly created content to subscribers.
func ComposeNewContent(content *ContentRecord) *Message {
	category := content.Category
	if category == "" {
		category = "general"
	}
	return &Message{
		Title: "New Content Available!",
		Body:  fmt.Sprintf("A new %s item has been added. Test your knowledge!", category),
		Data: map[string]string{
			"type":             string(KindNewContent),
			"content_category": category,
			"content_id":       content.ID,
		},
		Priority:    PriorityHigh,
		Channel:     ChannelContent,
		ClickAction: "OPEN_CONTENT",
	}
}

// ComposeResultCompleted notifies supervisors that a subscriber recorded a
// result.
func ComposeResultCompleted(subscriber UserRecord, score, percentage int) *Message {
	name := displayName(subscriber)
	return &Message{
		Title: "Result Recorded",
		Body:  fmt.Sprintf("%s completed a session with %d points (%d%%)", name, score, percentage),
		Data: map[string]string{
			"type":            string(KindResultCompleted),
			"subscriber_id":   subscriber.ID,
			"subscriber_name": name,
			"score":           strconv.Itoa(score),
			"percentage":      strconv.Itoa(percentage),
		},
		Priority: PriorityHigh,
		Channel:  ChannelSupervisor,
	}
}

// ComposeLowScoreAlert is the escalation message for a low result.
func ComposeLowScoreAlert(subscriber UserRecord, score, percentage int) *Message {
	name := displayName(subscriber)
	return &Message{
		Title: "Low Score Alert",
		Body:  fmt.Sprintf("%s scored %d%% and may need additional help.", name, percentage),
		Data: map[string]string{
			"type":            string(KindLowScoreAlert),
			"subscriber_name": name,
			"score":           strconv.Itoa(score),
			"percentage":      strconv.Itoa(percentage),
		},
		Priority: PriorityHigh,
		Channel:  ChannelSupervisor,
	}
}

// ComposeWeeklyDigest summarizes a trailing activity window for supervisors.
func ComposeWeeklyDigest(summary DigestSummary) *Message {
	return &Message{
		Title: "Weekly Activity Summary",
		Body: fmt.Sprintf("%d subscribers recorded %d results. Average score: %d points.",
			summary.ActiveSubscribers, summary.TotalEvents, summary.AverageScore),
		Data: map[string]string{
			"type":          string(KindWeeklyDigest),
			"active_count":  strconv.Itoa(summary.ActiveSubscribers),
			"total_events":  strconv.Itoa(summary.TotalEvents),
			"average_score": strconv.Itoa(summary.AverageScore),
		},
		Priority: PriorityDefault,
		Channel:  ChannelSupervisor,
	}
}

// ComposeInactivityReminder nudges a single inactive subscriber.
func ComposeInactivityReminder(daysInactive int) *Message {
	return &Message{
		Title: "We Miss You!",
		Body:  fmt.Sprintf("It's been %d days since your last visit. Come back and keep learning!", daysInactive),
		Data: map[string]string{
			"type":          string(KindInactivityReminder),
			"days_inactive": strconv.Itoa(daysInactive),
		},
		Priority: PriorityDefault,
		Channel:  ChannelReminder,
	}
}

func displayName(u UserRecord) string {
	if u.Name == "" {
		return "A subscriber"
	}
	return u.Name
}
