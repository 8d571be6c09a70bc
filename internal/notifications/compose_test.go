package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		score int
		units int
		want  int
	}{
		{"perfect score", 100, 5, 100},
		{"spec example", 6, 5, 6}, // round(6/(5*20)*100)
		{"half", 50, 5, 50},
		{"truncating fraction", 47, 3, 78}, // 78.33 rounds down
		{"half rounds away from zero", 1, 10, 1},
		{"single unit", 10, 1, 50},
		{"zero score", 0, 5, 0},
		{"zero units yields zero, not a division error", 80, 0, 0},
		{"negative units guarded", 80, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.score, tt.units))
		})
	}
}

func TestPercentageBounds(t *testing.T) {
	for score := 0; score <= 100; score++ {
		p := Percentage(score, DefaultTotalUnits)
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
}

func TestDaysInactive(t *testing.T) {
	now := time.Date(2026, time.March, 15, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, DaysInactive(now.Add(-5*24*time.Hour), now))
	assert.Equal(t, 3, DaysInactive(now.Add(-(3*24+12)*time.Hour), now)) // floors partial days
	assert.Equal(t, 0, DaysInactive(now.Add(time.Hour), now))            // future-dated activity
	assert.Equal(t, 0, DaysInactive(time.Time{}, now))                   // never recorded
}

func TestComposeNewContent(t *testing.T) {
	msg := ComposeNewContent(&ContentRecord{ID: "c42", Category: "mechanics"})

	assert.Equal(t, "New Content Available!", msg.Title)
	assert.Contains(t, msg.Body, "mechanics")
	assert.Equal(t, map[string]string{
		"type":             "new_content",
		"content_category": "mechanics",
		"content_id":       "c42",
	}, msg.Data)
	assert.Equal(t, PriorityHigh, msg.Priority)
	assert.Equal(t, ChannelContent, msg.Channel)
	assert.Empty(t, msg.Topic, "composer must not address the message")
	assert.Empty(t, msg.Token)
}

func TestComposeNewContentDefaultCategory(t *testing.T) {
	msg := ComposeNewContent(&ContentRecord{ID: "c1"})
	assert.Contains(t, msg.Body, "general")
	assert.Equal(t, "general", msg.Data["content_category"])
}

func TestComposeResultCompleted(t *testing.T) {
	sub := UserRecord{ID: "u1", Name: "Ana"}
	msg := ComposeResultCompleted(sub, 6, 6)

	assert.Equal(t, "Result Recorded", msg.Title)
	assert.Contains(t, msg.Body, "Ana")
	assert.Contains(t, msg.Body, "6 points")
	assert.Contains(t, msg.Body, "(6%)")
	assert.Equal(t, "result_completed", msg.Data["type"])
	assert.Equal(t, "u1", msg.Data["subscriber_id"])
	assert.Equal(t, "Ana", msg.Data["subscriber_name"])
	assert.Equal(t, "6", msg.Data["score"])
	assert.Equal(t, "6", msg.Data["percentage"])
	assert.Equal(t, ChannelSupervisor, msg.Channel)
}

func TestComposeResultCompletedNamelessSubscriber(t *testing.T) {
	msg := ComposeResultCompleted(UserRecord{ID: "u2"}, 40, 40)
	assert.Contains(t, msg.Body, "A subscriber")
	assert.Equal(t, "A subscriber", msg.Data["subscriber_name"])
}

func TestComposeLowScoreAlert(t *testing.T) {
	msg := ComposeLowScoreAlert(UserRecord{ID: "u1", Name: "Ana"}, 30, 30)

	assert.Equal(t, "Low Score Alert", msg.Title)
	assert.Contains(t, msg.Body, "Ana")
	assert.Contains(t, msg.Body, "30%")
	assert.Equal(t, "low_score_alert", msg.Data["type"])
	assert.Equal(t, "30", msg.Data["score"])
	assert.Equal(t, "30", msg.Data["percentage"])
	assert.Equal(t, PriorityHigh, msg.Priority)
}

func TestComposeWeeklyDigest(t *testing.T) {
	msg := ComposeWeeklyDigest(DigestSummary{
		ActiveSubscribers: 4,
		TotalEvents:       11,
		AverageScore:      72,
	})

	assert.Equal(t, "Weekly Activity Summary", msg.Title)
	assert.Contains(t, msg.Body, "4 subscribers")
	assert.Contains(t, msg.Body, "11 results")
	assert.Contains(t, msg.Body, "72 points")
	assert.Equal(t, map[string]string{
		"type":          "weekly_digest",
		"active_count":  "4",
		"total_events":  "11",
		"average_score": "72",
	}, msg.Data)
	assert.Equal(t, PriorityDefault, msg.Priority)
}

func TestComposeInactivityReminder(t *testing.T) {
	msg := ComposeInactivityReminder(5)

	assert.Equal(t, "We Miss You!", msg.Title)
	assert.Contains(t, msg.Body, "5 days")
	assert.Equal(t, "inactivity_reminder", msg.Data["type"])
	assert.Equal(t, "5", msg.Data["days_inactive"])
	assert.Equal(t, ChannelReminder, msg.Channel)
	assert.Equal(t, PriorityDefault, msg.Priority)
}

func TestForTokenClonesData(t *testing.T) {
	base := ComposeInactivityReminder(2)
	clone := base.forToken("tok-1")

	assert.Equal(t, "tok-1", clone.Token)
	assert.Empty(t, clone.Topic)

	clone.Data["days_inactive"] = "99"
	assert.Equal(t, "2", base.Data["days_inactive"], "clone must not alias the original data map")
}
