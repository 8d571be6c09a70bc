package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAudienceContentCreated(t *testing.T) {
	d := newTestDispatcher(t, &fakeStore{}, &fakeGateway{})

	aud, err := d.ResolveAudience(context.Background(), Event{
		Kind:    EventContentCreated,
		Content: &ContentRecord{ID: "c1"},
	})
	require.NoError(t, err)
	assert.True(t, aud.Broadcast())
	assert.Equal(t, TopicAllSubscribers, aud.Topic)
}

func TestResolveAudienceResultRecorded(t *testing.T) {
	store := &fakeStore{users: map[string]UserRecord{
		"sub": {ID: "sub", Role: RoleSubscriber, Name: "Ana"},
		"sup": {ID: "sup", Role: RoleSupervisor, Name: "Eva"},
	}}
	d := newTestDispatcher(t, store, &fakeGateway{})

	t.Run("subscriber result broadcasts to supervisors", func(t *testing.T) {
		aud, err := d.ResolveAudience(context.Background(), Event{
			Kind:   EventResultRecorded,
			Result: &ResultRecord{ID: "r1", UserID: "sub"},
		})
		require.NoError(t, err)
		assert.Equal(t, TopicAllSupervisors, aud.Topic)
	})

	t.Run("supervisor result yields empty audience", func(t *testing.T) {
		aud, err := d.ResolveAudience(context.Background(), Event{
			Kind:   EventResultRecorded,
			Result: &ResultRecord{ID: "r2", UserID: "sup"},
		})
		require.NoError(t, err)
		assert.True(t, aud.Empty())
	})

	t.Run("unknown user yields empty audience, not an error", func(t *testing.T) {
		aud, err := d.ResolveAudience(context.Background(), Event{
			Kind:   EventResultRecorded,
			Result: &ResultRecord{ID: "r3", UserID: "ghost"},
		})
		require.NoError(t, err)
		assert.True(t, aud.Empty())
	})
}

func TestResolveAudienceInactivitySkipsTokenless(t *testing.T) {
	store := &fakeStore{inactive: []UserRecord{
		{ID: "u1", Role: RoleSubscriber, Token: "", LastActivityAt: daysAgo(4)},
		{ID: "u2", Role: RoleSubscriber, Token: "tok-2", LastActivityAt: daysAgo(5)},
	}}
	d := newTestDispatcher(t, store, &fakeGateway{})

	aud, err := d.ResolveAudience(context.Background(), Event{
		Kind:     EventScheduleTick,
		Schedule: ScheduleInactivity,
	})
	require.NoError(t, err)
	require.Len(t, aud.Recipients, 1)
	assert.Equal(t, "u2", aud.Recipients[0].ID)
	assert.False(t, aud.Broadcast())
}

func TestResolveAudienceDigest(t *testing.T) {
	t.Run("no subscriber records at all skips the digest", func(t *testing.T) {
		d := newTestDispatcher(t, &fakeStore{}, &fakeGateway{})
		aud, err := d.ResolveAudience(context.Background(), Event{
			Kind:     EventScheduleTick,
			Schedule: ScheduleDigest,
		})
		require.NoError(t, err)
		assert.True(t, aud.Empty())
	})

	t.Run("subscribers with zero activity still broadcast", func(t *testing.T) {
		store := &fakeStore{byRole: map[Role][]UserRecord{
			RoleSubscriber: {{ID: "u1", Role: RoleSubscriber}},
		}}
		d := newTestDispatcher(t, store, &fakeGateway{})
		aud, err := d.ResolveAudience(context.Background(), Event{
			Kind:     EventScheduleTick,
			Schedule: ScheduleDigest,
		})
		require.NoError(t, err)
		assert.Equal(t, TopicAllSupervisors, aud.Topic)
	})
}

func TestResolveAudienceStoreFailure(t *testing.T) {
	d := newTestDispatcher(t, &fakeStore{failAll: true}, &fakeGateway{})

	_, err := d.ResolveAudience(context.Background(), Event{
		Kind:   EventResultRecorded,
		Result: &ResultRecord{ID: "r1", UserID: "sub"},
	})
	assert.ErrorIs(t, err, errStoreDown)
}
