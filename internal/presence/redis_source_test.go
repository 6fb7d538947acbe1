package presence

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
)

type fakePresenceStore struct {
	online map[string]struct{}
}

func (f *fakePresenceStore) Get(_ context.Context, key string) (string, error) {
	id := key[len("vf:presence:agent:"):]
	if _, ok := f.online[id]; ok {
		return "1", nil
	}
	return "", goredis.Nil
}

func (f *fakePresenceStore) ScanKeys(_ context.Context, _ string, _ int64) ([]string, error) {
	keys := make([]string, 0, len(f.online))
	for id := range f.online {
		keys = append(keys, "vf:presence:agent:"+id)
	}
	return keys, nil
}

func (f *fakePresenceStore) PresenceKey(agentID string) string {
	return "vf:presence:agent:" + agentID
}

func (f *fakePresenceStore) PresencePattern() string {
	return "vf:presence:agent:*"
}

func TestSnapshotListsOnlineAgents(t *testing.T) {
	src := &RedisSource{store: &fakePresenceStore{online: map[string]struct{}{
		"agent-a": {},
		"agent-b": {},
	}}}

	ids, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"agent-a", "agent-b"}, ids)
}

func TestStateOfMapsHeartbeatToState(t *testing.T) {
	src := &RedisSource{store: &fakePresenceStore{online: map[string]struct{}{"agent-a": {}}}}

	state, err := src.StateOf(context.Background(), "agent-a")
	require.NoError(t, err)
	assert.Equal(t, enums.PresenceOnline, state)

	state, err = src.StateOf(context.Background(), "agent-b")
	require.NoError(t, err)
	assert.Equal(t, enums.PresenceOffline, state)
}

func TestTransitionReconnected(t *testing.T) {
	assert.True(t, Transition{Before: enums.PresenceOffline, After: enums.PresenceOnline}.Reconnected())
	assert.False(t, Transition{Before: enums.PresenceOnline, After: enums.PresenceOnline}.Reconnected())
	assert.False(t, Transition{Before: enums.PresenceUnknown, After: enums.PresenceOnline}.Reconnected())
	assert.False(t, Transition{Before: enums.PresenceOnline, After: enums.PresenceOffline}.Reconnected())
}
