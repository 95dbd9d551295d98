package discovery_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/evermoredb/evermore-go/discovery"
	"github.com/evermoredb/evermore-go/gossip"
)

func member(state gossip.VNodeState, alive bool) gossip.MemberInfo {
	return gossip.MemberInfo{
		InstanceID: uuid.New(),
		State:      state,
		IsAlive:    alive,
	}
}

func TestPickBest_PrefersConfiguredRole(t *testing.T) {
	members := []gossip.MemberInfo{
		member(gossip.StateFollower, true),
		member(gossip.StateLeader, true),
		member(gossip.StateReadOnlyReplica, true),
	}

	best, ok := discovery.PickBest(members, discovery.PreferLeader)
	require.True(t, ok)
	require.Equal(t, gossip.StateLeader, best.State)

	best, ok = discovery.PickBest(members, discovery.PreferFollower)
	require.True(t, ok)
	require.Equal(t, gossip.StateFollower, best.State)

	best, ok = discovery.PickBest(members, discovery.PreferReplica)
	require.True(t, ok)
	require.Equal(t, gossip.StateReadOnlyReplica, best.State)
}

func TestPickBest_AnyKeepsInputOrder(t *testing.T) {
	members := []gossip.MemberInfo{
		member(gossip.StateReadOnlyReplica, true),
		member(gossip.StateLeader, true),
	}

	best, ok := discovery.PickBest(members, discovery.PreferAny)
	require.True(t, ok)
	require.Equal(t, members[0].InstanceID, best.InstanceID)
}

func TestPickBest_SkipsExcludedStates(t *testing.T) {
	members := []gossip.MemberInfo{
		member(gossip.StateManager, true),
		member(gossip.StateShuttingDown, true),
		member(gossip.StateShutdown, true),
		member(gossip.StateFollower, true),
	}

	best, ok := discovery.PickBest(members, discovery.PreferLeader)
	require.True(t, ok)
	require.Equal(t, gossip.StateFollower, best.State)
}

func TestPickBest_SkipsDeadMembers(t *testing.T) {
	members := []gossip.MemberInfo{
		member(gossip.StateLeader, false),
		member(gossip.StateFollower, true),
	}

	best, ok := discovery.PickBest(members, discovery.PreferLeader)
	require.True(t, ok)
	require.Equal(t, gossip.StateFollower, best.State)
}

func TestPickBest_NothingSelectable(t *testing.T) {
	_, ok := discovery.PickBest(nil, discovery.PreferLeader)
	require.False(t, ok)

	_, ok = discovery.PickBest([]gossip.MemberInfo{
		member(gossip.StateShutdown, true),
		member(gossip.StateLeader, false),
	}, discovery.PreferAny)
	require.False(t, ok)
}

func TestPickBest_StableTieBreak(t *testing.T) {
	members := []gossip.MemberInfo{
		member(gossip.StateFollower, true),
		member(gossip.StateFollower, true),
		member(gossip.StateFollower, true),
	}

	best, ok := discovery.PickBest(members, discovery.PreferFollower)
	require.True(t, ok)
	require.Equal(t, members[0].InstanceID, best.InstanceID)
}

func TestPickBest_DoesNotMutateInput(t *testing.T) {
	members := []gossip.MemberInfo{
		member(gossip.StateReadOnlyReplica, true),
		member(gossip.StateLeader, true),
	}

	first := members[0].InstanceID

	_, ok := discovery.PickBest(members, discovery.PreferLeader)
	require.True(t, ok)
	require.Equal(t, first, members[0].InstanceID)
}
