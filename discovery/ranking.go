package discovery

import (
	"golang.org/x/exp/slices"

	"github.com/evermoredb/evermore-go/gossip"
	"github.com/evermoredb/evermore-go/internal/generic"
)

// Preference is the client-side policy for ranking cluster members by role
// when several are reachable.
type Preference int8

const (
	PreferLeader Preference = iota
	PreferFollower
	PreferReplica
	PreferAny
)

func (p Preference) String() string {
	switch p {
	case PreferLeader:
		return "leader"
	case PreferFollower:
		return "follower"
	case PreferReplica:
		return "replica"
	default:
		return "any"
	}
}

// Members in these states are never selectable, regardless of preference.
var excludedStates = []gossip.VNodeState{
	gossip.StateManager,
	gossip.StateShuttingDown,
	gossip.StateShutdown,
}

// priority maps a member state to a rank under the given preference. The
// preferred role ranks 0, other roles rank worse in increasing order.
// PreferAny flattens all roles to the same rank.
func priority(pref Preference, state gossip.VNodeState) int {
	var order []gossip.VNodeState

	switch pref {
	case PreferLeader:
		order = []gossip.VNodeState{gossip.StateLeader, gossip.StateFollower, gossip.StateReadOnlyReplica}
	case PreferFollower:
		order = []gossip.VNodeState{gossip.StateFollower, gossip.StateLeader, gossip.StateReadOnlyReplica}
	case PreferReplica:
		order = []gossip.VNodeState{gossip.StateReadOnlyReplica, gossip.StateFollower, gossip.StateLeader}
	default:
		return 0
	}

	for i, s := range order {
		if s == state {
			return i
		}
	}

	return len(order)
}

// PickBest ranks the members under the given preference and returns the best
// one, skipping members that are dead or in an excluded state. Ties are
// broken by the original order of the input, which makes the result
// deterministic for a fixed input ordering. It is a pure function with no
// side effects.
func PickBest(members []gossip.MemberInfo, pref Preference) (gossip.MemberInfo, bool) {
	selectable := generic.Filter(members, func(m gossip.MemberInfo) bool {
		return m.IsAlive && !slices.Contains(excludedStates, m.State)
	})

	if len(selectable) == 0 {
		return gossip.MemberInfo{}, false
	}

	slices.SortStableFunc(selectable, func(a, b gossip.MemberInfo) bool {
		return priority(pref, a.State) < priority(pref, b.State)
	})

	return selectable[0], true
}
