package gossip

import (
	"github.com/google/uuid"
)

// VNodeState is the replication role and lifecycle phase of a cluster member,
// as reported by the gossip protocol.
type VNodeState int8

const (
	StateUnknown VNodeState = iota
	StateLeader
	StateFollower
	StateReadOnlyReplica
	StateManager
	StateShuttingDown
	StateShutdown
)

func (s VNodeState) String() string {
	switch s {
	case StateLeader:
		return "leader"
	case StateFollower:
		return "follower"
	case StateReadOnlyReplica:
		return "readonly-replica"
	case StateManager:
		return "manager"
	case StateShuttingDown:
		return "shutting-down"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// MemberInfo describes a single cluster member as seen by the gossip source
// at the moment of the query. Member lists are produced fresh on every probe
// and never mutated, only replaced.
type MemberInfo struct {
	// InstanceID is the unique identifier of the member instance.
	InstanceID uuid.UUID
	// State is the member's current replication role.
	State VNodeState
	// IsAlive is false if the gossip source considers the member dead.
	IsAlive bool
	// HTTPEndpoint is the address the member serves client traffic on.
	HTTPEndpoint Endpoint
}
