package gossip

import "context"

// Client reads the membership view of a single cluster node. The wire
// encoding of the membership query lives with the protocol codec and is not
// part of this package.
type Client interface {
	// Read returns the member list as reported by the node.
	Read(ctx context.Context) ([]MemberInfo, error)

	// Close releases the underlying transport. It must be called once the
	// client is no longer needed.
	Close() error
}

// Dialer is a function that establishes a gossip connection with a candidate
// endpoint.
type Dialer func(ctx context.Context, ep Endpoint) (Client, error)
