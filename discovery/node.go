package discovery

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"

	"github.com/evermoredb/evermore-go/gossip"
)

// Capabilities is the feature set negotiated with the selected server.
type Capabilities struct {
	ServerVersion           string
	Streams                 bool
	PersistentSubscriptions bool
	Projections             bool
}

// Node is a resolved cluster member all calls of the current selection epoch
// are routed to. The underlying transport is materialized lazily on first
// use and is shared by all calls; it is not recreated per call.
type Node struct {
	// Endpoint is the address the node serves client traffic on.
	Endpoint gossip.Endpoint

	// Capabilities is the server feature set fetched during selection.
	Capabilities Capabilities

	mut    sync.Mutex
	dialer Dialer
	conn   *grpc.ClientConn
}

func newNode(ep gossip.Endpoint, caps Capabilities, dialer Dialer) *Node {
	return &Node{
		Endpoint:     ep,
		Capabilities: caps,
		dialer:       dialer,
	}
}

// Conn returns the node's transport handle, dialing it on first use. The
// handle is long-lived and safe to share between concurrent calls.
func (n *Node) Conn(ctx context.Context) (grpc.ClientConnInterface, error) {
	n.mut.Lock()
	defer n.mut.Unlock()

	if n.conn != nil {
		return n.conn, nil
	}

	conn, err := n.dialer(ctx, n.Endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", n.Endpoint, err)
	}

	n.conn = conn

	return conn, nil
}

// Close tears down the transport handle, if it was ever materialized.
func (n *Node) Close() error {
	n.mut.Lock()
	defer n.mut.Unlock()

	if n.conn == nil {
		return nil
	}

	conn := n.conn
	n.conn = nil

	return conn.Close()
}
