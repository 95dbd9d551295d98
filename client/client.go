// Package client provides the entry point of the driver: a handle that owns
// node selection for the lifetime of a client session. The per-operation
// request catalog is built on top of it out of the call shapes.
package client

import (
	"context"
	"fmt"

	"github.com/evermoredb/evermore-go/discovery"
)

// Client routes calls to a cluster without the caller knowing the topology.
// It is safe for concurrent use.
type Client struct {
	conf     discovery.Config
	selector *discovery.Selector
}

// New validates the settings and creates a client. No network I/O happens
// until the first call needs a node.
func New(conf discovery.Config) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	conf = conf.WithDefaults()

	return &Client{
		conf:     conf,
		selector: discovery.NewSelector(conf),
	}, nil
}

// Settings returns the effective client settings, with defaults applied.
func (c *Client) Settings() discovery.Config {
	return c.conf
}

// Node returns the cluster member calls should be routed to, running
// discovery if none is selected yet.
func (c *Client) Node(ctx context.Context) (*discovery.Node, error) {
	return c.selector.Select(ctx)
}

// Invalidate tells the client that the node was found disconnected. The next
// call triggers a fresh discovery.
func (c *Client) Invalidate(node *discovery.Node) {
	c.selector.Invalidate(node)
}

// Close releases the selected node's transport. The client may still be
// used afterwards; the next call re-selects.
func (c *Client) Close() error {
	return c.selector.Close()
}
