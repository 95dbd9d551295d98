package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"
)

// ErrLeaderNotFound indicates that discovery exhausted its attempt budget
// without finding a selectable member.
var ErrLeaderNotFound = errors.New("discovery: leader not found")

// Selector owns the discovery retry policy and caches the selected node for
// the lifetime of a client session. At most one node is cached at a time,
// and it is always fully resolved: callers never observe a node without its
// capability set.
type Selector struct {
	conf   Config
	disc   *Discoverer
	caps   CapabilityReader
	logger kitlog.Logger

	mut  sync.Mutex
	node *Node

	group singleflight.Group
}

func NewSelector(conf Config) *Selector {
	conf = conf.WithDefaults()

	return &Selector{
		conf:   conf,
		disc:   NewDiscoverer(conf),
		caps:   conf.Capabilities,
		logger: conf.Logger,
	}
}

// Select returns the cached node, or runs discovery to resolve a new one.
// Concurrent callers share a single in-flight discovery sequence instead of
// starting independent loops. A terminal failure leaves the selector
// unselected, so the next caller may retry.
func (s *Selector) Select(ctx context.Context) (*Node, error) {
	if node := s.cached(); node != nil {
		return node, nil
	}

	v, err, _ := s.group.Do("select", func() (interface{}, error) {
		// The node might have been selected while we were waiting our turn.
		if node := s.cached(); node != nil {
			return node, nil
		}

		return s.selectNode(ctx)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Node), nil
}

// Invalidate drops the cached node if it is still the one the caller holds,
// and closes its transport. A node from an older selection epoch is left
// alone.
func (s *Selector) Invalidate(node *Node) {
	s.mut.Lock()
	dropped := s.node == node
	if dropped {
		s.node = nil
	}
	s.mut.Unlock()

	if dropped {
		if err := node.Close(); err != nil {
			level.Warn(s.logger).Log("msg", "failed to close node", "endpoint", node.Endpoint, "err", err)
		}

		level.Info(s.logger).Log("msg", "node invalidated", "endpoint", node.Endpoint)
	}
}

// Close drops and closes the cached node, if any.
func (s *Selector) Close() error {
	s.mut.Lock()
	node := s.node
	s.node = nil
	s.mut.Unlock()

	if node != nil {
		return node.Close()
	}

	return nil
}

func (s *Selector) cached() *Node {
	s.mut.Lock()
	defer s.mut.Unlock()

	return s.node
}

func (s *Selector) selectNode(ctx context.Context) (*Node, error) {
	var lastErr error

	for attempt := 0; attempt < s.conf.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.conf.RetryInterval):
			}
		}

		node, err := s.resolveOnce(ctx)
		if err != nil {
			lastErr = err

			if s.conf.RetryOn(err) {
				level.Debug(s.logger).Log("msg", "discovery attempt failed", "attempt", attempt+1, "err", err)
				continue
			}

			return nil, err
		}

		s.mut.Lock()
		s.node = node
		s.mut.Unlock()

		level.Info(s.logger).Log("msg", "node selected", "endpoint", node.Endpoint, "version", node.Capabilities.ServerVersion)

		return node, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %s", ErrLeaderNotFound, s.conf.MaxAttempts, lastErr)
}

func (s *Selector) resolveOnce(ctx context.Context) (*Node, error) {
	member, err := s.disc.Discover(ctx)
	if err != nil {
		return nil, err
	}

	caps, err := s.caps.Read(ctx, member.HTTPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("read capabilities: %w", err)
	}

	return newNode(member.HTTPEndpoint, caps, s.conf.Dialer), nil
}
