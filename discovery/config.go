package discovery

import (
	"context"
	"errors"
	"time"

	kitlog "github.com/go-kit/log"

	"github.com/evermoredb/evermore-go/gossip"
	"github.com/evermoredb/evermore-go/internal/grpcutil"
)

// CapabilityReader fetches the negotiated capability set of a member. The
// wire format of the capability exchange lives with the protocol codec.
type CapabilityReader interface {
	Read(ctx context.Context, ep gossip.Endpoint) (Capabilities, error)
}

// Config holds the immutable client settings consumed at construction. It is
// read by the discoverer and the selector and never mutated afterwards.
type Config struct {
	// Cluster describes how the candidate endpoints are resolved.
	Cluster ClusterMode

	// Preference ranks cluster members by role during selection.
	Preference Preference

	// GossipTimeout bounds each individual gossip probe.
	GossipTimeout time.Duration

	// RetryInterval is the pause between two discovery attempts.
	RetryInterval time.Duration

	// MaxAttempts is the number of discovery attempts before selection fails
	// with ErrLeaderNotFound.
	MaxAttempts int

	// GossipDialer establishes gossip connections with candidate endpoints.
	GossipDialer gossip.Dialer

	// Capabilities fetches the server capability set of a selected member.
	Capabilities CapabilityReader

	// Dialer establishes the node transport used by dispatched calls.
	Dialer Dialer

	// RetryOn decides whether a failed discovery attempt is worth retrying.
	// Parsing errors are not: retrying will not fix a malformed message.
	RetryOn func(error) bool

	Logger kitlog.Logger
}

func DefaultConfig() Config {
	return Config{
		Preference:    PreferLeader,
		GossipTimeout: 5 * time.Second,
		RetryInterval: 200 * time.Millisecond,
		MaxAttempts:   10,
		Dialer:        DialInsecure,
		RetryOn:       DefaultRetryOn,
		Logger:        kitlog.NewNopLogger(),
	}
}

// DefaultRetryOn retries attempts that failed because of connectivity or
// because no suitable member was reachable yet, and gives up on anything
// else. A cancelled call is never retried: the caller has already walked
// away.
func DefaultRetryOn(err error) bool {
	if errors.Is(err, context.Canceled) || grpcutil.IsCanceled(err) {
		return false
	}

	switch {
	case errors.Is(err, gossip.ErrConnection), errors.Is(err, gossip.ErrTimeout):
		return true
	case errors.Is(err, ErrNoMember):
		return true
	case grpcutil.IsTimeout(err), grpcutil.IsUnavailable(err):
		return true
	}

	return false
}

// WithDefaults returns a copy of the config with unset fields replaced by
// their defaults.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()

	if c.GossipTimeout == 0 {
		c.GossipTimeout = def.GossipTimeout
	}

	if c.RetryInterval == 0 {
		c.RetryInterval = def.RetryInterval
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}

	if c.Dialer == nil {
		c.Dialer = def.Dialer
	}

	if c.RetryOn == nil {
		c.RetryOn = def.RetryOn
	}

	if c.Logger == nil {
		c.Logger = def.Logger
	}

	return c
}

// Validate reports configuration errors that would make discovery impossible.
func (c Config) Validate() error {
	if len(c.Cluster.seeds) == 0 {
		return errors.New("no cluster endpoints configured")
	}

	if c.GossipDialer == nil {
		return errors.New("no gossip dialer configured")
	}

	if c.Capabilities == nil {
		return errors.New("no capability reader configured")
	}

	if c.MaxAttempts < 0 {
		return errors.New("max attempts must not be negative")
	}

	return nil
}
