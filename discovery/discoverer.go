package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/evermoredb/evermore-go/gossip"
)

// ErrNoMember indicates that a discovery attempt found no member satisfying
// the preference and exclusion rules.
var ErrNoMember = errors.New("discovery: no suitable member")

// Discoverer drives gossip probes across the configured candidates and picks
// the best reachable member. It is the only component performing network I/O
// during discovery; the ranking above it is pure.
type Discoverer struct {
	mode   ClusterMode
	pref   Preference
	probe  *gossip.Probe
	logger kitlog.Logger

	mut sync.Mutex
	rnd *rand.Rand
}

func NewDiscoverer(conf Config) *Discoverer {
	conf = conf.WithDefaults()

	return &Discoverer{
		mode:   conf.Cluster,
		pref:   conf.Preference,
		probe:  gossip.NewProbe(conf.GossipDialer, conf.GossipTimeout, conf.Logger),
		logger: conf.Logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Discover performs one discovery attempt: it probes the candidates in order
// and returns the best-ranked member of the first candidate that reports any
// selectable member. A candidate probe failure is local: the next candidate
// is tried. If all candidates fail or report no selectable member, the
// attempt fails with ErrNoMember wrapping the last probe error, if any.
func (d *Discoverer) Discover(ctx context.Context) (gossip.MemberInfo, error) {
	var lastErr error

	for _, candidate := range d.candidates() {
		if err := ctx.Err(); err != nil {
			return gossip.MemberInfo{}, err
		}

		members, err := d.probe.Read(ctx, candidate)
		if err != nil {
			level.Debug(d.logger).Log("msg", "gossip probe failed", "endpoint", candidate, "err", err)
			lastErr = err

			continue
		}

		if best, ok := PickBest(members, d.pref); ok {
			level.Debug(d.logger).Log("msg", "member discovered", "endpoint", best.HTTPEndpoint, "state", best.State)
			return best, nil
		}

		level.Debug(d.logger).Log("msg", "no selectable member reported", "endpoint", candidate)
	}

	if lastErr != nil {
		return gossip.MemberInfo{}, fmt.Errorf("%w: %s", ErrNoMember, lastErr)
	}

	return gossip.MemberInfo{}, ErrNoMember
}

func (d *Discoverer) candidates() []gossip.Endpoint {
	d.mut.Lock()
	defer d.mut.Unlock()

	return d.mode.candidates(d.rnd)
}
