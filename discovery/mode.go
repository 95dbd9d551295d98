package discovery

import (
	"math/rand"

	"golang.org/x/exp/slices"

	"github.com/evermoredb/evermore-go/gossip"
)

type clusterModeKind int8

const (
	modeStandalone clusterModeKind = iota
	modeDNSDiscovery
	modeSeedList
)

// ClusterMode describes how the client locates the cluster. It is selected
// once at client construction and is immutable thereafter.
type ClusterMode struct {
	kind  clusterModeKind
	seeds []gossip.Endpoint
}

// Standalone targets a single-node deployment at the given endpoint.
func Standalone(ep gossip.Endpoint) ClusterMode {
	return ClusterMode{kind: modeStandalone, seeds: []gossip.Endpoint{ep}}
}

// DNSDiscovery targets a cluster behind a single DNS name that resolves to
// the cluster members.
func DNSDiscovery(ep gossip.Endpoint) ClusterMode {
	return ClusterMode{kind: modeDNSDiscovery, seeds: []gossip.Endpoint{ep}}
}

// SeedList targets a cluster through an explicit list of seed endpoints.
func SeedList(eps ...gossip.Endpoint) ClusterMode {
	return ClusterMode{kind: modeSeedList, seeds: slices.Clone(eps)}
}

// candidates returns the probe order for one discovery attempt. Seed lists
// are shuffled per attempt so that repeated attempts do not hammer the same
// dead seed first.
func (m ClusterMode) candidates(rnd *rand.Rand) []gossip.Endpoint {
	eps := slices.Clone(m.seeds)

	if m.kind == modeSeedList {
		rnd.Shuffle(len(eps), func(i, j int) {
			eps[i], eps[j] = eps[j], eps[i]
		})
	}

	return eps
}
