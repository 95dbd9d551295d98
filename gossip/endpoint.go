package gossip

import (
	"net"
	"strconv"
)

// Endpoint is a resolved network address of a cluster member. Endpoints are
// plain values and are compared by value.
type Endpoint struct {
	Host string
	Port uint16
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}
