// Package call maps typed requests and responses onto the three RPC shapes
// supported by the server: request/response, request/stream and
// stream/stream. Shapes are parameterized by request construction and
// response translation, so the per-operation catalog stays a set of plain
// values.
//
// Calls are never retried here. A transport failure is propagated as-is so
// the caller can re-select a node and try again; a translation failure is
// reported as ErrMalformedResponse and retrying it is pointless.
package call

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// ErrMalformedResponse indicates that a protocol response was missing an
// expected field or was otherwise structurally invalid. Unlike a transport
// failure, it points at a message shape bug rather than connectivity.
var ErrMalformedResponse = errors.New("call: malformed response")

// Target resolves the transport of the node a call is routed to.
// *discovery.Node implements it.
type Target interface {
	Conn(ctx context.Context) (grpc.ClientConnInterface, error)
}

// Options carries the per-call settings supplied by the caller. They are
// independent of the discovery timeouts.
type Options struct {
	// Deadline bounds the whole call, including streaming delivery.
	Deadline time.Time

	// Metadata is attached to the outgoing call headers.
	Metadata metadata.MD

	// RequiresLeader asks the server to reject the call if the node has lost
	// leadership, instead of serving stale data.
	RequiresLeader bool
}

func (o Options) apply(ctx context.Context) (context.Context, context.CancelFunc) {
	var cancel context.CancelFunc

	if !o.Deadline.IsZero() {
		ctx, cancel = context.WithDeadline(ctx, o.Deadline)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	md := metadata.Join(o.Metadata)
	if o.RequiresLeader {
		md.Set("requires-leader", "true")
	}

	if len(md) > 0 {
		ctx = metadata.NewOutgoingContext(ctx, md)
	}

	return ctx, cancel
}

func streamName(method string) string {
	if i := strings.LastIndexByte(method, '/'); i >= 0 {
		return method[i+1:]
	}

	return method
}
