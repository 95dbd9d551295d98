package call

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Unary is the request/response call shape. Build constructs the protocol
// request from the typed parameters, Output allocates an empty protocol
// response, and Translate converts the response to the typed result, failing
// if required fields are absent.
type Unary[P any, R any] struct {
	Method    string
	Build     func(P) (proto.Message, error)
	Output    func() proto.Message
	Translate func(proto.Message) (R, error)
}

// Do executes the call against the target node.
func (c Unary[P, R]) Do(ctx context.Context, target Target, params P, opts Options) (R, error) {
	var zero R

	conn, err := target.Conn(ctx)
	if err != nil {
		return zero, fmt.Errorf("connect: %w", err)
	}

	req, err := c.Build(params)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}

	ctx, cancel := opts.apply(ctx)
	defer cancel()

	out := c.Output()
	if err := conn.Invoke(ctx, c.Method, req, out); err != nil {
		return zero, err
	}

	resp, err := c.Translate(out)
	if err != nil {
		return zero, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	return resp, nil
}
