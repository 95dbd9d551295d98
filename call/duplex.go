package call

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

// Duplex is the stream/stream call shape: the caller pushes protocol
// requests and receives typed responses over the same call, with the two
// directions independent of each other. Subscription sessions are built on
// top of it.
type Duplex[R any] struct {
	Method    string
	Output    func() proto.Message
	Translate func(proto.Message) (R, error)
}

// Open establishes the duplex stream against the target node.
func (c Duplex[R]) Open(ctx context.Context, target Target, opts Options) (*DuplexStream[R], error) {
	conn, err := target.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	ctx, cancel := opts.apply(ctx)

	desc := &grpc.StreamDesc{
		StreamName:    streamName(c.Method),
		ClientStreams: true,
		ServerStreams: true,
	}

	cs, err := conn.NewStream(ctx, desc, c.Method)
	if err != nil {
		cancel()
		return nil, err
	}

	return &DuplexStream[R]{
		stream:    cs,
		output:    c.Output,
		translate: c.Translate,
		cancel:    cancel,
	}, nil
}

// DuplexStream is an open stream/stream call. Send and Recv may be used
// concurrently with each other, but each direction by a single goroutine
// at a time.
type DuplexStream[R any] struct {
	stream    grpc.ClientStream
	output    func() proto.Message
	translate func(proto.Message) (R, error)
	cancel    context.CancelFunc
}

// Send writes one protocol request to the wire.
func (s *DuplexStream[R]) Send(msg proto.Message) error {
	return s.stream.SendMsg(msg)
}

// Recv returns the next typed response. io.EOF signals that the server has
// closed its side of the stream.
func (s *DuplexStream[R]) Recv() (R, error) {
	var zero R

	msg := s.output()
	if err := s.stream.RecvMsg(msg); err != nil {
		return zero, err
	}

	resp, err := s.translate(msg)
	if err != nil {
		return zero, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	return resp, nil
}

// CloseSend closes the sending direction, leaving the receiving one intact.
func (s *DuplexStream[R]) CloseSend() error {
	return s.stream.CloseSend()
}

// Cancel aborts the call in both directions.
func (s *DuplexStream[R]) Cancel() {
	s.cancel()
}
