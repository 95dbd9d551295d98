package call

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

// ServerStream is the request/stream call shape: one typed request opens a
// finite, non-restartable sequence of typed responses.
type ServerStream[P any, R any] struct {
	Method    string
	Build     func(P) (proto.Message, error)
	Output    func() proto.Message
	Translate func(proto.Message) (R, error)
}

// Open sends the request and returns the response stream. The returned
// stream must be closed unless it was consumed to the end.
func (c ServerStream[P, R]) Open(ctx context.Context, target Target, params P, opts Options) (*Stream[R], error) {
	conn, err := target.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	req, err := c.Build(params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	ctx, cancel := opts.apply(ctx)

	desc := &grpc.StreamDesc{
		StreamName:    streamName(c.Method),
		ServerStreams: true,
	}

	cs, err := conn.NewStream(ctx, desc, c.Method)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := cs.SendMsg(req); err != nil {
		cancel()
		return nil, err
	}

	if err := cs.CloseSend(); err != nil {
		cancel()
		return nil, err
	}

	return &Stream[R]{
		stream:    cs,
		output:    c.Output,
		translate: c.Translate,
		cancel:    cancel,
	}, nil
}

// Stream is the receiving half of a server-streaming call. It is not safe
// for concurrent use.
type Stream[R any] struct {
	stream    grpc.ClientStream
	output    func() proto.Message
	translate func(proto.Message) (R, error)
	cancel    context.CancelFunc
	err       error
}

// Recv returns the next response. io.EOF signals a clean end of the
// sequence; any other error is terminal and sticks.
func (s *Stream[R]) Recv() (R, error) {
	var zero R

	if s.err != nil {
		return zero, s.err
	}

	msg := s.output()
	if err := s.stream.RecvMsg(msg); err != nil {
		s.err = err
		s.cancel()

		return zero, err
	}

	resp, err := s.translate(msg)
	if err != nil {
		s.err = fmt.Errorf("%w: %s", ErrMalformedResponse, err)
		s.cancel()

		return zero, s.err
	}

	return resp, nil
}

// Close cancels the call. It is safe to call after the stream has ended.
func (s *Stream[R]) Close() {
	s.cancel()
}
