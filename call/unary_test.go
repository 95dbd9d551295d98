package call_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/evermoredb/evermore-go/call"
)

type fakeConn struct {
	reply     proto.Message
	invokeErr error

	method  string
	request proto.Message
	lastCtx context.Context

	stream    grpc.ClientStream
	streamErr error
}

func (c *fakeConn) Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error {
	c.method = method
	c.request = args.(proto.Message)
	c.lastCtx = ctx

	if c.invokeErr != nil {
		return c.invokeErr
	}

	proto.Merge(reply.(proto.Message), c.reply)

	return nil
}

func (c *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	c.method = method
	c.lastCtx = ctx

	if c.streamErr != nil {
		return nil, c.streamErr
	}

	return c.stream, nil
}

type fakeTarget struct {
	conn grpc.ClientConnInterface
}

func (t fakeTarget) Conn(ctx context.Context) (grpc.ClientConnInterface, error) {
	return t.conn, nil
}

func echoCall() call.Unary[string, string] {
	return call.Unary[string, string]{
		Method: "/store.Streams/Echo",
		Build: func(s string) (proto.Message, error) {
			return wrapperspb.String(s), nil
		},
		Output: func() proto.Message {
			return &wrapperspb.StringValue{}
		},
		Translate: func(msg proto.Message) (string, error) {
			v := msg.(*wrapperspb.StringValue).GetValue()
			if v == "" {
				return "", errors.New("missing value")
			}

			return v, nil
		},
	}
}

func TestUnary_Do(t *testing.T) {
	conn := &fakeConn{reply: wrapperspb.String("pong")}

	resp, err := echoCall().Do(context.Background(), fakeTarget{conn}, "ping", call.Options{})
	require.NoError(t, err)
	require.Equal(t, "pong", resp)

	require.Equal(t, "/store.Streams/Echo", conn.method)
	require.Equal(t, "ping", conn.request.(*wrapperspb.StringValue).GetValue())
}

func TestUnary_Do_TransportErrorPassesThrough(t *testing.T) {
	grpcErr := status.New(codes.Unavailable, "node down").Err()
	conn := &fakeConn{invokeErr: grpcErr}

	_, err := echoCall().Do(context.Background(), fakeTarget{conn}, "ping", call.Options{})
	require.Equal(t, codes.Unavailable, status.Code(err))
	require.NotErrorIs(t, err, call.ErrMalformedResponse)
}

func TestUnary_Do_MalformedResponse(t *testing.T) {
	conn := &fakeConn{reply: &wrapperspb.StringValue{}}

	_, err := echoCall().Do(context.Background(), fakeTarget{conn}, "ping", call.Options{})
	require.ErrorIs(t, err, call.ErrMalformedResponse)
}

func TestUnary_Do_AppliesOptions(t *testing.T) {
	conn := &fakeConn{reply: wrapperspb.String("pong")}

	deadline := time.Now().Add(time.Minute)

	opts := call.Options{
		Deadline:       deadline,
		Metadata:       metadata.Pairs("authorization", "Basic xyz"),
		RequiresLeader: true,
	}

	_, err := echoCall().Do(context.Background(), fakeTarget{conn}, "ping", opts)
	require.NoError(t, err)

	ctxDeadline, ok := conn.lastCtx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, deadline, ctxDeadline, time.Second)

	md, ok := metadata.FromOutgoingContext(conn.lastCtx)
	require.True(t, ok)
	require.Equal(t, []string{"true"}, md.Get("requires-leader"))
	require.Equal(t, []string{"Basic xyz"}, md.Get("authorization"))
}

func TestUnary_Do_ConnectFailed(t *testing.T) {
	target := failingTarget{err: errors.New("dial failed")}

	_, err := echoCall().Do(context.Background(), target, "ping", call.Options{})
	require.ErrorContains(t, err, "dial failed")
}

type failingTarget struct {
	err error
}

func (t failingTarget) Conn(ctx context.Context) (grpc.ClientConnInterface, error) {
	return nil, t.err
}
