// Package subscription implements the client side of persistent
// subscriptions: a long-lived duplex stream where the server pushes events
// while the client pushes acknowledgement control messages over the same
// call.
package subscription

import (
	"context"
	"errors"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
)

// ErrSessionClosed indicates an operation on a terminated session, or is
// returned by Recv once a locally closed session has drained its buffer.
var ErrSessionClosed = errors.New("subscription: session closed")

// NackAction tells the server what to do with a negatively acknowledged
// event.
type NackAction int8

const (
	NackPark NackAction = iota
	NackRetry
	NackSkip
	NackStop
)

func (a NackAction) String() string {
	switch a {
	case NackPark:
		return "park"
	case NackRetry:
		return "retry"
	case NackSkip:
		return "skip"
	default:
		return "stop"
	}
}

// Stream is the duplex call a session runs on. *call.DuplexStream implements
// it.
type Stream[E any] interface {
	Send(msg proto.Message) error
	Recv() (E, error)
	CloseSend() error
	Cancel()
}

// Config carries the session settings and the control message builders. The
// wire shape of ack/nack messages belongs to the protocol codec, so the
// session only knows how to have them built.
type Config struct {
	// AckBuilder encodes an acknowledgement for the given event IDs.
	AckBuilder func(ids []uuid.UUID) proto.Message

	// NackBuilder encodes a negative acknowledgement for the given event IDs.
	NackBuilder func(action NackAction, ids []uuid.UUID) proto.Message

	// BufferSize is the capacity of the inbound event buffer.
	BufferSize int

	Logger kitlog.Logger
}

func (c Config) withDefaults() Config {
	if c.BufferSize == 0 {
		c.BufferSize = 32
	}

	if c.Logger == nil {
		c.Logger = kitlog.NewNopLogger()
	}

	return c
}

// Session is one open duplex subscription. Two activities run for its
// lifetime: a writer draining the outbound queue onto the wire in FIFO
// order, and a reader publishing inbound events to the consumer. Both are
// torn down by Close, by the caller's context, or by the stream ending on
// the server side.
type Session[E any] struct {
	// ID identifies the session in logs.
	ID uuid.UUID

	stream Stream[E]
	conf   Config

	outbound chan proto.Message
	inbound  chan E

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	mut sync.Mutex
	err error
}

// New starts a session on an already-opened duplex stream. The initial
// outbound messages are enqueued before anything else, so they reach the
// wire ahead of any acknowledgement.
func New[E any](ctx context.Context, stream Stream[E], conf Config, initial ...proto.Message) (*Session[E], error) {
	conf = conf.withDefaults()

	if conf.AckBuilder == nil || conf.NackBuilder == nil {
		return nil, errors.New("subscription: ack and nack builders are required")
	}

	s := &Session[E]{
		ID:       uuid.New(),
		stream:   stream,
		conf:     conf,
		outbound: make(chan proto.Message, len(initial)+conf.BufferSize),
		inbound:  make(chan E, conf.BufferSize),
		stop:     make(chan struct{}),
	}

	for _, msg := range initial {
		s.outbound <- msg
	}

	s.wg.Add(2)
	go s.writeLoop()
	go s.readLoop()

	// A caller abandoning the session through its context must not leak the
	// writer and reader.
	go func() {
		select {
		case <-ctx.Done():
			s.close(ctx.Err())
		case <-s.stop:
		}
	}()

	return s, nil
}

// Recv returns the next event in the order the server sent them. Once the
// session terminates, it drains the already-buffered events and then keeps
// returning the terminal error: io.EOF for a clean server-side completion,
// ErrSessionClosed for a local close, or the failure that tore the stream
// down.
func (s *Session[E]) Recv() (E, error) {
	event, ok := <-s.inbound
	if !ok {
		var zero E
		return zero, s.Err()
	}

	return event, nil
}

// Ack acknowledges the events with the given IDs. The control message is
// enqueued on the same outbound queue as the initial request and is
// interleaved with ongoing event delivery.
func (s *Session[E]) Ack(ids ...uuid.UUID) error {
	return s.enqueue(s.conf.AckBuilder(ids))
}

// Nack rejects the events with the given IDs, telling the server what to do
// with them.
func (s *Session[E]) Nack(action NackAction, ids ...uuid.UUID) error {
	return s.enqueue(s.conf.NackBuilder(action, ids))
}

// Err returns the terminal error after the session has terminated, and nil
// while it is open.
func (s *Session[E]) Err() error {
	s.mut.Lock()
	defer s.mut.Unlock()

	return s.err
}

// Close terminates the session: the outbound queue stops accepting items,
// the reader is cancelled, and both activities are joined. It is idempotent.
func (s *Session[E]) Close() error {
	s.close(ErrSessionClosed)
	s.wg.Wait()

	return nil
}

func (s *Session[E]) enqueue(msg proto.Message) error {
	// Fast path, so that an enqueue never wins the race against an already
	// signalled termination.
	select {
	case <-s.stop:
		return ErrSessionClosed
	default:
	}

	select {
	case s.outbound <- msg:
		return nil
	case <-s.stop:
		return ErrSessionClosed
	}
}

func (s *Session[E]) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case msg := <-s.outbound:
			if err := s.stream.Send(msg); err != nil {
				level.Debug(s.conf.Logger).Log("msg", "subscription send failed", "session", s.ID, "err", err)
				s.close(err)

				return
			}
		case <-s.stop:
			_ = s.stream.CloseSend()
			return
		}
	}
}

func (s *Session[E]) readLoop() {
	defer s.wg.Done()
	defer close(s.inbound)

	for {
		event, err := s.stream.Recv()
		if err != nil {
			level.Debug(s.conf.Logger).Log("msg", "subscription stream ended", "session", s.ID, "err", err)
			s.close(err)

			return
		}

		select {
		case s.inbound <- event:
		case <-s.stop:
			return
		}
	}
}

// close records the first termination cause and unblocks both loops. The
// stream is cancelled so that a reader parked in Recv does not hang forever.
func (s *Session[E]) close(cause error) {
	s.once.Do(func() {
		s.mut.Lock()
		s.err = cause
		s.mut.Unlock()

		close(s.stop)
		s.stream.Cancel()
	})
}
