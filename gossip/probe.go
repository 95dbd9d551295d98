package gossip

import (
	"context"
	"errors"
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/evermoredb/evermore-go/internal/grpcutil"
)

var (
	// ErrConnection indicates that the candidate could not be reached.
	ErrConnection = errors.New("gossip: connection failed")

	// ErrTimeout indicates that the candidate did not answer the membership
	// query within the configured gossip timeout.
	ErrTimeout = errors.New("gossip: read timed out")
)

// Probe issues one timed membership query against one candidate endpoint.
// A probe failure is local to the candidate: the caller is expected to move
// on to the next one rather than abort discovery.
type Probe struct {
	dialer  Dialer
	timeout time.Duration
	logger  kitlog.Logger
}

func NewProbe(dialer Dialer, timeout time.Duration, logger kitlog.Logger) *Probe {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	return &Probe{
		dialer:  dialer,
		timeout: timeout,
		logger:  logger,
	}
}

// Read queries the candidate for its view of the cluster. The whole exchange,
// including dialing, is bounded by the gossip timeout. Failures are reported
// as either ErrTimeout or ErrConnection.
func (p *Probe) Read(ctx context.Context, candidate Endpoint) ([]MemberInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := p.dialer(ctx, candidate)
	if err != nil {
		return nil, classifyError(err)
	}

	defer func() {
		if err := client.Close(); err != nil {
			level.Warn(p.logger).Log("msg", "failed to close gossip client", "endpoint", candidate, "err", err)
		}
	}()

	members, err := client.Read(ctx)
	if err != nil {
		return nil, classifyError(err)
	}

	return members, nil
}

func classifyError(err error) error {
	switch {
	case errors.Is(err, context.Canceled) || grpcutil.IsCanceled(err):
		// The caller gave up, which says nothing about the candidate.
		return err
	case errors.Is(err, context.DeadlineExceeded) || grpcutil.IsTimeout(err):
		return fmt.Errorf("%w: %s", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %s", ErrConnection, err)
	}
}
