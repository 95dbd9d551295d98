package discovery_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/evermoredb/evermore-go/discovery"
	"github.com/evermoredb/evermore-go/gossip"
)

func TestDefaultRetryOn(t *testing.T) {
	require.True(t, discovery.DefaultRetryOn(gossip.ErrConnection))
	require.True(t, discovery.DefaultRetryOn(gossip.ErrTimeout))
	require.True(t, discovery.DefaultRetryOn(discovery.ErrNoMember))
	require.True(t, discovery.DefaultRetryOn(fmt.Errorf("%w: connection refused", discovery.ErrNoMember)))
	require.True(t, discovery.DefaultRetryOn(status.New(codes.Unavailable, "node down").Err()))
	require.True(t, discovery.DefaultRetryOn(status.New(codes.DeadlineExceeded, "too slow").Err()))

	require.False(t, discovery.DefaultRetryOn(context.Canceled))
	require.False(t, discovery.DefaultRetryOn(status.New(codes.Canceled, "").Err()))
	require.False(t, discovery.DefaultRetryOn(errors.New("required field missing")))
}

func TestConfig_WithDefaults(t *testing.T) {
	conf := discovery.Config{MaxAttempts: -5}.WithDefaults()
	def := discovery.DefaultConfig()

	require.Equal(t, def.MaxAttempts, conf.MaxAttempts)
	require.Equal(t, def.GossipTimeout, conf.GossipTimeout)
	require.Equal(t, def.RetryInterval, conf.RetryInterval)
	require.NotNil(t, conf.Logger)
	require.NotNil(t, conf.RetryOn)
	require.NotNil(t, conf.Dialer)
}

func TestConfig_Validate(t *testing.T) {
	require.Error(t, discovery.Config{}.Validate())

	conf := discovery.DefaultConfig()
	conf.Cluster = discovery.Standalone(gossip.Endpoint{Host: "localhost", Port: 2113})
	conf.GossipDialer = newFakeGossip().dial
	conf.Capabilities = staticCapabilities{}
	require.NoError(t, conf.Validate())

	conf.MaxAttempts = -1
	require.Error(t, conf.Validate())
}
