package discovery

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dialer is a function that establishes a transport connection with a
// cluster node.
type Dialer func(ctx context.Context, addr string) (*grpc.ClientConn, error)

// DialInsecure connects to a node without transport security. Deployments
// with TLS supply their own dialer carrying the right credentials.
func DialInsecure(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()

	conn, err := grpc.DialContext(
		ctx,
		addr,
		grpc.WithTransportCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial failed: %w", err)
	}

	return conn, nil
}
