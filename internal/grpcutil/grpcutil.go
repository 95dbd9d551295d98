package grpcutil

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type grpcError interface {
	GRPCStatus() *status.Status
}

// ErrorCode extracts a gRPC error code from an error, looking through
// wrapping. If the error is not a gRPC error, it returns codes.Unknown.
func ErrorCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	var st grpcError
	if errors.As(err, &st) {
		return st.GRPCStatus().Code()
	}

	return codes.Unknown
}

func IsCanceled(err error) bool {
	return ErrorCode(err) == codes.Canceled
}

// IsTimeout returns true if the call failed because its deadline expired
// before the server produced a response.
func IsTimeout(err error) bool {
	return ErrorCode(err) == codes.DeadlineExceeded
}

// IsUnavailable returns true if the error indicates a connectivity problem
// rather than a server-side rejection. Such errors are usually worth retrying
// against a different node.
func IsUnavailable(err error) bool {
	return ErrorCode(err) == codes.Unavailable
}
