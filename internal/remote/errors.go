package remote

import (
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

// The remote surface speaks gRPC status codes: ResourceExhausted for
// rate limiting, FailedPrecondition for a batch that is no longer
// eligible, NotFound for already-gone targets, PermissionDenied for
// capability loss. Everything else is treated as fatal by callers.

func IsThrottled(err error) bool {
	return status.Code(err) == codes.ResourceExhausted
}

func IsStaleBatch(err error) bool {
	return status.Code(err) == codes.FailedPrecondition
}

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func IsPermissionDenied(err error) bool {
	return status.Code(err) == codes.PermissionDenied
}

// RetryAfter extracts the server's retry-after hint from a throttling
// error. The second return value is false when the error is not a
// throttle or carries no RetryInfo detail.
func RetryAfter(err error) (time.Duration, bool) {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.ResourceExhausted {
		return 0, false
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.RetryInfo); ok {
			return info.GetRetryDelay().AsDuration(), true
		}
	}
	return 0, false
}

// Throttled builds a rate-limit error carrying the given hint, the same
// shape a real gateway returns. Used by client implementations and fakes.
func Throttled(hint time.Duration) error {
	st := status.New(codes.ResourceExhausted, "rate limited")
	if hint > 0 {
		detailed, err := st.WithDetails(&errdetails.RetryInfo{RetryDelay: durationpb.New(hint)})
		if err == nil {
			st = detailed
		}
	}
	return st.Err()
}

func StaleBatch() error {
	return status.Error(codes.FailedPrecondition, "batch no longer eligible")
}

func NotFound(id string) error {
	return status.Errorf(codes.NotFound, "target %s not found", id)
}

func PermissionDenied() error {
	return status.Error(codes.PermissionDenied, "missing permission")
}
