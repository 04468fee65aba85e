package alarm

import (
	"context"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/observability/metrics"
)

// OriginMetadataKey carries the user@host of the caller.
const OriginMetadataKey = "alarm-manager-origin"

// UnaryInterceptor records metrics for every call and logs it with the
// caller's origin.
func UnaryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	started := time.Now()
	method := path.Base(info.FullMethod)

	ctx = logger.WithKV(ctx, "method", method)
	if origin := Origin(ctx); origin != "" {
		ctx = logger.WithKV(ctx, "origin", origin)
	}

	resp, err := handler(ctx, req)

	code := status.Code(err)
	metrics.ObserveRequest("grpc", method, code.String(), time.Since(started))

	if err != nil {
		logger.WarnKV(ctx, "gRPC call failed", "code", code.String(), "error", err)
	} else {
		logger.DebugKV(ctx, "gRPC call served", "duration", time.Since(started))
	}

	return resp, err
}

// Origin returns the caller origin sent with an incoming request.
func Origin(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if values := md.Get(OriginMetadataKey); len(values) > 0 {
		return values[0]
	}

	return ""
}
