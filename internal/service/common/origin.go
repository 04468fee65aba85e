//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/oshokin/alarm-manager/internal/alerting/notify"
	api "github.com/oshokin/alarm-manager/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-manager/internal/logger"
)

// withOrigin attaches the origin of the calling process to ctx.
func (c *Client) withOrigin(ctx context.Context) context.Context {
	if c.origin == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, api.OriginMetadataKey, c.origin)
}

// detectOrigin returns user@host of the current process, or an empty string
// when it cannot be determined.
func detectOrigin(ctx context.Context) string {
	origin, err := notify.DetectOrigin()
	if err != nil {
		logger.DebugKV(ctx, "Failed to detect caller origin", "error", err)

		return ""
	}

	return origin.String()
}
