package notify

import (
	"context"

	"github.com/oshokin/alarm-manager/internal/logger"
)

// Log writes notices to the application log. It never fails.
type Log struct{}

// Raise logs the notice at INFO level.
func (Log) Raise(ctx context.Context, title, body string) error {
	logger.InfoKV(ctx, "Alarm notice", "title", title, "body", body)

	return nil
}
