package filters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/logging"
)

// Timing returns an operation filter that measures the invocation and reports
// it in a Server-Timing response header.
func Timing(logger *slog.Logger) extensibility.OperationFilter {
	return extensibility.OperationFilterFunc(func(ctx context.Context, c *extensibility.OperationExecutingContext, next extensibility.OperationNext) error {
		start := time.Now()
		_, err := next(ctx)
		elapsed := time.Since(start)

		logging.FromContext(ctx, logger).Debug("operation completed",
			"operation", c.Operation.String(),
			"duration", elapsed,
			"failed", err != nil)

		if err == nil && c.HTTP != nil {
			c.HTTP.ResponseHeader.Add("Server-Timing",
				fmt.Sprintf("op;desc=%q;dur=%.3f", c.Operation.Name, float64(elapsed.Microseconds())/1000))
		}
		return err
	})
}
