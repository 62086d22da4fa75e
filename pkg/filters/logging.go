package filters

import (
	"context"
	"log/slog"
	"time"

	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/logging"
)

// Logging returns a message filter that logs each exchange on the way in and
// on the way out. The request-scoped logger from the context is preferred
// over logger.
func Logging(logger *slog.Logger) extensibility.MessageFilter {
	return extensibility.MessageFilterFunc(func(ctx context.Context, c *extensibility.MessageExecutingContext, next extensibility.MessageNext) error {
		log := logging.FromContext(ctx, logger)
		msg := c.Message()
		start := time.Now()

		log.Info("soap request",
			"action", msg.Headers.Action,
			"body", msg.BodyName(),
			"version", msg.Version.String(),
			"message_id", msg.Headers.MessageID)

		resp, err := next(ctx)
		duration := time.Since(start)
		if err != nil {
			log.Warn("soap request failed", "duration", duration, "error", err)
			return err
		}

		switch {
		case resp == nil:
			log.Info("soap response", "duration", duration, "body", false)
		case resp.OneWay:
			log.Info("soap response", "duration", duration, "one_way", true)
		case resp.Message != nil:
			log.Info("soap response",
				"duration", duration,
				"action", resp.Message.Headers.Action,
				"fault", resp.Message.IsFault())
		default:
			log.Info("soap response", "duration", duration, "body", false)
		}
		return nil
	})
}
