// Package logging configures structured logging for soapd on top of log/slog.
//
//	logger := logging.New(logging.Config{Level: logging.LevelDebug, Format: logging.FormatJSON})
//	logger.Info("operation dispatched", "operation", "Calculator.Add")
//
// Components accept a *slog.Logger and fall back to Nop when none is given.
// The endpoint stores a request-scoped logger in the context so filters can
// pick it up with FromContext.
package logging
