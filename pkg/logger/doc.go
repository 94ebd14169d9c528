// Package logger builds *slog.Logger values with functional options and
// provides attribute helpers shared by the link resolver and its tools.
//
// New picks a text or JSON handler and wraps it in LogHandlerDecorator, which
// runs ContextExtractor callbacks on every record, for example to attach the
// request id of the resolution being logged.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment("production", "linkme"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.DebugContext(ctx, "deeplink resolve failed",
//		logger.CID(token),
//		logger.Status(resp.Status),
//	)
//
// Nop returns a discarding logger, used when nothing was injected.
//
// # Error Handling
//
// Error, Errors and the identifier helpers return an empty Attr for zero
// values, so callers can pass them without a nil check:
//
//	log.Info("claim finished", logger.Error(err))
package logger
