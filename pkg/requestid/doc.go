// Package requestid propagates correlation ids between incoming requests,
// outbound resolver API calls and log records.
//
// Middleware reuses a valid X-Request-ID from the client or generates a UUID,
// echoes it in the response and stores it in the request context. Ensure
// returns the id already carried by a context or attaches a fresh one; the
// resolver calls it before each API request so the backend, the host
// application and the logs agree on one id.
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
