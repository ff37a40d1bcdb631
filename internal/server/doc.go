// Package server owns the HTTP listener of the status service.
//
// A Server builds a gin engine carrying the health routes. Unknown paths
// and methods get FHIR OperationOutcome replies. The engine is wrapped by
// the caller's net/http middleware chain and served by one http.Server
// driven by a small state machine (see State).
//
//	srv := server.New(cfg.Spec.Listener, handler,
//	    server.WithLogger(logger),
//	    server.WithMetricsHandler("/metrics", metrics.Handler()),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop(context.Background())
package server
