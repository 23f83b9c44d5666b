// Package api implements the gateway's read-only status HTTP server.
//
// Routes:
//   - GET /api/v1/health: 200 when every registered check passes, 503 otherwise
//   - GET /api/v1/stats: bridge counters as JSON
//   - GET /metrics: Prometheus exposition
//
// The server is optional (api.enabled) and never touches the radio or the
// broker; it only reads state the bridge loop already exposes.
//
//	srv, err := api.New(api.Deps{Config: cfg.API, Logger: log, Stats: bridge})
//	g.Go(func() error { return srv.Run(ctx) })
package api
