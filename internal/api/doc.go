// Package api provides the optional HTTP monitor for a running load harness.
//
// The monitor is read-only. It never starts or stops workers; it reports
// what the harness is doing while it runs.
//
// # Endpoints
//
//	GET /api/status   aggregate status: worker states and metrics snapshot
//	GET /api/workers  per-worker id, connection state and running flag
//	GET /api/metrics  metrics snapshot
//	GET /api/presets  available configuration presets
//	    /ws           WebSocket stream of events and periodic status
//
// # Basic Usage
//
//	bus := events.NewBus()
//	h := harness.New(cfg, sink)
//	h.SetEventBus(bus)
//
//	srv := api.NewServer(":8080", h, bus)
//	go srv.Start(ctx)
//
// WebSocket messages are JSON objects with a "type" of "status" or "event".
package api
