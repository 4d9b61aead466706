// Package harness runs many load-generating workers against one server.
//
// Each worker gets a distinct ID in [0, Workers), its own reconnecting
// session and its own random stream; the only shared state is the read-only
// key space and the aggregate metrics. Run blocks until every worker has
// finished. A worker that cannot reach the server keeps retrying, so a
// permanently unavailable server keeps Run blocked until ctx is cancelled.
//
// # Basic Usage
//
//	dir, _ := results.NewDir("./logs")
//
//	config := harness.DefaultConfig()
//	config.Workers = 10
//	config.Iterations = 10000
//	h := harness.New(config, dir)
//
//	rs, err := h.Run(ctx)
//	fmt.Print(results.Report(rs))
package harness
