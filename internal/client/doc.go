// Package client provides a single load-generating worker.
//
// A Client owns one reconnecting session and issues a fixed number of
// randomized get/set commands over it, strictly one at a time. When the
// connection fails the same command is retried after the session reconnects,
// and only commands whose response was received are counted. On completion
// the worker writes one WorkerResult to its sink.
//
// # Basic Usage
//
//	dir, _ := results.NewDir("./logs")
//
//	config := client.DefaultConfig()
//	config.ID = 3
//	config.Iterations = 10
//	c := client.New(config, dir)
//
//	res, err := c.Run(ctx)
//	fmt.Printf("get: %d, set: %d\n", res.GetCount, res.SetCount)
//
// # Configuration
//
// The Config struct allows tuning:
//   - Iterations: number of commands to issue
//   - Keys: key space commands are drawn from
//   - Backoff: sleep between failed connection attempts
//   - Rate: max commands per second (0 = unlimited)
//   - Seed: random seed (0 = time based)
package client
