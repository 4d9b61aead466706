// Package fragment probes how the server reassembles a command that arrives
// in pieces.
//
// Each probe opens its own short-lived connection, writes the fragments of
// one command as separate raw writes with a fixed delay between them, reads a
// single response and closes. All probes of a run execute concurrently.
//
// # Basic Usage
//
//	t := fragment.New(fragment.DefaultConfig())
//	for _, r := range t.Run(ctx, fragment.DefaultPlans()) {
//	    fmt.Println(r.Command, r.Response, r.Err)
//	}
//
// The default plans split "get key1", "set key2=value123",
// "set key3=value456" and "get key4" at different byte offsets.
package fragment
