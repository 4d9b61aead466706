// Package transport wraps a single TCP connection to the key-value server.
//
// A Transport sends newline-framed commands, receives responses with a single
// bounded read, and can write raw, unframed bytes for fragmentation probes.
//
// # Basic Usage
//
//	t, err := transport.Dial(ctx, "127.0.0.1:12345")
//	if err != nil {
//	    var ce *transport.ConnectError
//	    errors.As(err, &ce) // refused, unreachable, ...
//	}
//	defer t.Close()
//
//	_ = t.SendCommand(command.Get("key1"))
//	resp, err := t.RecvResponse()
//
// # Receive Semantics
//
// RecvResponse performs exactly one read of at most RecvBufferSize bytes and
// returns whatever arrived. A response longer than the buffer, or one split
// across several TCP segments, comes back truncated. Callers that probe
// framing behavior rely on this.
package transport
