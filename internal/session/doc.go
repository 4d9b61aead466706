// Package session keeps one framed connection alive for a single worker.
//
// A Session owns at most one live transport. When a connection attempt fails
// it sleeps for a fixed backoff and tries again, forever. When a send or
// receive fails on a live connection it discards the transport immediately;
// the next Execute waits one backoff and reconnects before issuing anything.
//
// # States
//
//	Disconnected --dial--> Connecting --ok--> Connected
//	Connecting --error--> Disconnected (after Backoff)
//	Connected --send/recv error--> Failed --> Disconnected
//
// Commands are only written while Connected.
//
// # Basic Usage
//
//	s := session.New(session.Config{ID: 3, Addr: "127.0.0.1:12345", Backoff: time.Second})
//	defer s.Close()
//
//	resp, err := s.Execute(ctx, command.Get("key1"))
//	if err != nil {
//	    // the session is Disconnected again; call Execute to retry
//	}
//
// The session never resubmits a failed command by itself. The caller decides
// whether to retry it.
package session
