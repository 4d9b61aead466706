// Package metrics aggregates raw operation counters across all workers.
//
// Counters are plain totals: successful gets and sets, connection attempts
// that failed, I/O failures on live connections, reconnects, and completed
// workers. There are no rates or latency percentiles.
//
// # Basic Usage
//
//	m := metrics.New()
//	m.RecordGet()
//	m.RecordConnect(false)
//
//	snap := m.Snapshot()
//	fmt.Printf("ops: %d (get %d / set %d)\n", snap.TotalOps, snap.Gets, snap.Sets)
//
// # Thread Safety
//
// All operations use atomic counters and are safe for concurrent access.
package metrics
