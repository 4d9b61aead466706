// Package worker provides a goroutine pool used as the harness join barrier.
//
// The Pool runs submitted jobs on a fixed number of goroutines. Sizing the
// pool to the number of jobs gives every job its own goroutine, which is how
// the load harness and the fragmentation tester run their units
// concurrently. Wait closes the queue and blocks until every submitted job
// has returned.
//
// # Basic Usage
//
//	pool := worker.NewPool(len(jobs))
//	pool.Start(ctx)
//	for _, job := range jobs {
//	    pool.Submit(job)
//	}
//	pool.Wait()
//
// # Shutdown
//
// Stop cancels the context handed to jobs, skips jobs that have not started,
// and waits for running jobs to return.
package worker
