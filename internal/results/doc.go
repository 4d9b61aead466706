// Package results persists one summary record per worker.
//
// Each worker writes exactly one file, client_<id>.log, in the result
// directory:
//
//	get_count: 9901
//	set_count: 99
//
// Files are overwritten on every run. Because every worker owns its own file
// there is no write contention between workers.
//
// ReadDir and Summarize read a directory of such files back for reporting.
package results
