// Package pool provides the two interchangeable thread-pool variants the
// server dispatches connection handling onto: a hand-rolled queue pool and
// a work-stealing pool backed by github.com/alitto/pond. Jobs are plain
// closures; ordering between jobs is never guaranteed.
package pool

// Job is a unit of work dispatched to a pool. It must not let a panic
// escape past the pool: both variants recover a panicking job so one bad
// job never takes down a worker, let alone the server.
type Job func()

// ThreadPool is the capability every pool variant offers: fire-and-forget
// dispatch plus an orderly shutdown that waits for in-flight jobs.
type ThreadPool interface {
	// Spawn schedules job to run on some worker. It never blocks waiting
	// for the job to finish.
	Spawn(job Job)

	// Shutdown stops accepting new jobs and waits for every worker to
	// finish its current job before returning.
	Shutdown()
}
