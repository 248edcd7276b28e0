// Package jobtest provides a job.Submitter fake that records submitted jobs
// instead of running them, so tests can inspect queued work without timing.
package jobtest

import (
	"context"
	"sync"

	"github.com/phrazzld/taskboard-api/internal/job"
)

// Recorder is a job.Submitter that keeps every submitted job.
type Recorder struct {
	mu   sync.Mutex
	jobs []job.Job

	// Err, when set, is returned by Submit and the job is not recorded.
	Err error
}

// Submit implements job.Submitter.
func (r *Recorder) Submit(_ context.Context, j job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.jobs = append(r.jobs, j)
	return nil
}

// Jobs returns a copy of the recorded jobs in submission order.
func (r *Recorder) Jobs() []job.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]job.Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// ByType returns the recorded jobs of the given type.
func (r *Recorder) ByType(jobType string) []job.Job {
	var out []job.Job
	for _, j := range r.Jobs() {
		if j.Type() == jobType {
			out = append(out, j)
		}
	}
	return out
}

// Reset discards all recorded jobs.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = nil
}
