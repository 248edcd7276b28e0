package notify

import "github.com/phrazzld/taskboard-api/internal/job"

// Registrar accepts job factories. *job.Runner satisfies it.
type Registrar interface {
	Register(jobType string, factory job.Factory)
}

// RegisterJobs registers the fan-out and dispatch factories so persisted
// jobs can be rebuilt after a restart.
func RegisterJobs(r Registrar, fanOut *FanOutJobFactory, dispatch *DispatchJobFactory) {
	r.Register(JobTypeFanOut, fanOut.FromRecord)
	r.Register(JobTypeDispatch, dispatch.FromRecord)
}
