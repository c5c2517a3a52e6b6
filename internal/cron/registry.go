package cron

import "context"

// Job is one unit of scheduled work the worker runs each cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs a worker cycles through, in registration order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry seeded with the given jobs. Nil jobs are
// dropped.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		registry.jobs = append(registry.jobs, job)
	}
	return registry
}

// Register appends a job.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the job list so callers cannot mutate the registry.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
