package analysis

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a registered analysis job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCanceled  JobStatus = "canceled"
)

// Job tracks one analysis run through the registry. Snapshot copies are
// returned to callers; the registry owns the live record.
type Job struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	Progress int    `json:"progress"`
	Total    int    `json:"total"`
	Message  string `json:"message"`

	Result *Result `json:"result,omitempty"`

	cancel context.CancelFunc
}

// ErrJobNotFound is returned for unknown or evicted job ids.
var ErrJobNotFound = errors.New("job not found")

// Registry holds analysis jobs by id. Safe for concurrent use; each job's
// pipeline runs in its own goroutine with an isolated Analyzer.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Start registers a job and launches the analyzer in the background. The
// analyzer's progress callback is chained with the registry update, so
// external callers still receive their own updates.
func (r *Registry) Start(a *Analyzer, clips []ClipRange) string {
	ctx, cancel := context.WithCancel(context.Background())

	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobQueued,
		CreatedAt: time.Now(),
		cancel:    cancel,
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	outer := a.progress
	a.progress = func(current, total int, message string) {
		r.updateProgress(job.ID, current, total, message)
		if outer != nil {
			outer(current, total, message)
		}
	}

	go func() {
		r.setStatus(job.ID, JobRunning)
		log.Printf("[Jobs] started job %s", job.ID)

		result := a.Analyze(ctx, clips)
		r.complete(job.ID, result)
	}()

	return job.ID
}

// Get returns a snapshot of the job, or ErrJobNotFound.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// Cancel requests cooperative cancellation of a running job.
func (r *Registry) Cancel(id string) error {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}
	job.cancel()
	return nil
}

// Evict removes a finished job from the registry. Running jobs are
// canceled first.
func (r *Registry) Evict(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.cancel()
	delete(r.jobs, id)
	return nil
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func (r *Registry) setStatus(id string, status JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = status
	}
}

func (r *Registry) updateProgress(id string, current, total int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Progress = current
		job.Total = total
		job.Message = message
	}
}

func (r *Registry) complete(id string, result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.Result = result
	switch {
	case result.Success:
		job.Status = JobCompleted
	case result.ErrorType == ErrorTypeCanceled:
		job.Status = JobCanceled
	default:
		job.Status = JobFailed
	}
	log.Printf("[Jobs] job %s finished: %s", id, job.Status)
}
