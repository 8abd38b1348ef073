package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/sensitive-scan/internal/scan"
)

// ErrJobNotFound is returned for unknown scan job ids
var ErrJobNotFound = errors.New("scan job not found")

// JobState is the lifecycle state of a scan job
type JobState string

const (
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobCancelled JobState = "cancelled"
	JobFailed    JobState = "failed"
)

// maxFinishedJobs bounds how many finished jobs are kept for retrieval
const maxFinishedJobs = 100

// Job is a snapshot of an asynchronous scan
type Job struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	State      JobState     `json:"state"`
	Current    int          `json:"current"`
	Total      int          `json:"total"`
	Result     *scan.Result `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
}

type jobEntry struct {
	mu   sync.Mutex
	job  Job
	flag *scan.Flag
}

func (e *jobEntry) snapshot() Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job
}

func (e *jobEntry) progress(current, total int) {
	e.mu.Lock()
	e.job.Current = current
	e.job.Total = total
	e.mu.Unlock()
}

// finish records the final state. A cancel that arrives after the last page
// was scanned leaves the job completed.
func (e *jobEntry) finish(result *scan.Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now().UTC()
	e.job.FinishedAt = &now
	switch {
	case err != nil:
		e.job.State = JobFailed
		e.job.Error = err.Error()
	case e.flag.IsCancelled() && result != nil && result.ScannedPages < result.TotalPages:
		e.job.State = JobCancelled
		e.job.Result = result
	default:
		e.job.State = JobCompleted
		e.job.Result = result
	}
	if result != nil {
		e.job.Total = result.TotalPages
		e.job.Current = result.ScannedPages
	}
}

// Jobs tracks running and recently finished scan jobs
type Jobs struct {
	mu      sync.RWMutex
	entries map[string]*jobEntry
	order   []string
	wg      sync.WaitGroup
}

// NewJobs creates an empty job registry
func NewJobs() *Jobs {
	return &Jobs{entries: make(map[string]*jobEntry)}
}

func (j *Jobs) create(name string) *jobEntry {
	entry := &jobEntry{
		job: Job{
			ID:        uuid.New().String(),
			Name:      name,
			State:     JobRunning,
			StartedAt: time.Now().UTC(),
		},
		flag: scan.NewFlag(),
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[entry.job.ID] = entry
	j.order = append(j.order, entry.job.ID)
	j.evictLocked()
	return entry
}

// evictLocked drops the oldest finished jobs above maxFinishedJobs
func (j *Jobs) evictLocked() {
	finished := 0
	for _, id := range j.order {
		if j.entries[id].snapshot().State != JobRunning {
			finished++
		}
	}

	kept := j.order[:0]
	for _, id := range j.order {
		if finished > maxFinishedJobs && j.entries[id].snapshot().State != JobRunning {
			delete(j.entries, id)
			finished--
			continue
		}
		kept = append(kept, id)
	}
	j.order = kept
}

// Get returns a snapshot of the job with id
func (j *Jobs) Get(id string) (Job, error) {
	j.mu.RLock()
	entry, ok := j.entries[id]
	j.mu.RUnlock()
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return entry.snapshot(), nil
}

// List returns snapshots of all known jobs, oldest first
func (j *Jobs) List() []Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	jobs := make([]Job, 0, len(j.order))
	for _, id := range j.order {
		jobs = append(jobs, j.entries[id].snapshot())
	}
	return jobs
}

// Cancel raises the cancellation flag of a running job. The job stops at the
// next page boundary; cancelling a finished job has no effect.
func (j *Jobs) Cancel(id string) (Job, error) {
	j.mu.RLock()
	entry, ok := j.entries[id]
	j.mu.RUnlock()
	if !ok {
		return Job{}, ErrJobNotFound
	}
	entry.flag.Cancel()
	return entry.snapshot(), nil
}

// Wait blocks until every started job has finished
func (j *Jobs) Wait() {
	j.wg.Wait()
}
