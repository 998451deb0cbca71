// Package jobs implements the Background-Job Registry from spec.md §4.5: a
// process-wide map of named long-running tasks with progress, reaped when
// idle. Grounded on the teacher's orchestrator/sweeper shape
// (internal/pipeline/worker/orchestrator.go, internal/domain/session/manager/sweeper.go)
// simplified to the single flat registry the spec describes.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/audiocontrol/acrd/internal/metrics"
	"github.com/audiocontrol/acrd/internal/model"
)

// Registry tracks BackgroundJobs by id.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*model.BackgroundJob

	idleThreshold time.Duration
	stopReaper    chan struct{}
	reaperOnce    sync.Once
}

// New constructs a Registry that reaps unfinished jobs whose last update is
// older than idleThreshold. Call Close to stop the reaper goroutine.
func New(idleThreshold time.Duration) *Registry {
	r := &Registry{
		jobs:          make(map[string]*model.BackgroundJob),
		idleThreshold: idleThreshold,
		stopReaper:    make(chan struct{}),
	}
	if idleThreshold > 0 {
		go r.reapLoop()
	}
	return r
}

// Start registers a new job under name and returns its id.
func (r *Registry) Start(name string) string {
	id := uuid.NewString()
	now := time.Now()

	r.mu.Lock()
	r.jobs[id] = &model.BackgroundJob{
		ID:         id,
		Name:       name,
		StartTime:  now,
		LastUpdate: now,
	}
	metrics.BackgroundJobsActive.Set(float64(r.activeCountLocked()))
	r.mu.Unlock()

	return id
}

// Update records progress for an in-flight job. Any nil argument leaves the
// corresponding field untouched.
func (r *Registry) Update(id string, progress *string, total, completed *int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return
	}
	if progress != nil {
		j.Progress = progress
	}
	if total != nil {
		j.TotalItems = total
	}
	if completed != nil {
		j.CompletedItems = completed
	}
	j.LastUpdate = time.Now()
}

// Finish marks a job complete; List/Get keep reporting it afterwards (the
// reaper removes only unfinished jobs), so a caller polling right after
// completion still sees the final state.
func (r *Registry) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.Finished = true
		j.LastUpdate = time.Now()
	}
	metrics.BackgroundJobsActive.Set(float64(r.activeCountLocked()))
}

// Get returns a snapshot of one job, or false if it doesn't exist (or was
// already reaped).
func (r *Registry) Get(id string) (model.BackgroundJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return model.BackgroundJob{}, false
	}
	return *j, true
}

// List returns a snapshot of every tracked job.
func (r *Registry) List() []model.BackgroundJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.BackgroundJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	return out
}

func (r *Registry) activeCountLocked() int {
	n := 0
	for _, j := range r.jobs {
		if !j.Finished {
			n++
		}
	}
	return n
}

func (r *Registry) reapLoop() {
	ticker := time.NewTicker(r.idleThreshold / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.reapOnce()
		case <-r.stopReaper:
			return
		}
	}
}

func (r *Registry) reapOnce() {
	cutoff := time.Now().Add(-r.idleThreshold)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, j := range r.jobs {
		if !j.Finished && j.LastUpdate.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}

// Close stops the idle-reaper goroutine.
func (r *Registry) Close() {
	r.reaperOnce.Do(func() { close(r.stopReaper) })
}
