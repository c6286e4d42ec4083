// Package jobmgr provides asynchronous job execution with status callbacks and
// in-memory tracking of running jobs.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(msg string) {
//	    log.Println("JOB:", msg)
//	})
//
//	err := jm.StartAsync("purge:1234", func(ctx context.Context) error {
//	    return doWork(ctx)
//	})
//
//	// on shutdown
//	_ = jm.Wait(shutdownCtx)
//
// Jobs cannot be stopped once started: they run in separate goroutines to
// completion and are removed automatically when they return.
package jobmgr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Job describes a running unit of work.
type Job struct {
	Name      string
	StartedAt time.Time
}

// StatusReporter receives lifecycle events for jobs.
// Example messages:
//
//	running:purge:1234
//	error:purge:1234:could not load messages
//	done:purge:1234
type StatusReporter func(string)

// Manager orchestrates starting and tracking jobs.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	jobs     map[string]*Job
	Reporter StatusReporter
}

// NewManager creates a new Manager.
// The reporter callback may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

// StartAsync runs a job in a separate goroutine and returns immediately.
// If a job with the same name is already running, an error is returned.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' is already running", name)
	}
	m.jobs[name] = &Job{Name: name, StartedAt: time.Now()}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.report("running:" + name)

		if err := runner(context.Background()); err != nil {
			m.report("error:" + name + ":" + err.Error())
		} else {
			m.report("done:" + name)
		}

		m.mu.Lock()
		delete(m.jobs, name)
		m.mu.Unlock()
	}()

	return nil
}

// Wait blocks until every running job returned or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns the active jobs, oldest first.
func (m *Manager) List() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Status returns a human-readable summary of active jobs.
// Example:
//
//	"Running jobs: purge:1, purge:2"
//
// If none are running: "No jobs are running."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	names := make([]string, len(active))
	for i, j := range active {
		names[i] = j.Name
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(names, ", "))
}

// report delivers lifecycle messages to the reporter if present.
func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
