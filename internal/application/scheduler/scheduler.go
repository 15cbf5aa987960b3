// Package scheduler runs the periodic background jobs: payouts, schedule
// backfill and signal expiry. Every run holds a named lock so only one
// process executes a job at a time; a tick that cannot take the lock is
// skipped.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"coinease-backend/internal/domain"
	"coinease-backend/internal/infrastructure/locks"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownJob = &domain.Error{Kind: domain.KindNotFound, Message: "Unknown job"}
	ErrJobBusy    = &domain.Error{Kind: domain.KindConflict, Message: "Job is already running"}
)

// Job is a named unit of background work. Interval 0 means run on demand only.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time) (string, error)
}

// JobStatus is the last known state of a job in this process.
type JobStatus struct {
	Name       string     `json:"name"`
	Interval   string     `json:"interval"`
	LastRunAt  *time.Time `json:"last_run_at"`
	LastResult string     `json:"last_result"`
	LastError  string     `json:"last_error,omitempty"`
	Skipped    int        `json:"skipped"`
}

type Scheduler struct {
	Locker  locks.Locker
	LockTTL time.Duration
	Now     func() time.Time

	mu     sync.Mutex
	jobs   map[string]Job
	status map[string]*JobStatus
	wg     sync.WaitGroup
}

func New(locker locks.Locker, lockTTL time.Duration) *Scheduler {
	return &Scheduler{
		Locker:  locker,
		LockTTL: lockTTL,
		Now:     func() time.Time { return time.Now().UTC() },
		jobs:    map[string]Job{},
		status:  map[string]*JobStatus{},
	}
}

func (s *Scheduler) Register(j Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.Name] = j
	s.status[j.Name] = &JobStatus{Name: j.Name, Interval: j.Interval.String()}
}

// Start launches a ticker per periodic job. The goroutines stop when ctx is
// done; Wait blocks until they have.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Interval <= 0 {
			continue
		}
		j := j
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			t := time.NewTicker(j.Interval)
			defer t.Stop()
			log.Info().Str("job", j.Name).Dur("interval", j.Interval).Msg("scheduler: job started")
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					if err := s.run(ctx, j); err != nil && err != ErrJobBusy {
						log.Error().Err(err).Str("job", j.Name).Msg("scheduler: job failed")
					}
				}
			}
		}()
	}
}

func (s *Scheduler) Wait() { s.wg.Wait() }

// RunNow runs the named job once, under the same lock as the tickers.
func (s *Scheduler) RunNow(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return "", ErrUnknownJob
	}
	if err := s.run(ctx, j); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[name].LastResult, nil
}

func (s *Scheduler) run(ctx context.Context, j Job) error {
	release, ok, err := s.Locker.TryLock(ctx, "job:"+j.Name, s.LockTTL)
	if err != nil {
		return fmt.Errorf("lock %s: %w", j.Name, err)
	}
	if !ok {
		s.mu.Lock()
		s.status[j.Name].Skipped++
		s.mu.Unlock()
		log.Debug().Str("job", j.Name).Msg("scheduler: lock held elsewhere, skipping")
		return ErrJobBusy
	}
	defer release()

	now := s.Now()
	result, runErr := j.Run(ctx, now)

	s.mu.Lock()
	st := s.status[j.Name]
	st.LastRunAt = &now
	st.LastResult = result
	st.LastError = ""
	if runErr != nil {
		st.LastError = runErr.Error()
	}
	s.mu.Unlock()
	return runErr
}

// Status lists every registered job, sorted by name.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Names lists the registered job names.
func (s *Scheduler) Names() []string {
	st := s.Status()
	names := make([]string, len(st))
	for i := range st {
		names[i] = st[i].Name
	}
	return names
}
