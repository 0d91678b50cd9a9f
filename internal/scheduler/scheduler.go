// Package scheduler runs the portal's housekeeping jobs.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	SweepInterval  = time.Minute
	GameSessionTTL = 30 * time.Minute
)

// GameSweeper drops abandoned game rounds. *game.Manager implements it.
type GameSweeper interface {
	Sweep(maxIdle time.Duration) int
}

// SessionPurger drops expired login sessions. Only the in-memory session store needs it;
// Redis expires keys on its own.
type SessionPurger interface {
	Purge(now time.Time) int
}

type Scheduler struct {
	s       gocron.Scheduler
	logger  *slog.Logger
	stopped atomic.Bool
}

// New registers the jobs without starting them. purger may be nil.
func New(games GameSweeper, purger SessionPurger, logger *slog.Logger) (*Scheduler, error) {
	return newScheduler(games, purger, SweepInterval, logger)
}

// newScheduler shuts the gocron scheduler down again if any job fails to register.
func newScheduler(games GameSweeper, purger SessionPurger, every time.Duration, logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	sch := &Scheduler{s: s, logger: logger}

	if _, err := s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(sch.sweepGames, games),
		gocron.WithName("sweep-game-sessions"),
	); err != nil {
		return nil, errors.Join(fmt.Errorf("scheduler: sweep job: %w", err), s.Shutdown())
	}

	if purger != nil {
		if _, err := s.NewJob(
			gocron.DurationJob(every),
			gocron.NewTask(sch.purgeSessions, purger),
			gocron.WithName("purge-login-sessions"),
		); err != nil {
			return nil, errors.Join(fmt.Errorf("scheduler: purge job: %w", err), s.Shutdown())
		}
	}
	return sch, nil
}

func (sch *Scheduler) Start() { sch.s.Start() }

// Shutdown waits for running jobs to finish and releases the scheduler. Only the first
// call does anything, whether or not Start ran.
func (sch *Scheduler) Shutdown() error {
	if !sch.stopped.CompareAndSwap(false, true) {
		return nil
	}
	return sch.s.Shutdown()
}

// Jobs lists the names of the registered jobs.
func (sch *Scheduler) Jobs() []string {
	jobs := sch.s.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

func (sch *Scheduler) sweepGames(games GameSweeper) {
	if n := games.Sweep(GameSessionTTL); n > 0 {
		sch.logger.Info("swept stale game sessions", slog.Int("count", n))
	}
}

func (sch *Scheduler) purgeSessions(purger SessionPurger) {
	if n := purger.Purge(time.Now()); n > 0 {
		sch.logger.Info("purged expired login sessions", slog.Int("count", n))
	}
}
