package scheduler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct{ maxIdle time.Duration }

func (f *fakeSweeper) Sweep(maxIdle time.Duration) int {
	f.maxIdle = maxIdle
	return 2
}

type fakePurger struct{ called bool }

func (f *fakePurger) Purge(time.Time) int {
	f.called = true
	return 1
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestJobsCallThrough(t *testing.T) {
	games := &fakeSweeper{}
	purger := &fakePurger{}

	sch, err := New(games, purger, discard())
	require.NoError(t, err)
	sch.Start()
	t.Cleanup(func() { _ = sch.Shutdown() })

	sch.sweepGames(games)
	sch.purgeSessions(purger)

	assert.Equal(t, GameSessionTTL, games.maxIdle)
	assert.True(t, purger.called)
}

func TestNewWithoutPurger(t *testing.T) {
	sch, err := New(&fakeSweeper{}, nil, discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"sweep-game-sessions"}, sch.Jobs())
	sch.Start()
	require.NoError(t, sch.Shutdown())
	require.NoError(t, sch.Shutdown(), "a second shutdown is a no-op")
}

func TestShutdownBeforeStart(t *testing.T) {
	sch, err := New(&fakeSweeper{}, &fakePurger{}, discard())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sweep-game-sessions", "purge-login-sessions"}, sch.Jobs())
	assert.NoError(t, sch.Shutdown())
}

func TestNewFailsOnBadInterval(t *testing.T) {
	sch, err := newScheduler(&fakeSweeper{}, nil, 0, discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep job")
	assert.Nil(t, sch)
}
