// Package game runs the server side of an arcade round.
//
// A round moves through
//
//	idle -> showing | waiting -> playing -> gameover
//
// Pattern games (Memory Matrix, Pattern Pulse) show a pattern first, Reaction Test waits
// for a random go signal, Binary Breaker starts playing at once. Finishing a round submits
// its score exactly once; the browser cannot post a score for a round it never played.
package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

type State string

const (
	StateIdle     State = "idle"
	StateShowing  State = "showing"
	StateWaiting  State = "waiting"
	StatePlaying  State = "playing"
	StateGameOver State = "gameover"
)

var (
	ErrAlreadyFinished   = &apperror.AppError{Err: apperror.ErrConflict, Message: "game session already finished"}
	ErrInvalidTransition = &apperror.AppError{Err: apperror.ErrConflict, Message: "invalid game session transition"}
	ErrSubmitInFlight    = &apperror.AppError{Err: apperror.ErrConflict, Message: "game session score is still being submitted"}
)

// Submitter persists the score of a finished round. service.GameService implements it.
type Submitter interface {
	SubmitScore(ctx context.Context, userID, gameName string, score int, timeTaken *int64, difficulty string) (*model.ScoreRecord, error)
}

// Session is one round of one game for one member.
type Session struct {
	ID         string             `json:"id"`
	UserID     string             `json:"userId"`
	Game       model.Game         `json:"game"`
	Difficulty string             `json:"difficulty,omitempty"`
	State      State              `json:"state"`
	StartedAt  time.Time          `json:"startedAt"`
	PlayingAt  time.Time          `json:"playingAt,omitzero"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	Result     *model.ScoreRecord `json:"result,omitempty"`

	// submitting is set while Finish waits on the Submitter; the round must not change
	// under it.
	submitting bool
}

// Manager owns every live round. Rounds are kept in memory; a restart drops unfinished
// rounds, which only costs the player that round.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	submit   Submitter
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(submit Submitter, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		submit:   submit,
		logger:   logger,
		now:      time.Now,
	}
}

// Start opens a round of gameName for userID and reveals it.
func (m *Manager) Start(userID, gameName, difficulty string) (*Session, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	g, ok := model.LookupGame(gameName)
	if !ok {
		return nil, apperror.ValidationFailed("game", "unknown game "+gameName)
	}

	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Game:       g,
		Difficulty: difficulty,
		State:      StateIdle,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	reveal(s, now)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("game session started",
		slog.String("session_id", s.ID),
		slog.String("game", g.ID),
		slog.String("state", string(s.State)),
	)
	return s.snapshot(), nil
}

// Get returns the round if it belongs to userID.
func (m *Manager) Get(userID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Advance ends the reveal phase: showing or waiting becomes playing.
func (m *Manager) Advance(userID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	if s.State != StateShowing && s.State != StateWaiting {
		return nil, ErrInvalidTransition
	}

	now := m.now()
	s.State = StatePlaying
	s.PlayingAt = now
	s.UpdatedAt = now
	return s.snapshot(), nil
}

// Finish moves playing to gameover and submits the score. It submits at most once per
// round: a repeated call gets ErrAlreadyFinished. If the submit itself fails the round
// goes back to playing so the player can retry. Reset and Sweep leave the round alone
// until the submit has returned.
//
// For timed games without a client-measured time, the time since playing began is used.
func (m *Manager) Finish(ctx context.Context, userID, id string, score int, timeTaken *int64) (*Session, error) {
	if score < 0 {
		return nil, apperror.ValidationFailed("score", "score must not be negative")
	}
	if timeTaken != nil && *timeTaken < 0 {
		return nil, apperror.ValidationFailed("timeTaken", "time taken must not be negative")
	}

	m.mu.Lock()
	s, err := m.lookup(userID, id)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	switch s.State {
	case StateGameOver:
		m.mu.Unlock()
		return nil, ErrAlreadyFinished
	case StatePlaying:
	default:
		m.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	now := m.now()
	if timeTaken == nil && s.Game.Timed && !s.PlayingAt.IsZero() {
		elapsed := now.Sub(s.PlayingAt).Milliseconds()
		timeTaken = &elapsed
	}
	// Claim the transition before releasing the lock so a concurrent Finish sees gameover.
	s.State = StateGameOver
	s.UpdatedAt = now
	s.submitting = true
	gameID, difficulty := s.Game.ID, s.Difficulty
	m.mu.Unlock()

	record, err := m.submit.SubmitScore(ctx, userID, gameID, score, timeTaken, difficulty)

	m.mu.Lock()
	defer m.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.State = StatePlaying
		m.logger.Error("submitting game score",
			slog.String("session_id", id),
			slog.String("game", gameID),
			slog.Any("error", err),
		)
		return nil, err
	}
	s.Result = record
	return s.snapshot(), nil
}

// Reset starts the next round of a finished session ("play again").
func (m *Manager) Reset(userID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	if s.submitting {
		return nil, ErrSubmitInFlight
	}
	if s.State != StateGameOver {
		return nil, ErrInvalidTransition
	}

	now := m.now()
	s.State = StateIdle
	s.Result = nil
	s.PlayingAt = time.Time{}
	s.StartedAt = now
	s.UpdatedAt = now
	reveal(s, now)
	return s.snapshot(), nil
}

// Sweep forgets rounds untouched for longer than maxIdle and returns how many it removed.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if !s.submitting && s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len is the number of live rounds.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// lookup must be called with m.mu held. A round owned by someone else is reported as
// missing so other members cannot tell which ids exist.
func (m *Manager) lookup(userID, id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, apperror.NotFound("game session", id)
	}
	return s, nil
}

// reveal performs the idle transition for the game's reveal style.
func reveal(s *Session, now time.Time) {
	switch s.Game.Reveal {
	case model.RevealShowing:
		s.State = StateShowing
	case model.RevealWaiting:
		s.State = StateWaiting
	default:
		s.State = StatePlaying
		s.PlayingAt = now
	}
}

func (s *Session) snapshot() *Session {
	c := *s
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	return &c
}

// IsTransitionError reports whether err is one of the state machine's own refusals.
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrAlreadyFinished) || errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrSubmitInFlight)
}
