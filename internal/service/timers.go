// apps/go-server/internal/service/timers.go
//
// Turn and idle timers.
// Each live game has at most one pending timer:
//   - while a turn is open it fires at the turn deadline and submits a
//     TIMEOUT for the version it was armed at;
//   - while the game is WAITING it fires WaitingTimeout after creation and
//     terminates the game.
// A timer that fires after the game moved on finds a newer version and is
// dropped.

package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scrabble/apps/go-server/internal/game"
)

// schedule re-arms the game's timer for its current version.
// Called with e.mu held.
func (s *Service) schedule(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	g := e.match.Game()
	switch {
	case g.Status.Playing():
		e.timer = time.AfterFunc(until(g.Deadline(), s.now()), func() {
			s.timeout(g.ID, g.Version)
		})
	case g.Status == game.StatusWaiting && s.opts.WaitingTimeout > 0:
		e.timer = time.AfterFunc(until(g.CreatedAt.Add(s.opts.WaitingTimeout), s.now()), func() {
			s.expire(g.ID, g.Version)
		})
	}
}

func until(t, now time.Time) time.Duration {
	if d := t.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (s *Service) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// timeout ends the current turn if the game is still at version.
func (s *Service) timeout(id string, version int) {
	if s.stopped() {
		return
	}
	_, err := s.mutate(context.Background(), id, func(m *game.Match, at time.Time) (*game.Result, error) {
		return m.Timeout(version, at)
	})
	switch {
	case err == nil:
	case errors.Is(err, game.ErrStaleTurn), errors.Is(err, game.ErrGameNotInProgress):
		log.Debug().Str("game", id).Int("version", version).Msg("stale turn timer")
	default:
		log.Warn().Err(err).Str("game", id).Int("version", version).Msg("turn timeout")
	}
}

// expire terminates a game nobody joined in time.
func (s *Service) expire(id string, version int) {
	if s.stopped() {
		return
	}
	_, err := s.mutate(context.Background(), id, func(m *game.Match, at time.Time) (*game.Result, error) {
		if m.Version() != version || m.Game().Status != game.StatusWaiting {
			return nil, game.ErrStaleTurn
		}
		return m.Terminate("", at)
	})
	switch {
	case err == nil:
		log.Info().Str("game", id).Msg("terminated idle game")
	case errors.Is(err, game.ErrStaleTurn):
		log.Debug().Str("game", id).Int("version", version).Msg("stale idle timer")
	default:
		log.Warn().Err(err).Str("game", id).Msg("idle termination")
	}
}
