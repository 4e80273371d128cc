package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/store"
)

// Errors exposed by the service layer.
var (
	ErrNotFound = store.ErrNotFound
	ErrBadID    = errors.New("invalid session id")
)

// Store keeps session snapshots between requests.
type Store interface {
	Load(ctx context.Context, id string) (domain.Snapshot, error)
	Save(ctx context.Context, id string, s domain.Snapshot) error
	Delete(ctx context.Context, id string) error
}

// Renderer encodes a view into a broadcast payload.
type Renderer func(View) []byte

type subscriber struct {
	ch chan []byte
}

// close is only called under Service.mu, once, from unsubscribe.
func (s *subscriber) close() { close(s.ch) }

// Service applies user actions to sessions and notifies every view of a
// session after each change. Actions, notifications and unsubscribes all
// run under mu.
type Service struct {
	mu     sync.Mutex
	store  Store
	subs   map[string]map[*subscriber]struct{}
	render Renderer
	log    zerolog.Logger
}

// NewService creates a service with a renderer that encodes nothing.
func NewService(st Store, log zerolog.Logger) *Service {
	return NewServiceWithRenderer(st, log, nil)
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(st Store, log zerolog.Logger, renderer Renderer) *Service {
	if renderer == nil {
		renderer = func(View) []byte { return nil }
	}
	return &Service{
		store:  st,
		subs:   make(map[string]map[*subscriber]struct{}),
		render: renderer,
		log:    log.With().Str("component", "app").Logger(),
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		renderer = func(View) []byte { return nil }
	}
	s.render = renderer
}

// Open returns the session's view, starting a new game when the session is
// unknown or expired.
func (s *Service) Open(ctx context.Context, id string) (View, error) {
	if !ValidSessionID(id) {
		return View{}, ErrBadID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		g = domain.New()
		if err := s.save(ctx, id, g); err != nil {
			return View{}, err
		}
		s.log.Info().Str("session", id).Msg("session started")
	} else if err != nil {
		return View{}, err
	}
	return newView(id, g), nil
}

// Get returns the session's view.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return newView(id, g), nil
}

// Play places the next mark at cell i. A rejected move returns the
// unchanged view and notifies nobody.
func (s *Service) Play(ctx context.Context, id string, i int) (View, error) {
	return s.apply(ctx, id, func(g *domain.Game) (bool, error) {
		ok := g.Play(i)
		if !ok {
			s.log.Debug().Str("session", id).Int("cell", i).Msg("move ignored")
		}
		return ok, nil
	})
}

// JumpTo views a past position.
func (s *Service) JumpTo(ctx context.Context, id string, move int) (View, error) {
	return s.apply(ctx, id, func(g *domain.Game) (bool, error) {
		if err := g.JumpTo(move); err != nil {
			return false, err
		}
		return true, nil
	})
}

// ToggleSortOrder flips the order of the move list.
func (s *Service) ToggleSortOrder(ctx context.Context, id string) (View, error) {
	return s.apply(ctx, id, func(g *domain.Game) (bool, error) {
		g.ToggleSortOrder()
		return true, nil
	})
}

// Restart clears the session's moves.
func (s *Service) Restart(ctx context.Context, id string) (View, error) {
	return s.apply(ctx, id, func(g *domain.Game) (bool, error) {
		g.Restart()
		return true, nil
	})
}

func (s *Service) apply(ctx context.Context, id string, action func(*domain.Game) (bool, error)) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	changed, err := action(g)
	if err != nil {
		return newView(id, g), err
	}
	v := newView(id, g)
	if !changed {
		return v, nil
	}
	if err := s.save(ctx, id, g); err != nil {
		return View{}, err
	}
	s.log.Debug().Str("session", id).Int("move", v.CurrentMove).Str("status", v.Status).Msg("session updated")

	s.notifyLocked(id, s.render(v))
	return v, nil
}

// notifyLocked hands payload to every view of the session. Sends never
// block: a view that has not read its previous payload gets it replaced, so
// the pending payload is always the latest one. Callers hold s.mu.
func (s *Service) notifyLocked(id string, payload []byte) {
	for sub := range s.subs[id] {
		select {
		case sub.ch <- payload:
			continue
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- payload:
		default:
		}
	}
}

// Subscribe registers a view of a session. Returns a channel carrying the
// rendered latest state after each change and an unsubscribe func; both end
// when ctx is done.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(s.subs, id)
				}
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub
}

// Subscribers counts the live views of a session.
func (s *Service) Subscribers(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[id])
}

func (s *Service) load(ctx context.Context, id string) (*domain.Game, error) {
	snap, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	g, err := domain.Restore(snap)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return g, nil
}

func (s *Service) save(ctx context.Context, id string, g *domain.Game) error {
	if err := s.store.Save(ctx, id, g.Snapshot()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
