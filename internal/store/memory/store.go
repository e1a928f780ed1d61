// Package memory provides an in-process principal store for tests and local
// development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/contactAuth/principal"
)

// Store is a mutex-guarded map keyed by email. Records are copied in and out
// so callers never share pointers with the store.
type Store struct {
	mu     sync.Mutex
	byMail map[string]principal.Principal
	nextID int64
	now    func() time.Time

	// FindByEmail invocations, reported by FindCalls.
	calls int
}

func New() *Store {
	return &Store{
		byMail: make(map[string]principal.Principal),
		now:    time.Now,
	}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (principal.Principal, error) {
	if err := ctx.Err(); err != nil {
		return principal.Principal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	p, ok := s.byMail[email]
	if !ok {
		return principal.Principal{}, principal.ErrNotFound
	}
	return clone(p), nil
}

func (s *Store) Create(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	if err := ctx.Err(); err != nil {
		return principal.Principal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byMail[p.Email]; ok {
		return principal.Principal{}, principal.ErrExists
	}
	s.nextID++
	p.ID = s.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	s.byMail[p.Email] = clone(p)
	return clone(p), nil
}

func (s *Store) Save(ctx context.Context, p principal.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byMail[p.Email]
	if !ok {
		return principal.ErrNotFound
	}
	cur.DisplayName = p.DisplayName
	cur.Avatar = cloneString(p.Avatar)
	cur.Confirmed = cur.Confirmed || p.Confirmed
	s.byMail[p.Email] = cur
	return nil
}

func (s *Store) SetRefreshToken(ctx context.Context, email string, token *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byMail[email]
	if !ok {
		return principal.ErrNotFound
	}
	cur.RefreshToken = cloneString(token)
	s.byMail[email] = cur
	return nil
}

func (s *Store) SwapRefreshToken(ctx context.Context, email, expected string, next *string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byMail[email]
	if !ok {
		return false, principal.ErrNotFound
	}
	if cur.RefreshToken == nil || *cur.RefreshToken != expected {
		return false, nil
	}
	cur.RefreshToken = cloneString(next)
	s.byMail[email] = cur
	return true, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// FindCalls returns how many lookups the store has served.
func (s *Store) FindCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func clone(p principal.Principal) principal.Principal {
	p.Avatar = cloneString(p.Avatar)
	p.RefreshToken = cloneString(p.RefreshToken)
	return p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
