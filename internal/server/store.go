package server

import (
	"context"
	"sync"
)

// Store maps usernames to integer balances. Get reports ok=false for an
// unknown user; callers treat that as a zero balance.
//
// Stores make no read-modify-write promise: two concurrent writers for the
// same user race and the last Put wins.
type Store interface {
	Get(ctx context.Context, username string) (money int64, ok bool, err error)
	Put(ctx context.Context, username string, money int64) error
	Close() error
}

type MemoryStore struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: map[string]int64{}}
}

func (s *MemoryStore) Get(_ context.Context, username string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.balances[username]
	return v, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, username string, money int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[username] = money
	return nil
}

func (s *MemoryStore) Close() error { return nil }
