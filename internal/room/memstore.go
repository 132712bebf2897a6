package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/seastrike/seastrike-backend/internal/apperr"
	"github.com/seastrike/seastrike-backend/internal/game"
)

// MemoryStore is an in-process Store used by tests and single-node dev
// setups. Documents are kept as JSON so rooms take the same round trip
// they take through Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string][]byte

	// Events published since creation, newest last.
	Events []Event

	// When > 0, the next Update calls fail with ErrConcurrentUpdate
	// before writing, simulating lost races.
	FailUpdates int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]byte)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Create(_ context.Context, r *game.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[r.Code]; ok {
		return apperr.Conflict("room %s already exists", r.Code)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	m.rooms[r.Code] = data
	return nil
}

func (m *MemoryStore) Get(_ context.Context, code string) (*game.Room, error) {
	m.mu.RLock()
	data, ok := m.rooms[code]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("room %s does not exist", code)
	}
	return decodeRoom(code, data)
}

func (m *MemoryStore) Update(_ context.Context, code string, fn func(*game.Room) error) (*game.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.rooms[code]
	if !ok {
		return nil, apperr.NotFound("room %s does not exist", code)
	}
	r, err := decodeRoom(code, data)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		if errors.Is(err, ErrNoChange) {
			return r, nil
		}
		return nil, err
	}
	if m.FailUpdates > 0 {
		m.FailUpdates--
		return nil, ErrConcurrentUpdate
	}
	out, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	m.rooms[code] = out
	return r, nil
}

func (m *MemoryStore) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, code)
	return nil
}

func (m *MemoryStore) ActiveCodes(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var codes []string
	for code, data := range m.rooms {
		r, err := decodeRoom(code, data)
		if err != nil {
			continue
		}
		if r.Active() {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func (m *MemoryStore) Publish(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}
