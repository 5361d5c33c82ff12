package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// NewInMemoryStore returns a Store backed entirely by maps, for tests and
// for config-less runs where persistence across processes is not wanted.
func NewInMemoryStore() Store {
	return &memStore{automata: newMemAutomatonRepository()}
}

type memStore struct {
	automata *memAutomatonRepository
}

func (s *memStore) Automata() AutomatonRepository { return s.automata }

func (s *memStore) Close() error { return s.automata.Close() }

type memAutomatonRepository struct {
	byID   map[uuid.UUID]SavedAutomaton
	byName map[string]uuid.UUID
}

func newMemAutomatonRepository() *memAutomatonRepository {
	return &memAutomatonRepository{
		byID:   map[uuid.UUID]SavedAutomaton{},
		byName: map[string]uuid.UUID{},
	}
}

func (r *memAutomatonRepository) Create(ctx context.Context, name string, spec AutomatonSpec) (SavedAutomaton, error) {
	if _, exists := r.byName[name]; exists {
		return SavedAutomaton{}, ErrConstraintViolation
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return SavedAutomaton{}, err
	}

	now := time.Now()
	rec := SavedAutomaton{ID: id, Name: name, Created: now, Modified: now, Spec: spec}
	r.byID[id] = rec
	r.byName[name] = id
	return rec, nil
}

func (r *memAutomatonRepository) GetByID(ctx context.Context, id uuid.UUID) (SavedAutomaton, error) {
	rec, ok := r.byID[id]
	if !ok {
		return SavedAutomaton{}, ErrNotFound
	}
	return rec, nil
}

func (r *memAutomatonRepository) GetByName(ctx context.Context, name string) (SavedAutomaton, error) {
	id, ok := r.byName[name]
	if !ok {
		return SavedAutomaton{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memAutomatonRepository) GetAll(ctx context.Context) ([]SavedAutomaton, error) {
	all := make([]SavedAutomaton, 0, len(r.byID))
	for _, rec := range r.byID {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (r *memAutomatonRepository) Update(ctx context.Context, id uuid.UUID, name string, spec AutomatonSpec) (SavedAutomaton, error) {
	rec, ok := r.byID[id]
	if !ok {
		return SavedAutomaton{}, ErrNotFound
	}
	if name != rec.Name {
		if _, exists := r.byName[name]; exists {
			return SavedAutomaton{}, ErrConstraintViolation
		}
		delete(r.byName, rec.Name)
		r.byName[name] = id
	}

	rec.Name = name
	rec.Spec = spec
	rec.Modified = time.Now()
	r.byID[id] = rec
	return rec, nil
}

func (r *memAutomatonRepository) Delete(ctx context.Context, id uuid.UUID) (SavedAutomaton, error) {
	rec, ok := r.byID[id]
	if !ok {
		return SavedAutomaton{}, ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byName, rec.Name)
	return rec, nil
}

func (r *memAutomatonRepository) Close() error { return nil }
