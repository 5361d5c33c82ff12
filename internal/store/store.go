// Package store persists named automata so a caller can come back to a
// saved one later. It is split into a Store interface with one repository,
// an in-memory implementation for tests, and a sqlite-backed one for real
// persistence; the kernel itself never touches it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no record matches the given id or name.
	ErrNotFound = errors.New("the requested automaton was not found")

	// ErrConstraintViolation is returned when a Create or Update would
	// violate a uniqueness constraint (currently: Name must be unique).
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
)

// SavedAutomaton is one persisted automaton, identified by a generated id
// and a caller-chosen unique name.
type SavedAutomaton struct {
	ID       uuid.UUID
	Name     string
	Created  time.Time
	Modified time.Time
	Spec     AutomatonSpec
}

// Store holds the one repository this package exposes. Kept as an
// interface, not a concrete type, so server/httpapi and cmd/langlab* can be
// written against either the sqlite or in-memory backend interchangeably.
type Store interface {
	Automata() AutomatonRepository
	Close() error
}

// AutomatonRepository is the CRUD surface for saved automata. There are no
// scoped GetAllBy* variants, since saved automata have no owning parent
// entity.
type AutomatonRepository interface {
	Create(ctx context.Context, name string, spec AutomatonSpec) (SavedAutomaton, error)
	GetByID(ctx context.Context, id uuid.UUID) (SavedAutomaton, error)
	GetByName(ctx context.Context, name string) (SavedAutomaton, error)
	GetAll(ctx context.Context) ([]SavedAutomaton, error)
	Update(ctx context.Context, id uuid.UUID, name string, spec AutomatonSpec) (SavedAutomaton, error)
	Delete(ctx context.Context, id uuid.UUID) (SavedAutomaton, error)
	Close() error
}
