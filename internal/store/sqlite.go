package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
)

// NewSQLiteStore opens (creating if absent) a single database file under
// storageDir holding the one table this package needs.
func NewSQLiteStore(storageDir string) (Store, error) {
	path := filepath.Join(storageDir, "automata.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapDBError(err)
	}

	repo := &sqliteAutomatonRepository{db: db}
	if err := repo.init(); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, automata: repo}, nil
}

type sqliteStore struct {
	db       *sql.DB
	automata *sqliteAutomatonRepository
}

func (s *sqliteStore) Automata() AutomatonRepository { return s.automata }

func (s *sqliteStore) Close() error { return s.db.Close() }

type sqliteAutomatonRepository struct {
	db *sql.DB
}

func (r *sqliteAutomatonRepository) init() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS automata (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		spec BLOB NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (r *sqliteAutomatonRepository) Create(ctx context.Context, name string, spec AutomatonSpec) (SavedAutomaton, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return SavedAutomaton{}, fmt.Errorf("could not generate ID: %w", err)
	}
	now := time.Now()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO automata (id, name, created, modified, spec) VALUES (?, ?, ?, ?, ?)`,
		id.String(), name, now.Unix(), now.Unix(), encodeSpec(spec),
	)
	if err != nil {
		return SavedAutomaton{}, wrapDBError(err)
	}

	return SavedAutomaton{ID: id, Name: name, Created: now, Modified: now, Spec: spec}, nil
}

func (r *sqliteAutomatonRepository) GetByID(ctx context.Context, id uuid.UUID) (SavedAutomaton, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, created, modified, spec FROM automata WHERE id = ?;`, id.String(),
	)
	return scanAutomatonRow(id, row.Scan)
}

func (r *sqliteAutomatonRepository) GetByName(ctx context.Context, name string) (SavedAutomaton, error) {
	var idStr string
	row := r.db.QueryRowContext(ctx,
		`SELECT id, created, modified, spec FROM automata WHERE name = ?;`, name,
	)

	var created, modified int64
	var blob []byte
	if err := row.Scan(&idStr, &created, &modified, &blob); err != nil {
		return SavedAutomaton{}, wrapDBError(err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return SavedAutomaton{}, fmt.Errorf("stored UUID %q is invalid: %w", idStr, err)
	}
	spec, err := decodeSpec(blob)
	if err != nil {
		return SavedAutomaton{}, fmt.Errorf("automaton %q: %w", name, err)
	}

	return SavedAutomaton{
		ID: id, Name: name,
		Created: time.Unix(created, 0), Modified: time.Unix(modified, 0),
		Spec: spec,
	}, nil
}

func (r *sqliteAutomatonRepository) GetAll(ctx context.Context) ([]SavedAutomaton, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created, modified, spec FROM automata ORDER BY name;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []SavedAutomaton
	for rows.Next() {
		var idStr, name string
		var created, modified int64
		var blob []byte
		if err := rows.Scan(&idStr, &name, &created, &modified, &blob); err != nil {
			return nil, wrapDBError(err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", idStr, err)
		}
		spec, err := decodeSpec(blob)
		if err != nil {
			return all, fmt.Errorf("automaton %q: %w", name, err)
		}

		all = append(all, SavedAutomaton{
			ID: id, Name: name,
			Created: time.Unix(created, 0), Modified: time.Unix(modified, 0),
			Spec: spec,
		})
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}
	return all, nil
}

func (r *sqliteAutomatonRepository) Update(ctx context.Context, id uuid.UUID, name string, spec AutomatonSpec) (SavedAutomaton, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE automata SET name=?, modified=?, spec=? WHERE id=?;`,
		name, now.Unix(), encodeSpec(spec), id.String(),
	)
	if err != nil {
		return SavedAutomaton{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return SavedAutomaton{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return SavedAutomaton{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *sqliteAutomatonRepository) Delete(ctx context.Context, id uuid.UUID) (SavedAutomaton, error) {
	curVal, err := r.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM automata WHERE id = ?;`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, ErrNotFound
	}
	return curVal, nil
}

func (r *sqliteAutomatonRepository) Close() error { return nil }

func scanAutomatonRow(id uuid.UUID, scan func(dest ...any) error) (SavedAutomaton, error) {
	var name string
	var created, modified int64
	var blob []byte
	if err := scan(&name, &created, &modified, &blob); err != nil {
		return SavedAutomaton{}, wrapDBError(err)
	}

	spec, err := decodeSpec(blob)
	if err != nil {
		return SavedAutomaton{}, fmt.Errorf("automaton %q: %w", name, err)
	}

	return SavedAutomaton{
		ID: id, Name: name,
		Created: time.Unix(created, 0), Modified: time.Unix(modified, 0),
		Spec: spec,
	}, nil
}

// wrapDBError normalizes sqlite-specific errors to this package's
// sentinels.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		// SQLITE_CONSTRAINT (19) is the low byte of every extended constraint
		// code, e.g. 2067 for a UNIQUE violation.
		if sqliteErr.Code()&0xff == 19 {
			return ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
