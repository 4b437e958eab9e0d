// Package sqlite persists aggregates as JSON documents in sqlite. Each
// aggregate type gets its own table keyed by id, with a project_id column for
// the owned-by-project lookups.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/praxisworks/simforge/internal/domain"
	"github.com/praxisworks/simforge/internal/domain/project"
	"github.com/praxisworks/simforge/internal/domain/simulation"
	"github.com/praxisworks/simforge/internal/domain/team"
	"github.com/praxisworks/simforge/internal/domain/timeline"
	"github.com/praxisworks/simforge/internal/storage"
)

//go:embed schema.sql
var schema string

// Store backs all four repositories with one sqlite database.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("db path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := applySchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewInMemory opens a throwaway in-memory database.
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := applySchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Repositories returns the store wired as the four repository interfaces.
func (s *Store) Repositories() storage.Repositories {
	return storage.Repositories{
		Projects:    &projectRepo{s},
		Timelines:   &timelineRepo{s},
		Teams:       &teamRepo{s},
		Simulations: &simulationRepo{s},
	}
}

func (s *Store) saveDoc(ctx context.Context, table, id, projectID string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", table, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return retryOnBusy(func() error {
		var execErr error
		if projectID == "" {
			_, execErr = s.db.ExecContext(ctx,
				`INSERT INTO `+table+` (id, data, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
				id, string(data), now)
		} else {
			_, execErr = s.db.ExecContext(ctx,
				`INSERT INTO `+table+` (id, project_id, data, updated_at) VALUES (?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
				id, projectID, string(data), now)
		}
		if execErr != nil {
			return fmt.Errorf("save %s: %w", table, execErr)
		}
		return nil
	})
}

func (s *Store) loadDoc(ctx context.Context, table, id string, out any) error {
	var data string
	err := retryOnBusy(func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT data FROM `+table+` WHERE id = ?`, id).Scan(&data)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", table, err)
	}
	return nil
}

func (s *Store) loadByProject(ctx context.Context, table, projectID string, out any) error {
	var data string
	err := retryOnBusy(func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT data FROM `+table+` WHERE project_id = ?`, projectID).Scan(&data)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s by project: %w", table, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", table, err)
	}
	return nil
}

func (s *Store) deleteDoc(ctx context.Context, table, id string) (bool, error) {
	var affected int64
	err := retryOnBusy(func() error {
		res, execErr := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
		if execErr != nil {
			return fmt.Errorf("delete %s: %w", table, execErr)
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	return affected > 0, err
}

type projectRepo struct{ s *Store }

func (r *projectRepo) Save(ctx context.Context, p *project.Project) error {
	return r.s.saveDoc(ctx, "projects", p.ID.String(), "", p)
}

func (r *projectRepo) FindByID(ctx context.Context, id domain.ProjectID) (*project.Project, error) {
	var p project.Project
	if err := r.s.loadDoc(ctx, "projects", id.String(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) Delete(ctx context.Context, id domain.ProjectID) (bool, error) {
	return r.s.deleteDoc(ctx, "projects", id.String())
}

type timelineRepo struct{ s *Store }

func (r *timelineRepo) Save(ctx context.Context, t *timeline.Timeline) error {
	return r.s.saveDoc(ctx, "timelines", t.ID.String(), t.ProjectID.String(), t)
}

func (r *timelineRepo) FindByID(ctx context.Context, id domain.TimelineID) (*timeline.Timeline, error) {
	var t timeline.Timeline
	if err := r.s.loadDoc(ctx, "timelines", id.String(), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *timelineRepo) FindByProjectID(ctx context.Context, projectID domain.ProjectID) (*timeline.Timeline, error) {
	var t timeline.Timeline
	if err := r.s.loadByProject(ctx, "timelines", projectID.String(), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *timelineRepo) Delete(ctx context.Context, id domain.TimelineID) (bool, error) {
	return r.s.deleteDoc(ctx, "timelines", id.String())
}

type teamRepo struct{ s *Store }

func (r *teamRepo) Save(ctx context.Context, t *team.Team) error {
	return r.s.saveDoc(ctx, "teams", t.ID.String(), t.ProjectID.String(), t)
}

func (r *teamRepo) FindByID(ctx context.Context, id domain.TeamID) (*team.Team, error) {
	var t team.Team
	if err := r.s.loadDoc(ctx, "teams", id.String(), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teamRepo) FindByProjectID(ctx context.Context, projectID domain.ProjectID) (*team.Team, error) {
	var t team.Team
	if err := r.s.loadByProject(ctx, "teams", projectID.String(), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teamRepo) Delete(ctx context.Context, id domain.TeamID) (bool, error) {
	return r.s.deleteDoc(ctx, "teams", id.String())
}

type simulationRepo struct{ s *Store }

func (r *simulationRepo) Save(ctx context.Context, sim *simulation.Simulation) error {
	return r.s.saveDoc(ctx, "simulations", sim.ID.String(), sim.ProjectID.String(), sim)
}

func (r *simulationRepo) FindByID(ctx context.Context, id domain.SimulationID) (*simulation.Simulation, error) {
	var sim simulation.Simulation
	if err := r.s.loadDoc(ctx, "simulations", id.String(), &sim); err != nil {
		return nil, err
	}
	return &sim, nil
}

func (r *simulationRepo) FindByProjectID(ctx context.Context, projectID domain.ProjectID) ([]*simulation.Simulation, error) {
	var out []*simulation.Simulation
	err := retryOnBusy(func() error {
		rows, queryErr := r.s.db.QueryContext(ctx,
			`SELECT data FROM simulations WHERE project_id = ? ORDER BY updated_at`, projectID.String())
		if queryErr != nil {
			return fmt.Errorf("list simulations: %w", queryErr)
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			var data string
			if scanErr := rows.Scan(&data); scanErr != nil {
				return scanErr
			}
			var sim simulation.Simulation
			if umErr := json.Unmarshal([]byte(data), &sim); umErr != nil {
				return fmt.Errorf("unmarshal simulation: %w", umErr)
			}
			out = append(out, &sim)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *simulationRepo) Delete(ctx context.Context, id domain.SimulationID) (bool, error) {
	return r.s.deleteDoc(ctx, "simulations", id.String())
}
