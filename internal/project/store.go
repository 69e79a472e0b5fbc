// Package project persists the viewer session: which layers are open,
// their display order, and per-layer display settings. Datasets are
// reopened from their stored paths on load, so only plain settings are
// written, never engine handles or cached tiles.
package project

import (
	"context"
	"database/sql"
	"embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"rasterview/internal/layer"
	"rasterview/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// LayerState is the persisted shape of one layer.
type LayerState struct {
	ID           string
	Kind         string
	DisplayName  string
	Path         string
	Visible      bool
	Opacity      float64
	DisplayMode  string
	Band         int
	StretchMin   float64
	StretchMax   float64
	StretchGamma float64
	Active       bool
}

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(path string, l logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:     db,
		logger: l,
	}

	err = s.runMigrations()
	if err != nil {
		return nil, err
	}

	l.Info("project store initialized", "path", path)

	return s, nil
}

func (s *Store) runMigrations() error {
	goose.SetBaseFS(migrations)

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	err = goose.Up(s.db, "migrations")
	if err != nil {
		return err
	}

	return nil
}

// Save replaces the stored session with the given layer states, kept
// in slice order.
func (s *Store) Save(ctx context.Context, states []LayerState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM layers`)
	if err != nil {
		return err
	}

	query := `INSERT INTO layers
	(id, position, kind, display_name, path, visible, opacity,
	 display_mode, band, stretch_min, stretch_max, stretch_gamma, active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i, st := range states {
		_, err = tx.ExecContext(ctx, query,
			st.ID, i, st.Kind, st.DisplayName, st.Path, st.Visible, st.Opacity,
			st.DisplayMode, st.Band, st.StretchMin, st.StretchMax, st.StretchGamma, st.Active)
		if err != nil {
			s.logger.Error("project save failed", "id", st.ID, "error", err)
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	s.logger.Info("project saved", "layers", len(states))
	return nil
}

// Load returns the stored layer states in display order.
func (s *Store) Load(ctx context.Context) ([]LayerState, error) {
	query := `SELECT id, kind, display_name, path, visible, opacity,
	display_mode, band, stretch_min, stretch_max, stretch_gamma, active
	FROM layers
	ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []LayerState
	for rows.Next() {
		var st LayerState
		err = rows.Scan(&st.ID, &st.Kind, &st.DisplayName, &st.Path, &st.Visible, &st.Opacity,
			&st.DisplayMode, &st.Band, &st.StretchMin, &st.StretchMax, &st.StretchGamma, &st.Active)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}

	return states, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot captures the registry's current session as persistable
// states, in display order.
func Snapshot(reg *layer.Registry) []LayerState {
	active := reg.Active()

	var states []LayerState
	for _, id := range reg.Order() {
		l, ok := reg.Get(id)
		if !ok {
			continue
		}
		states = append(states, LayerState{
			ID:           l.ID,
			Kind:         l.Kind.String(),
			DisplayName:  l.DisplayName,
			Path:         l.Path,
			Visible:      l.Visible,
			Opacity:      l.Opacity,
			DisplayMode:  l.DisplayMode.String(),
			Band:         l.Band,
			StretchMin:   l.Stretch.Min,
			StretchMax:   l.Stretch.Max,
			StretchGamma: l.Stretch.Gamma,
			Active:       l.ID == active,
		})
	}
	return states
}
