// Package store persists analysis runs and building-type room mixes in
// sqlite. Every measurement served through the API is recorded with its
// full payload so a takeoff can be audited after the fact.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/draftscale/takeoff/internal/measure"
	"github.com/draftscale/takeoff/internal/spaces"
)

// ErrRunNotFound reports an unknown analysis run id.
var ErrRunNotFound = errors.New("analysis run not found")

// Store wraps the sqlite handle.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the sqlite database at path and
// ensures the base schema. Migrations beyond the base schema are
// applied separately through the migrate helpers.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id TEXT PRIMARY KEY,
			page_label TEXT,
			gross_area_sf DOUBLE,
			wall_length_lf DOUBLE,
			area_source TEXT,
			confidence TEXT,
			scale_factor DOUBLE,
			scale_notation TEXT,
			scale_source TEXT,
			payload TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS room_mix (
			building_type TEXT NOT NULL,
			room_type TEXT NOT NULL,
			fraction DOUBLE NOT NULL,
			PRIMARY KEY (building_type, room_type)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create base schema: %w", err)
	}

	return &Store{db}, nil
}

// runPayload is the audit payload stored alongside the summary columns.
type runPayload struct {
	Measurement *measure.Measurement `json:"measurement,omitempty"`
	Program     *spaces.SpaceProgram `json:"program,omitempty"`
}

// Run is a persisted analysis run.
type Run struct {
	ID           string               `json:"id"`
	PageLabel    string               `json:"page_label,omitempty"`
	GrossAreaSF  float64              `json:"gross_area_sf"`
	WallLengthLF float64              `json:"wall_length_lf"`
	AreaSource   string               `json:"area_source"`
	Confidence   string               `json:"confidence"`
	CreatedAt    time.Time            `json:"created_at"`
	Measurement  *measure.Measurement `json:"measurement,omitempty"`
	Program      *spaces.SpaceProgram `json:"program,omitempty"`
}

// SaveRun records a measurement (and optional space program) and
// returns the new run id.
func (s *Store) SaveRun(ctx context.Context, m *measure.Measurement, p *spaces.SpaceProgram) (string, error) {
	payload, err := json.Marshal(runPayload{Measurement: m, Program: p})
	if err != nil {
		return "", fmt.Errorf("encode run payload: %w", err)
	}

	id := uuid.NewString()
	var scaleFactor float64
	var scaleNotation string
	if m.Scale != nil {
		scaleFactor = m.Scale.ScaleFactor
		scaleNotation = m.Scale.Notation
	}
	_, err = s.ExecContext(ctx, `
		INSERT INTO analysis_runs
			(id, page_label, gross_area_sf, wall_length_lf, area_source, confidence,
			 scale_factor, scale_notation, scale_source, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.PageLabel, m.GrossAreaSF, m.WallLengthLF, m.AreaSource, string(m.Confidence),
		scaleFactor, scaleNotation, string(m.ScaleSource), string(payload))
	if err != nil {
		return "", fmt.Errorf("insert analysis run: %w", err)
	}
	return id, nil
}

// GetRun loads one run including its full payload.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.QueryRowContext(ctx, `
		SELECT id, page_label, gross_area_sf, wall_length_lf, area_source, confidence, payload, created_at
		FROM analysis_runs WHERE id = ?`, id)

	var r Run
	var payload string
	if err := row.Scan(&r.ID, &r.PageLabel, &r.GrossAreaSF, &r.WallLengthLF,
		&r.AreaSource, &r.Confidence, &payload, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("load analysis run: %w", err)
	}
	var rp runPayload
	if err := json.Unmarshal([]byte(payload), &rp); err != nil {
		return nil, fmt.Errorf("decode run payload: %w", err)
	}
	r.Measurement = rp.Measurement
	r.Program = rp.Program
	return &r, nil
}

// ListRuns returns recent run summaries, newest first. Payloads are not
// loaded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.QueryContext(ctx, `
		SELECT id, page_label, gross_area_sf, wall_length_lf, area_source, confidence, created_at
		FROM analysis_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.PageLabel, &r.GrossAreaSF, &r.WallLengthLF,
			&r.AreaSource, &r.Confidence, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Mix implements spaces.RoomMixSource from the room_mix table, falling
// back to the built-in priors when the table carries no rows for the
// building type.
func (s *Store) Mix(ctx context.Context, bt spaces.BuildingType) (map[spaces.RoomType]float64, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT room_type, fraction FROM room_mix WHERE building_type = ?`, string(bt))
	if err != nil {
		return nil, fmt.Errorf("query room mix: %w", err)
	}
	defer rows.Close()

	mix := make(map[spaces.RoomType]float64)
	for rows.Next() {
		var rt string
		var frac float64
		if err := rows.Scan(&rt, &frac); err != nil {
			return nil, fmt.Errorf("scan room mix: %w", err)
		}
		mix[spaces.RoomType(rt)] = frac
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(mix) == 0 {
		return spaces.StaticRoomMix{}.Mix(ctx, bt)
	}
	return mix, nil
}

// SetMix replaces the stored room mix for a building type.
func (s *Store) SetMix(ctx context.Context, bt spaces.BuildingType, mix map[spaces.RoomType]float64) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin room mix update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_mix WHERE building_type = ?`, string(bt)); err != nil {
		return fmt.Errorf("clear room mix: %w", err)
	}
	for rt, frac := range mix {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO room_mix (building_type, room_type, fraction) VALUES (?, ?, ?)`,
			string(bt), string(rt), frac); err != nil {
			return fmt.Errorf("insert room mix: %w", err)
		}
	}
	return tx.Commit()
}
