// Package catalog stores the hackathons shown on the home screen.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

var ErrNotFound = errors.New("hackathon not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]studio.Hackathon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, date, time, location, deadline, image, registrations, created_at
		FROM hackathons
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing hackathons: %w", err)
	}
	defer rows.Close()

	var out []studio.Hackathon
	for rows.Next() {
		h, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (studio.Hackathon, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, date, time, location, deadline, image, registrations, created_at
		FROM hackathons
		WHERE id = ?`, id)
	h, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return studio.Hackathon{}, ErrNotFound
	}
	return h, err
}

// Exists reports whether id names a hackathon.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hackathons WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("checking hackathon: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Put(ctx context.Context, h studio.Hackathon) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hackathons (id, title, date, time, location, deadline, image, registrations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET title = excluded.title,
		    date = excluded.date,
		    time = excluded.time,
		    location = excluded.location,
		    deadline = excluded.deadline,
		    image = excluded.image,
		    registrations = excluded.registrations
	`, h.ID, h.Title, h.Date, h.Time, h.Location, h.Deadline, h.Image, h.Registrations)
	if err != nil {
		return fmt.Errorf("writing hackathon %s: %w", h.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (studio.Hackathon, error) {
	var (
		h       studio.Hackathon
		created string
	)
	if err := r.Scan(&h.ID, &h.Title, &h.Date, &h.Time, &h.Location, &h.Deadline, &h.Image, &h.Registrations, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("scanning hackathon: %w", err)
	}
	h.CreatedAt, _ = time.Parse("2006-01-02T15:04:05.000Z", created)
	return h, nil
}
