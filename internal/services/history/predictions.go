package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/phambaophuc/sign-recognition/internal/models"
)

// DefaultLimit bounds list queries when the caller passes no limit.
const DefaultLimit = 50

// PredictionRepository stores recognition results.
type PredictionRepository struct {
	db *sql.DB
}

func (s *Store) Predictions() *PredictionRepository {
	return &PredictionRepository{db: s.db}
}

// Create inserts the entry and fills in its ID and CreatedAt.
func (r *PredictionRepository) Create(ctx context.Context, e *models.HistoryEntry) error {
	if e.Source == "" {
		e.Source = models.SourceUpload
	}
	e.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO predictions (label, confidence, hand_detected, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Label, e.Confidence, e.HandDetected, e.Source, e.CreatedAt,
	)
	if err != nil {
		return err
	}

	e.ID, err = res.LastInsertId()
	return err
}

// List returns the most recent entries first.
func (r *PredictionRepository) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, label, confidence, hand_detected, source, created_at
		 FROM predictions
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Label, &e.Confidence, &e.HandDetected, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// CountByLabel returns how many times each label was predicted.
func (r *PredictionRepository) CountByLabel(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, COUNT(*) FROM predictions GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}

	return counts, rows.Err()
}
