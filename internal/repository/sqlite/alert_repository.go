package sqlite

import (
	"time"

	"ambulancewatch/internal/model"

	"github.com/pkg/errors"
)

// AlertRepository implements repository.AlertRepository for SQLite.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new SQLite alert event repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert adds a new alert event record to the database.
func (r *AlertRepository) Insert(e *model.AlertEvent) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	result, err := r.db.Conn().Exec(`
		INSERT INTO alert_events (source, label, confidence, x1, y1, x2, y2, output_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Source, e.Label, e.Confidence, e.X1, e.Y1, e.X2, e.Y2, e.OutputImage, e.CreatedAt)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert alert event")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read alert event id")
	}
	e.ID = id
	return id, nil
}

// GetRecent returns up to limit events, newest first.
func (r *AlertRepository) GetRecent(limit int) ([]model.AlertEvent, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Conn().Query(`
		SELECT id, source, label, confidence, x1, y1, x2, y2, output_image, created_at
		FROM alert_events ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alert events")
	}
	defer rows.Close()

	events := []model.AlertEvent{}
	for rows.Next() {
		var e model.AlertEvent
		if err := rows.Scan(&e.ID, &e.Source, &e.Label, &e.Confidence, &e.X1, &e.Y1, &e.X2, &e.Y2, &e.OutputImage, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan alert event")
		}
		events = append(events, e)
	}
	return events, errors.Wrap(rows.Err(), "failed to iterate alert events")
}

// GetTotalCount returns the number of stored alert events.
func (r *AlertRepository) GetTotalCount() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var n int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM alert_events").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count alert events")
	}
	return n, nil
}
