package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mwalcott/eventdesk/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var status int
	err := scanner.Scan(
		&e.ID, &e.Name, &status, &e.StartDate, &e.EndDate,
		&e.Location, &e.ThumbnailPath, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = model.EventStatus(status)
	return &e, nil
}

const eventCols = `id, name, status, start_date, end_date, location, thumbnail_path, created_at, updated_at`

func (s *EventStore) Create(name string, status model.EventStatus, startDate, endDate time.Time, location, thumbnailPath string) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO events (name, status, start_date, end_date, location, thumbnail_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		name, int(status), startDate.UTC(), endDate.UTC(), location, thumbnailPath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Update overwrites all mutable fields of an event. The write is atomic per
// row; concurrent edits of the same id are last-write-wins.
func (s *EventStore) Update(id int64, name string, status model.EventStatus, startDate, endDate time.Time, location, thumbnailPath string) (*model.Event, error) {
	_, err := s.db.Exec(
		`UPDATE events
		 SET name = ?, status = ?, start_date = ?, end_date = ?, location = ?, thumbnail_path = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, int(status), startDate.UTC(), endDate.UTC(), location, thumbnailPath, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// List returns one page of events ordered by creation time ascending.
// A nil status means no filter.
func (s *EventStore) List(page, limit int, status *model.EventStatus) ([]model.Event, error) {
	query := `SELECT ` + eventCols + ` FROM events`
	args := []any{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, int(*status))
	}
	query += ` ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, page*limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CountEstimate returns the total number of events. The count is taken
// outside any transaction with the page query, so it may drift under
// concurrent writes; pagination only needs an estimate.
func (s *EventStore) CountEstimate() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
