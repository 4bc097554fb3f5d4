package store

import (
	"testing"
	"time"

	"github.com/mwalcott/eventdesk/internal/database"
	"github.com/mwalcott/eventdesk/internal/model"
)

func setupEventTestDB(t *testing.T) *EventStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEventStore(db)
}

func TestEventCreateAndGet(t *testing.T) {
	s := setupEventTestDB(t)

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)

	e, err := s.Create("Autumn Fair", model.StatusOngoing, start, end, "Town Square", "store/event/thumb/ABC123")
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if e.Name != "Autumn Fair" {
		t.Errorf("name = %q, want %q", e.Name, "Autumn Fair")
	}
	if e.Status != model.StatusOngoing {
		t.Errorf("status = %d, want %d", e.Status, model.StatusOngoing)
	}
	if !e.StartDate.Equal(start) {
		t.Errorf("start_date = %v, want %v", e.StartDate, start)
	}
	if e.ThumbnailPath != "store/event/thumb/ABC123" {
		t.Errorf("thumbnail_path = %q", e.ThumbnailPath)
	}

	got, err := s.GetByID(e.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.Name != "Autumn Fair" {
		t.Errorf("get returned %+v", got)
	}
}

func TestEventGetNotFound(t *testing.T) {
	s := setupEventTestDB(t)

	e, err := s.GetByID(404)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if e != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestEventUpdate(t *testing.T) {
	s := setupEventTestDB(t)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	e, err := s.Create("Draft", model.StatusOngoing, start, end, "Hall A", "store/event/thumb/OLD")
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	updated, err := s.Update(e.ID, "Final", model.StatusCompleted, start, end, "Hall B", "store/event/thumb/NEW")
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if updated.Name != "Final" {
		t.Errorf("name = %q, want %q", updated.Name, "Final")
	}
	if updated.Status != model.StatusCompleted {
		t.Errorf("status = %d, want %d", updated.Status, model.StatusCompleted)
	}
	if updated.ThumbnailPath != "store/event/thumb/NEW" {
		t.Errorf("thumbnail_path = %q", updated.ThumbnailPath)
	}
}

func TestEventDelete(t *testing.T) {
	s := setupEventTestDB(t)

	start := time.Now().UTC().Truncate(time.Second)
	e, err := s.Create("Doomed", model.StatusOngoing, start, start, "Nowhere", "store/event/thumb/X")
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	if err := s.Delete(e.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}

	got, err := s.GetByID(e.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestEventListPagingAndOrder(t *testing.T) {
	s := setupEventTestDB(t)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"First", "Second", "Third"}
	for _, name := range names {
		if _, err := s.Create(name, model.StatusOngoing, start, start, "Somewhere", "p/"+name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	events, err := s.List(0, 10, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	for i, name := range names {
		if events[i].Name != name {
			t.Errorf("events[%d].Name = %q, want %q", i, events[i].Name, name)
		}
	}

	// Second page with limit 2 holds only the third event.
	page, err := s.List(1, 2, nil)
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(page) != 1 || page[0].Name != "Third" {
		t.Errorf("page = %+v, want just Third", page)
	}
}

func TestEventListStatusFilter(t *testing.T) {
	s := setupEventTestDB(t)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.Create("Open", model.StatusOngoing, start, start, "A", "p/1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create("Done", model.StatusCompleted, start, start, "B", "p/2"); err != nil {
		t.Fatalf("create: %v", err)
	}

	completed := model.StatusCompleted
	events, err := s.List(0, 10, &completed)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(events) != 1 || events[0].Name != "Done" {
		t.Errorf("filtered = %+v, want just Done", events)
	}
}

func TestEventCountEstimate(t *testing.T) {
	s := setupEventTestDB(t)

	n, err := s.CountEstimate()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := s.Create("E", model.StatusOngoing, start, start, "L", "p"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	n, err = s.CountEstimate()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}
