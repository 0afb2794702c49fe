package consultants

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

var consultantRowColumns = []string{
	"id", "specialization", "hourly_rate", "years_experience",
	"is_preferred", "is_active", "working_hours", "created_at", "updated_at",
}

func TestRepositoryGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)
	id := uuid.New()
	now := time.Now()
	wh := []byte(`{"monday":{"start":"09:00","end":"17:00"}}`)

	mock.ExpectQuery("SELECT (.+) FROM consultants WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(consultantRowColumns).
			AddRow(id, "yoga", 100.0, 5, true, true, wh, now, now))

	c, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get consultant: %v", err)
	}
	if c.Specialization != "yoga" || !c.Preferred || c.YearsExperience != 5 {
		t.Fatalf("unexpected consultant: %+v", c)
	}
	win, ok := c.WorkingHours.Window(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	if !ok || win.Start != "09:00" {
		t.Fatalf("expected decoded working hours, got %+v", c.WorkingHours)
	}
}

func TestRepositoryGetByIDMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM consultants WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	c, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("missing consultant should not error: %v", err)
	}
	if c != nil {
		t.Fatalf("expected nil consultant, got %+v", c)
	}
}

func TestRepositoryMatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM consultants").
		WithArgs("yoga", true).
		WillReturnRows(pgxmock.NewRows(consultantRowColumns).
			AddRow(uuid.New(), "Yoga", 120.0, 8, true, true, []byte(`{}`), now, now).
			AddRow(uuid.New(), "yoga", 90.0, 3, true, true, []byte(`{}`), now, now))

	list, err := repo.Match(context.Background(), "yoga", true)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 consultants, got %d", len(list))
	}
	if !list[0].Preferred || !list[1].Preferred {
		t.Fatal("preferred-only match returned non-preferred consultant")
	}
}

func TestRepositoryMatchEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)
	mock.ExpectQuery("SELECT (.+) FROM consultants").
		WithArgs("astrology", false).
		WillReturnRows(pgxmock.NewRows(consultantRowColumns))

	list, err := repo.Match(context.Background(), "astrology", false)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no consultants, got %d", len(list))
	}
}
