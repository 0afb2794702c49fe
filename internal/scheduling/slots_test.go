package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/climbup/booking-platform/internal/consultants"
	"github.com/climbup/booking-platform/internal/rules"
)

func TestAvailableSlots(t *testing.T) {
	consultantID := uuid.New()
	dir := &memDirectory{byID: map[uuid.UUID]*consultants.Consultant{
		consultantID: {
			ID:     consultantID,
			Active: true,
			WorkingHours: consultants.WorkingHours{
				"monday": {Start: "09:00", End: "11:00"},
			},
		},
	}}
	src := &memRules{
		hold: rules.HoldRule{HoldDurationSeconds: 600},
		peak: []rules.PeakHourRule{
			{Day: "monday", StartTime: "10:00", EndTime: "11:00", Multiplier: 1.2, Active: true},
		},
	}
	store := newMemStore()
	svc := newTestService(store, dir, src)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }

	// Block 09:30-10:30 with an existing appointment.
	store.appointments = append(store.appointments, Appointment{
		ID:           uuid.New(),
		ConsultantID: consultantID,
		Interval: Interval{
			Start: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC),
		},
		Status: AppointmentConfirmed,
	})

	slots, err := svc.AvailableSlots(context.Background(), consultantID, day, 30*time.Minute)
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}

	// Working window 09:00-11:00 in 15m steps fits starts 09:00..10:30;
	// the appointment removes 09:15..10:15, leaving 09:00 and 10:30.
	if len(slots) != 2 {
		t.Fatalf("expected 2 open slots, got %d: %+v", len(slots), slots)
	}
	if got := slots[0].Interval.Start.Format("15:04"); got != "09:00" {
		t.Fatalf("expected first slot 09:00, got %s", got)
	}
	if slots[0].PeakHour {
		t.Fatal("09:00 slot must not be peak")
	}
	if got := slots[1].Interval.Start.Format("15:04"); got != "10:30" {
		t.Fatalf("expected second slot 10:30, got %s", got)
	}
	if !slots[1].PeakHour {
		t.Fatal("10:30 slot must be flagged peak")
	}
}

func TestAvailableSlotsNoWorkingDay(t *testing.T) {
	consultantID := uuid.New()
	dir := &memDirectory{byID: map[uuid.UUID]*consultants.Consultant{
		consultantID: {
			ID:           consultantID,
			Active:       true,
			WorkingHours: consultants.WorkingHours{"tuesday": {Start: "09:00", End: "17:00"}},
		},
	}}
	svc := newTestService(newMemStore(), dir, nil)

	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	slots, err := svc.AvailableSlots(context.Background(), consultantID, monday, 30*time.Minute)
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on a non-working day, got %d", len(slots))
	}
}

func TestAvailableSlotsInactiveConsultant(t *testing.T) {
	consultantID := uuid.New()
	dir := &memDirectory{byID: map[uuid.UUID]*consultants.Consultant{
		consultantID: {ID: consultantID, Active: false},
	}}
	svc := newTestService(newMemStore(), dir, nil)

	slots, err := svc.AvailableSlots(context.Background(), consultantID, time.Now(), 30*time.Minute)
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("inactive consultant must have no slots, got %d", len(slots))
	}
}
