package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"haul/internal/domain"
	"haul/internal/service"
)

func newShiftService(shiftRepo *MockShiftRepository, driverRepo *MockDriverRepository, presence *MockPresenceStore) *service.ShiftService {
	return service.NewShiftService(nil, shiftRepo, driverRepo, presence)
}

func TestGoOnline_OpensShiftAndMarksPresence(t *testing.T) {
	ctx := context.Background()

	shiftRepo := NewMockShiftRepository()
	driverRepo := NewMockDriverRepository()
	presence := NewMockPresenceStore()
	shifts := newShiftService(shiftRepo, driverRepo, presence)

	driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))

	shift, err := shifts.GoOnline(ctx, "driver-1")
	if err != nil {
		t.Fatalf("go online failed: %v", err)
	}
	if shift.ID == "" {
		t.Error("shift has no ID")
	}
	if !shift.EndTime.IsZero() {
		t.Error("new shift already ended")
	}

	online, _ := presence.IsOnline(ctx, "driver-1")
	if !online {
		t.Error("driver not marked online")
	}

	if got := driverRepo.GetDriver("driver-1").ActiveShiftID; got != shift.ID {
		t.Errorf("active shift on profile = %q, want %q", got, shift.ID)
	}
}

func TestGoOnline_RequiresApproval(t *testing.T) {
	ctx := context.Background()

	shiftRepo := NewMockShiftRepository()
	driverRepo := NewMockDriverRepository()
	shifts := newShiftService(shiftRepo, driverRepo, NewMockPresenceStore())

	driverRepo.AddDriver(&domain.DriverProfile{ID: "driver-1", Approval: domain.ApprovalPending})

	_, err := shifts.GoOnline(ctx, "driver-1")
	if !errors.Is(err, service.ErrDriverNotApproved) {
		t.Errorf("err = %v, want ErrDriverNotApproved", err)
	}
}

func TestGoOnline_SecondShiftRejected(t *testing.T) {
	ctx := context.Background()

	shiftRepo := NewMockShiftRepository()
	driverRepo := NewMockDriverRepository()
	shifts := newShiftService(shiftRepo, driverRepo, NewMockPresenceStore())

	driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))

	if _, err := shifts.GoOnline(ctx, "driver-1"); err != nil {
		t.Fatalf("first go online failed: %v", err)
	}
	_, err := shifts.GoOnline(ctx, "driver-1")
	if !errors.Is(err, service.ErrShiftAlreadyActive) {
		t.Errorf("err = %v, want ErrShiftAlreadyActive", err)
	}
}

func TestGoOffline_ClosesShiftKeepsRecord(t *testing.T) {
	ctx := context.Background()

	shiftRepo := NewMockShiftRepository()
	driverRepo := NewMockDriverRepository()
	presence := NewMockPresenceStore()
	shifts := newShiftService(shiftRepo, driverRepo, presence)

	driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))

	opened, err := shifts.GoOnline(ctx, "driver-1")
	if err != nil {
		t.Fatalf("go online failed: %v", err)
	}

	closed, err := shifts.GoOffline(ctx, "driver-1")
	if err != nil {
		t.Fatalf("go offline failed: %v", err)
	}
	if closed.ID != opened.ID {
		t.Errorf("closed shift %s, want %s", closed.ID, opened.ID)
	}
	if closed.EndTime.IsZero() {
		t.Error("end time not stamped")
	}

	// The record stays for the weekly aggregate.
	if shiftRepo.GetShift(opened.ID) == nil {
		t.Error("shift record deleted on close")
	}

	online, _ := presence.IsOnline(ctx, "driver-1")
	if online {
		t.Error("driver still marked online")
	}
	if got := driverRepo.GetDriver("driver-1").ActiveShiftID; got != "" {
		t.Errorf("active shift on profile = %q, want cleared", got)
	}
}

func TestGoOffline_NoActiveShift(t *testing.T) {
	ctx := context.Background()

	shiftRepo := NewMockShiftRepository()
	driverRepo := NewMockDriverRepository()
	shifts := newShiftService(shiftRepo, driverRepo, NewMockPresenceStore())

	driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))

	_, err := shifts.GoOffline(ctx, "driver-1")
	if !errors.Is(err, service.ErrNoActiveShift) {
		t.Errorf("err = %v, want ErrNoActiveShift", err)
	}
}

func TestRecordCompletion_ConcurrentIncrementsAllLand(t *testing.T) {
	ctx := context.Background()

	shiftRepo := NewMockShiftRepository()
	shifts := newShiftService(shiftRepo, NewMockDriverRepository(), NewMockPresenceStore())

	shiftRepo.AddShift(&domain.DriverShift{
		ID:        "shift-1",
		DriverID:  "driver-1",
		StartTime: time.Now(),
	})

	const completions = 20
	var wg sync.WaitGroup
	for i := 0; i < completions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := shifts.RecordCompletion(ctx, "shift-1", 150); err != nil {
				t.Errorf("record completion failed: %v", err)
			}
		}()
	}
	wg.Wait()

	shift := shiftRepo.GetShift("shift-1")
	if shift.CompletedRides != completions {
		t.Errorf("completed rides = %d, want %d", shift.CompletedRides, completions)
	}
	if shift.TotalEarnings != completions*150 {
		t.Errorf("total earnings = %.2f, want %.2f", shift.TotalEarnings, float64(completions*150))
	}
}

func TestWeeklySummary_TrailingSevenDayWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	shiftRepo := NewMockShiftRepository()
	shifts := newShiftService(shiftRepo, NewMockDriverRepository(), NewMockPresenceStore())

	// Today, well inside the window.
	shiftRepo.AddShift(&domain.DriverShift{
		ID: "s-today", DriverID: "driver-1",
		StartTime:      now.Add(-2 * time.Hour),
		TotalEarnings:  300,
		CompletedRides: 2,
	})
	// Six days ago, still inside.
	shiftRepo.AddShift(&domain.DriverShift{
		ID: "s-old", DriverID: "driver-1",
		StartTime:      now.AddDate(0, 0, -6),
		TotalEarnings:  450,
		CompletedRides: 3,
		EndTime:        now.AddDate(0, 0, -6).Add(8 * time.Hour),
	})
	// Ten days ago, outside.
	shiftRepo.AddShift(&domain.DriverShift{
		ID: "s-stale", DriverID: "driver-1",
		StartTime:      now.AddDate(0, 0, -10),
		TotalEarnings:  900,
		CompletedRides: 6,
	})
	// Another driver's shift, never counted.
	shiftRepo.AddShift(&domain.DriverShift{
		ID: "s-other", DriverID: "driver-2",
		StartTime:      now.Add(-1 * time.Hour),
		TotalEarnings:  999,
		CompletedRides: 9,
	})

	summary, err := shifts.WeeklySummary(ctx, "driver-1", now)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalEarnings != 750 {
		t.Errorf("total earnings = %.2f, want 750", summary.TotalEarnings)
	}
	if summary.CompletedRides != 5 {
		t.Errorf("completed rides = %d, want 5", summary.CompletedRides)
	}
	if summary.ShiftCount != 2 {
		t.Errorf("shift count = %d, want 2", summary.ShiftCount)
	}
}

func TestWeeklySummary_NoShiftsIsZero(t *testing.T) {
	ctx := context.Background()

	shiftRepo := NewMockShiftRepository()
	shifts := newShiftService(shiftRepo, NewMockDriverRepository(), NewMockPresenceStore())

	summary, err := shifts.WeeklySummary(ctx, "driver-1", time.Now())
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalEarnings != 0 || summary.CompletedRides != 0 || summary.ShiftCount != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
}
