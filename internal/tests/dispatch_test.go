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

type dispatchFixture struct {
	rideRepo   *MockRideRequestRepository
	driverRepo *MockDriverRepository
	shiftRepo  *MockShiftRepository
	presence   *MockPresenceStore
	locks      *MockLockStore
	feed       *MockQueueFeed
	dispatch   *service.DispatchService
	shifts     *service.ShiftService
}

func newDispatchFixture() *dispatchFixture {
	f := &dispatchFixture{
		rideRepo:   NewMockRideRequestRepository(),
		driverRepo: NewMockDriverRepository(),
		shiftRepo:  NewMockShiftRepository(),
		presence:   NewMockPresenceStore(),
		locks:      NewMockLockStore(),
		feed:       NewMockQueueFeed(),
	}
	lifecycle := service.NewLifecycleService(nil, f.rideRepo, nil, f.feed)
	f.shifts = service.NewShiftService(nil, f.shiftRepo, f.driverRepo, f.presence)
	f.dispatch = service.NewDispatchService(f.rideRepo, f.driverRepo, f.presence, f.locks, f.feed, lifecycle, f.shifts)
	return f
}

func approvedDriver(id, name string) *domain.DriverProfile {
	return &domain.DriverProfile{
		ID:       id,
		FullName: name,
		Phone:    "0821234567",
		Approval: domain.ApprovalApproved,
	}
}

func TestListPending_RequiresApproval(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	pending := &domain.DriverProfile{ID: "driver-1", Approval: domain.ApprovalPending}
	f.driverRepo.AddDriver(pending)

	_, err := f.dispatch.ListPending(ctx, "driver-1")
	if !errors.Is(err, service.ErrDriverNotApproved) {
		t.Errorf("err = %v, want ErrDriverNotApproved", err)
	}
}

func TestListPending_OfflineDriverSeesEmptyQueue(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))
	f.rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	// Offline: queue exists but the view is suppressed.
	list, err := f.dispatch.ListPending(ctx, "driver-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("offline driver sees %d requests, want 0", len(list))
	}

	// Online: same queue becomes visible.
	f.presence.SetOnline(ctx, "driver-1")
	list, err = f.dispatch.ListPending(ctx, "driver-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("online driver sees %d requests, want 1", len(list))
	}
}

func TestListPending_ExcludesNonPending(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))
	f.presence.SetOnline(ctx, "driver-1")

	f.rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))
	accepted := pendingRequest("req-2", "cust-2")
	accepted.Status = domain.RideStatusAccepted
	f.rideRepo.AddRequest(accepted)
	declined := pendingRequest("req-3", "cust-3")
	declined.Status = domain.RideStatusDeclined
	f.rideRepo.AddRequest(declined)

	list, err := f.dispatch.ListPending(ctx, "driver-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "req-1" {
		t.Errorf("pending view = %d items, want only req-1", len(list))
	}
}

func TestAccept_ConcurrentDriversOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	const drivers = 8
	for i := 0; i < drivers; i++ {
		f.driverRepo.AddDriver(approvedDriver(driverID(i), "Driver"))
	}
	f.rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	var wg sync.WaitGroup
	results := make([]error, drivers)
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.dispatch.Accept(ctx, "req-1", driverID(i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, service.ErrAlreadyTaken):
		default:
			t.Errorf("unexpected accept error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	queueCopy := f.rideRepo.GetQueueCopy("req-1")
	if queueCopy.Status != domain.RideStatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", queueCopy.Status)
	}
	if queueCopy.DriverID == "" {
		t.Error("no driver recorded on the accepted request")
	}
}

func driverID(i int) string {
	return "driver-" + string(rune('a'+i))
}

func TestAccept_UnapprovedDriverRejected(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(&domain.DriverProfile{ID: "driver-1", Approval: domain.ApprovalNotApplied})
	f.rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	_, err := f.dispatch.Accept(ctx, "req-1", "driver-1")
	if !errors.Is(err, service.ErrDriverNotApproved) {
		t.Errorf("err = %v, want ErrDriverNotApproved", err)
	}
	if got := f.rideRepo.GetQueueCopy("req-1").Status; got != domain.RideStatusPending {
		t.Errorf("status = %s, want PENDING untouched", got)
	}
}

func TestAccept_ReleasesLockAfterWin(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))
	f.rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	if _, err := f.dispatch.Accept(ctx, "req-1", "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if f.locks.AcquireCallCount != 1 || f.locks.ReleaseCallCount != 1 {
		t.Errorf("lock calls acquire=%d release=%d, want 1/1", f.locks.AcquireCallCount, f.locks.ReleaseCallCount)
	}
}

func TestComplete_WrongDriverRejected(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))
	f.driverRepo.AddDriver(approvedDriver("driver-2", "Thabo K"))

	req := pendingRequest("req-1", "cust-1")
	req.Status = domain.RideStatusAccepted
	req.DriverID = "driver-1"
	f.rideRepo.AddRequest(req)

	_, err := f.dispatch.Complete(ctx, "req-1", "driver-2")
	if !errors.Is(err, service.ErrNotRequestDriver) {
		t.Errorf("err = %v, want ErrNotRequestDriver", err)
	}
}

func TestComplete_AttributesEarningsToActiveShift(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	driver := approvedDriver("driver-1", "Sipho M")
	driver.ActiveShiftID = "shift-1"
	f.driverRepo.AddDriver(driver)
	f.shiftRepo.AddShift(&domain.DriverShift{
		ID:        "shift-1",
		DriverID:  "driver-1",
		StartTime: time.Now().Add(-2 * time.Hour),
	})

	req := pendingRequest("req-1", "cust-1")
	req.Status = domain.RideStatusAccepted
	req.DriverID = "driver-1"
	req.Price = 237.50
	f.rideRepo.AddRequest(req)

	result, err := f.dispatch.Complete(ctx, "req-1", "driver-1")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if result.Request.Status != domain.RideStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", result.Request.Status)
	}

	shift := f.shiftRepo.GetShift("shift-1")
	if shift.TotalEarnings != 237.50 {
		t.Errorf("shift earnings = %.2f, want 237.50", shift.TotalEarnings)
	}
	if shift.CompletedRides != 1 {
		t.Errorf("shift completed rides = %d, want 1", shift.CompletedRides)
	}
}

func TestComplete_NoActiveShiftStillCompletes(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))

	req := pendingRequest("req-1", "cust-1")
	req.Status = domain.RideStatusAccepted
	req.DriverID = "driver-1"
	f.rideRepo.AddRequest(req)

	result, err := f.dispatch.Complete(ctx, "req-1", "driver-1")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if result.Request.Status != domain.RideStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", result.Request.Status)
	}
	if f.shiftRepo.AddCompletionCallCount != 0 {
		t.Error("earnings attributed without an active shift")
	}
}

func TestComplete_DriverLookupFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	req := pendingRequest("req-1", "cust-1")
	req.Status = domain.RideStatusAccepted
	req.DriverID = "driver-1"
	f.rideRepo.AddRequest(req)

	f.driverRepo.GetByIDError = errors.New("connection reset")

	// The transition commits before the earnings lookup; a failure
	// there must not surface as a failed completion.
	result, err := f.dispatch.Complete(ctx, "req-1", "driver-1")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if result.Request.Status != domain.RideStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", result.Request.Status)
	}
	if f.shiftRepo.AddCompletionCallCount != 0 {
		t.Error("earnings attributed despite failed driver lookup")
	}
}

func TestListAssigned_OnlyNonTerminalForDriver(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))

	mine := pendingRequest("req-1", "cust-1")
	mine.Status = domain.RideStatusAccepted
	mine.DriverID = "driver-1"
	f.rideRepo.AddRequest(mine)

	done := pendingRequest("req-2", "cust-2")
	done.Status = domain.RideStatusCompleted
	done.DriverID = "driver-1"
	f.rideRepo.AddRequest(done)

	other := pendingRequest("req-3", "cust-3")
	other.Status = domain.RideStatusAccepted
	other.DriverID = "driver-2"
	f.rideRepo.AddRequest(other)

	list, err := f.dispatch.ListAssigned(ctx, "driver-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "req-1" {
		t.Errorf("assigned view = %d items, want only req-1", len(list))
	}
}

func TestWatchPending_DeliversSnapshotThenUpdates(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))
	f.presence.SetOnline(ctx, "driver-1")
	f.rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	watch, err := f.dispatch.WatchPending(ctx, "driver-1")
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	defer watch.Close()

	// Initial snapshot arrives without any change signal.
	snapshot := awaitSnapshot(t, watch)
	if len(snapshot) != 1 {
		t.Fatalf("initial snapshot = %d items, want 1", len(snapshot))
	}

	// A new request plus a change signal produces a replacement snapshot.
	f.rideRepo.AddRequest(pendingRequest("req-2", "cust-2"))
	f.feed.NotifyChanged(ctx)

	snapshot = awaitSnapshot(t, watch)
	if len(snapshot) != 2 {
		t.Fatalf("updated snapshot = %d items, want 2", len(snapshot))
	}
}

func TestWatchPending_ReopenedWatchGetsCurrentState(t *testing.T) {
	ctx := context.Background()
	f := newDispatchFixture()

	f.driverRepo.AddDriver(approvedDriver("driver-1", "Sipho M"))
	f.presence.SetOnline(ctx, "driver-1")
	f.rideRepo.AddRequest(pendingRequest("req-1", "cust-1"))

	first, err := f.dispatch.WatchPending(ctx, "driver-1")
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	awaitSnapshot(t, first)
	first.Close()

	// Changes between watches are not lost: the new watch starts from the
	// current queue, not from a replayed diff.
	f.rideRepo.AddRequest(pendingRequest("req-2", "cust-2"))

	second, err := f.dispatch.WatchPending(ctx, "driver-1")
	if err != nil {
		t.Fatalf("re-watch failed: %v", err)
	}
	defer second.Close()

	snapshot := awaitSnapshot(t, second)
	if len(snapshot) != 2 {
		t.Fatalf("re-opened snapshot = %d items, want 2", len(snapshot))
	}
}

func awaitSnapshot(t *testing.T, watch *service.PendingWatch) []*domain.RideRequest {
	t.Helper()
	select {
	case snapshot, ok := <-watch.Snapshots():
		if !ok {
			t.Fatal("snapshot channel closed")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}
