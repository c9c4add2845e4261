package service

import (
	"context"
	"log"
	"time"

	"haul/internal/domain"
	"haul/internal/redis"
	"haul/internal/repository"
)

const acceptLockTTL = 10 * time.Second

// DispatchService is the driver-facing surface over the shared dispatch
// queue: the live pending/assigned views and the accept, decline and
// complete mutations.
type DispatchService struct {
	rideRepo   repository.RideRequestRepository
	driverRepo repository.DriverRepository
	presence   redis.PresenceStoreInterface
	locks      redis.LockStoreInterface
	feed       redis.QueueFeedInterface
	lifecycle  *LifecycleService
	shifts     *ShiftService
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	rideRepo repository.RideRequestRepository,
	driverRepo repository.DriverRepository,
	presence redis.PresenceStoreInterface,
	locks redis.LockStoreInterface,
	feed redis.QueueFeedInterface,
	lifecycle *LifecycleService,
	shifts *ShiftService,
) *DispatchService {
	return &DispatchService{
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
		presence:   presence,
		locks:      locks,
		feed:       feed,
		lifecycle:  lifecycle,
		shifts:     shifts,
	}
}

// ListPending returns the PENDING requests visible to the driver. An offline
// driver gets an empty list: the view is suppressed, not the subscription.
func (s *DispatchService) ListPending(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if err := s.requireApproved(ctx, driverID); err != nil {
		return nil, err
	}

	online, err := s.presence.IsOnline(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !online {
		return []*domain.RideRequest{}, nil
	}

	return s.rideRepo.ListPending(ctx)
}

// ListAssigned returns the driver's accepted, not yet terminal requests.
func (s *DispatchService) ListAssigned(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.rideRepo.ListAssigned(ctx, driverID)
}

// PendingWatch is a live view over the pending queue. Each delivery on
// Snapshots is a full authoritative snapshot; consumers replace prior state
// rather than diffing. Close must be called on teardown.
type PendingWatch struct {
	snapshots chan []*domain.RideRequest
	sub       redis.QueueSubscription
	cancel    context.CancelFunc
}

// Snapshots returns the snapshot channel. It is closed after Close.
func (w *PendingWatch) Snapshots() <-chan []*domain.RideRequest {
	return w.snapshots
}

// Close tears the watch down and releases the underlying subscription.
func (w *PendingWatch) Close() error {
	w.cancel()
	return w.sub.Close()
}

// WatchPending opens a live pending view for a driver: the current snapshot
// is delivered immediately, then a fresh one after every queue change.
// Re-opening a watch yields the current snapshot plus subsequent changes.
func (s *DispatchService) WatchPending(ctx context.Context, driverID string) (*PendingWatch, error) {
	if err := s.requireApproved(ctx, driverID); err != nil {
		return nil, err
	}

	sub, err := s.feed.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	watch := &PendingWatch{
		snapshots: make(chan []*domain.RideRequest, 1),
		sub:       sub,
		cancel:    cancel,
	}

	go func() {
		defer close(watch.snapshots)

		deliver := func() {
			snapshot, err := s.ListPending(watchCtx, driverID)
			if err != nil {
				log.Printf("pending snapshot for driver %s failed: %v", driverID, err)
				return
			}
			select {
			case watch.snapshots <- snapshot:
			case <-watchCtx.Done():
			}
		}

		deliver()
		for {
			select {
			case <-watchCtx.Done():
				return
			case _, ok := <-sub.Changes():
				if !ok {
					return
				}
				deliver()
			}
		}
	}()

	return watch, nil
}

// Accept claims a pending request for the driver. Exactly one of several
// racing drivers wins; the rest get ErrAlreadyTaken.
func (s *DispatchService) Accept(ctx context.Context, requestID, driverID string) (*TransitionResult, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.Approval != domain.ApprovalApproved {
		return nil, ErrDriverNotApproved
	}

	// The lock keeps racing accepts from both reaching the conditional
	// write; the write itself still decides the winner if the lock store
	// is unavailable or the TTL lapses.
	if s.locks != nil {
		locked, err := s.locks.AcquireRequestLock(ctx, requestID, acceptLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrAlreadyTaken
		}
		defer func() {
			if err := s.locks.ReleaseRequestLock(ctx, requestID); err != nil {
				log.Printf("request lock release for %s failed: %v", requestID, err)
			}
		}()
	}

	return s.lifecycle.Transition(ctx, requestID, domain.RideStatusAccepted, Actor{
		DriverID:   driverID,
		DriverName: driver.FullName,
	})
}

// Decline refuses a pending request. The queue copy becomes DECLINED, the
// private copy DRIVER_DECLINED; the request is not re-queued to other
// drivers.
func (s *DispatchService) Decline(ctx context.Context, requestID, driverID string) (*TransitionResult, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if err := s.requireApproved(ctx, driverID); err != nil {
		return nil, err
	}

	return s.lifecycle.Transition(ctx, requestID, domain.RideStatusDeclined, Actor{
		DriverID: driverID,
	})
}

// Complete finishes an accepted request and attributes its price to the
// driver's active shift.
func (s *DispatchService) Complete(ctx context.Context, requestID, driverID string) (*TransitionResult, error) {
	if requestID == "" {
		return nil, ErrInvalidRequestID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	req, err := s.rideRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.Status == domain.RideStatusAccepted && req.DriverID != driverID {
		return nil, ErrNotRequestDriver
	}

	result, err := s.lifecycle.Transition(ctx, requestID, domain.RideStatusCompleted, Actor{
		DriverID: driverID,
	})
	if err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		// The transition is already committed; from here attribution is
		// best effort, like the increment below.
		log.Printf("driver lookup for earnings attribution failed: %v", err)
		return result, nil
	}
	if driver.ActiveShiftID != "" {
		if err := s.shifts.RecordCompletion(ctx, driver.ActiveShiftID, result.Request.Price); err != nil {
			// The ride is complete either way; earnings attribution
			// failing is its own problem to surface.
			log.Printf("earnings attribution for shift %s failed: %v", driver.ActiveShiftID, err)
		}
	}

	return result, nil
}

func (s *DispatchService) requireApproved(ctx context.Context, driverID string) error {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if driver.Approval != domain.ApprovalApproved {
		return ErrDriverNotApproved
	}
	return nil
}
