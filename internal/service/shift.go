package service

import (
	"context"
	"database/sql"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"haul/internal/domain"
	"haul/internal/redis"
	"haul/internal/repository"
	"haul/internal/repository/postgres"
)

// weeklyWindow is the trailing window the summary aggregates over.
const weeklyWindow = 7 * 24 * time.Hour

// ShiftService tracks driver shifts, per-shift earnings and the weekly
// reporting window.
type ShiftService struct {
	db         *sql.DB
	shiftRepo  repository.ShiftRepository
	driverRepo repository.DriverRepository
	presence   redis.PresenceStoreInterface
}

// NewShiftService creates a new ShiftService.
func NewShiftService(
	db *sql.DB,
	shiftRepo repository.ShiftRepository,
	driverRepo repository.DriverRepository,
	presence redis.PresenceStoreInterface,
) *ShiftService {
	return &ShiftService{
		db:         db,
		shiftRepo:  shiftRepo,
		driverRepo: driverRepo,
		presence:   presence,
	}
}

// GoOnline opens a shift for the driver and marks them present on the
// dispatch queue. The active shift id is persisted on the profile so it
// survives a process restart.
func (s *ShiftService) GoOnline(ctx context.Context, driverID string) (*domain.DriverShift, error) {
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

	existing, err := s.shiftRepo.GetActiveByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrShiftAlreadyActive
	}

	now := time.Now()
	shift := &domain.DriverShift{
		// Creation timestamp keys the shift, matching the booking
		// records drivers see in their history.
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		DriverID:  driverID,
		StartTime: now,
	}

	if err := s.shiftRepo.Create(ctx, shift); err != nil {
		return nil, err
	}

	if err := s.driverRepo.SetActiveShift(ctx, driverID, shift.ID); err != nil {
		return nil, err
	}

	if s.presence != nil {
		if err := s.presence.SetOnline(ctx, driverID); err != nil {
			log.Printf("presence set online for driver %s failed: %v", driverID, err)
		}
	}

	return shift, nil
}

// GoOffline closes the driver's active shift. The shift record is kept; only
// the weekly rollover retires it from the active window.
func (s *ShiftService) GoOffline(ctx context.Context, driverID string) (*domain.DriverShift, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	shift, err := s.shiftRepo.GetActiveByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoActiveShift
	}

	now := time.Now()
	if err := s.shiftRepo.End(ctx, shift.ID, now); err != nil {
		return nil, err
	}
	shift.EndTime = now

	if err := s.driverRepo.SetActiveShift(ctx, driverID, ""); err != nil {
		return nil, err
	}

	if s.presence != nil {
		if err := s.presence.SetOffline(ctx, driverID); err != nil {
			log.Printf("presence set offline for driver %s failed: %v", driverID, err)
		}
	}

	return shift, nil
}

// RecordCompletion attributes a completed ride's price to a shift. The
// increment happens in the database in one statement, so concurrent
// completions cannot lose updates.
func (s *ShiftService) RecordCompletion(ctx context.Context, shiftID string, ridePrice float64) error {
	if shiftID == "" {
		return ErrInvalidShiftID
	}
	return s.shiftRepo.AddCompletion(ctx, shiftID, ridePrice)
}

// WeeklySummary aggregates a driver's shifts started within the trailing
// seven days of now. Recomputed on every call, never cached.
func (s *ShiftService) WeeklySummary(ctx context.Context, driverID string, now time.Time) (*domain.WeeklySummary, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	windowStart := now.Add(-weeklyWindow)
	shifts, err := s.shiftRepo.ListSince(ctx, driverID, windowStart)
	if err != nil {
		return nil, err
	}

	summary := &domain.WeeklySummary{
		DriverID:    driverID,
		WindowStart: windowStart,
	}
	for _, shift := range shifts {
		summary.CompletedRides += shift.CompletedRides
		summary.TotalEarnings += shift.TotalEarnings
		summary.ShiftCount++
	}

	return summary, nil
}

// rolloverDue reports whether the weekly rollover should fire at now, given
// the persisted last run. The designated instant is Sunday 23:59 local. The
// check is against the most recent instant already passed, not the current
// weekday, so a check that lands late (a restart, a retried failure, a timer
// drifting past midnight) still fires for the missed instant; the persisted
// marker guarantees at most one run per instant across restarts.
func rolloverDue(now, lastRun time.Time) bool {
	return lastRun.Before(lastRolloverInstant(now))
}

// lastRolloverInstant returns the most recent Sunday 23:59 local at or
// before now.
func lastRolloverInstant(now time.Time) time.Time {
	daysBack := int(now.Weekday() - time.Sunday)
	candidate := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location()).
		AddDate(0, 0, -daysBack)
	if candidate.After(now) {
		candidate = candidate.AddDate(0, 0, -7)
	}
	return candidate
}

// Rollover exports every unretired shift into per-driver weekly reports and
// retires them from the active window, if the designated weekly instant has
// passed and rollover has not yet run this week.
func (s *ShiftService) Rollover(ctx context.Context, now time.Time) error {
	lastRun, err := s.shiftRepo.LastRollover(ctx)
	if err != nil {
		return err
	}
	if !rolloverDue(now, lastRun) {
		return nil
	}

	shifts, err := s.shiftRepo.ListUnrolled(ctx)
	if err != nil {
		return err
	}
	shifts = closedShifts(shifts)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txShiftRepo := postgres.NewShiftRepositoryWithTx(tx)

	byDriver := make(map[string][]*domain.DriverShift)
	for _, shift := range shifts {
		byDriver[shift.DriverID] = append(byDriver[shift.DriverID], shift)
	}

	var retired []string
	for driverID, driverShifts := range byDriver {
		report := &domain.WeeklyReport{
			ID:         uuid.New().String(),
			DriverID:   driverID,
			WeekEnding: now,
			CreatedAt:  now,
		}
		for _, shift := range driverShifts {
			report.CompletedRides += shift.CompletedRides
			report.TotalEarnings += shift.TotalEarnings
			report.ShiftCount++
			retired = append(retired, shift.ID)
		}
		if err = txShiftRepo.CreateReport(ctx, report); err != nil {
			return err
		}
	}

	if err = txShiftRepo.MarkRolledOver(ctx, retired, now); err != nil {
		return err
	}

	if err = txShiftRepo.SetLastRollover(ctx, now); err != nil {
		return err
	}

	return tx.Commit()
}

// RunRolloverScheduler drives Rollover off the wall clock until ctx is
// cancelled. Rollover runs at the top of every cycle, so a process that
// starts (or restarts) after a missed instant exports immediately instead
// of waiting for the next one. A failed run is retried after a minute
// rather than at the next instant; rolloverDue keeps the retry idempotent.
func (s *ShiftService) RunRolloverScheduler(ctx context.Context) {
	for {
		wait := time.Until(nextRolloverInstant(time.Now()))
		if err := s.Rollover(ctx, time.Now()); err != nil {
			log.Printf("weekly rollover failed: %v", err)
			wait = time.Minute
		}
		if wait < time.Minute {
			wait = time.Minute
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// closedShifts filters out shifts still open at export time. An open shift
// keeps accumulating completions, so retiring it would strand any earnings
// recorded after the export; it stays in the active window and rolls over
// once closed.
func closedShifts(shifts []*domain.DriverShift) []*domain.DriverShift {
	closed := make([]*domain.DriverShift, 0, len(shifts))
	for _, shift := range shifts {
		if !shift.Active() {
			closed = append(closed, shift)
		}
	}
	return closed
}

// nextRolloverInstant returns the next Sunday 23:59 local at or after now.
func nextRolloverInstant(now time.Time) time.Time {
	daysAhead := (int(time.Sunday) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location()).
		AddDate(0, 0, daysAhead)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}
