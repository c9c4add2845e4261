package domain

import "time"

// DriverShift is a bounded session of a driver being online.
//
// TotalEarnings and CompletedRides are monotonically incremented counters,
// mutated only by ride-completion events attributed to this shift. A shift
// is closed by setting EndTime; it is never deleted, only retired from the
// active weekly window by the rollover.
type DriverShift struct {
	ID             string
	DriverID       string
	StartTime      time.Time
	EndTime        time.Time // zero while the shift is active
	TotalEarnings  float64
	CompletedRides int
	RolledOverAt   time.Time // zero until exported by a weekly rollover
}

// Active reports whether the shift is still open.
func (s *DriverShift) Active() bool {
	return s.EndTime.IsZero()
}

// WeeklySummary is the read-side aggregation over a driver's recent shifts.
type WeeklySummary struct {
	DriverID       string
	WindowStart    time.Time
	CompletedRides int
	TotalEarnings  float64
	ShiftCount     int
}

// WeeklyReport is the persisted export produced by the Sunday rollover.
type WeeklyReport struct {
	ID             string
	DriverID       string
	WeekEnding     time.Time
	CompletedRides int
	TotalEarnings  float64
	ShiftCount     int
	CreatedAt      time.Time
}
