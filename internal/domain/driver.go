package domain

import "time"

// ApprovalStatus represents where a driver stands in the vetting flow.
// Approval gates visibility of the dispatch queue.
type ApprovalStatus string

const (
	ApprovalNotApplied ApprovalStatus = "NOT_APPLIED"
	ApprovalPending    ApprovalStatus = "PENDING"
	ApprovalApproved   ApprovalStatus = "APPROVED"
)

// ParseApprovalStatus validates an approval status string at the boundary.
func ParseApprovalStatus(s string) (ApprovalStatus, bool) {
	switch ApprovalStatus(s) {
	case ApprovalNotApplied, ApprovalPending, ApprovalApproved:
		return ApprovalStatus(s), true
	}
	return "", false
}

// DriverProfile represents a driver in the system.
type DriverProfile struct {
	ID            string
	FullName      string
	Phone         string
	PasswordHash  string
	Address       string
	Approval      ApprovalStatus
	IDDocumentURL string
	LicenceURL    string
	ActiveShiftID string // persisted so the active shift survives restart
	CreatedAt     time.Time
}
