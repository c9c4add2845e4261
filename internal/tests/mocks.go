package tests

import (
	"context"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"haul/internal/domain"
	"haul/internal/geocode"
	"haul/internal/redis"
	"haul/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRideRequestRepository is a mock implementation of
// RideRequestRepository. It keeps the dispatch-queue copies and the private
// booking copies in separate maps, like the real store.
type MockRideRequestRepository struct {
	mu       sync.RWMutex
	queue    map[string]*domain.RideRequest
	bookings map[string]*domain.RideRequest // keyed by CustomerBookingID

	// Counters for verification
	CreateCallCount        int32
	UpdateStatusCallCount  int32
	UpdateBookingCallCount int32

	// Error injection
	CreateError        error
	CreateBookingError error
	UpdateStatusError  error
	UpdateBookingError error
}

// NewMockRideRequestRepository creates a new mock ride request repository.
func NewMockRideRequestRepository() *MockRideRequestRepository {
	return &MockRideRequestRepository{
		queue:    make(map[string]*domain.RideRequest),
		bookings: make(map[string]*domain.RideRequest),
	}
}

// AddRequest seeds both copies of a request, as creation would.
func (m *MockRideRequestRepository) AddRequest(req *domain.RideRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queueCopy := *req
	m.queue[req.ID] = &queueCopy
	if req.CustomerBookingID != "" {
		bookingCopy := *req
		m.bookings[req.CustomerBookingID] = &bookingCopy
	}
}

func (m *MockRideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *req
	m.queue[req.ID] = &copy
	return nil
}

func (m *MockRideRequestRepository) CreateBooking(ctx context.Context, req *domain.RideRequest) error {
	if m.CreateBookingError != nil {
		return m.CreateBookingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *req
	m.bookings[req.CustomerBookingID] = &copy
	return nil
}

func (m *MockRideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.queue[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *req
	return &copy, nil
}

func (m *MockRideRequestRepository) GetBooking(ctx context.Context, customerID, bookingID string) (*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[bookingID]
	if !ok || booking.CustomerID != customerID {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockRideRequestRepository) ListPending(ctx context.Context) ([]*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.RideRequest, 0)
	for _, r := range m.queue {
		if r.Status == domain.RideStatusPending {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BookingTime.Before(result[j].BookingTime)
	})
	return result, nil
}

func (m *MockRideRequestRepository) ListAssigned(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.RideRequest, 0)
	for _, r := range m.queue {
		if r.DriverID == driverID && !r.Terminal() {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRequestRepository) ListBookings(ctx context.Context, customerID string) ([]*domain.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.RideRequest, 0)
	for _, b := range m.bookings {
		if b.CustomerID == customerID {
			copy := *b
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BookingTime.After(result[j].BookingTime)
	})
	return result, nil
}

func (m *MockRideRequestRepository) UpdateStatusIf(ctx context.Context, req *domain.RideRequest, expected domain.RideStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.queue[req.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != expected {
		return repository.ErrStaleStatus
	}
	copy := *req
	m.queue[req.ID] = &copy
	return nil
}

func (m *MockRideRequestRepository) UpdateBooking(ctx context.Context, req *domain.RideRequest) error {
	atomic.AddInt32(&m.UpdateBookingCallCount, 1)
	if m.UpdateBookingError != nil {
		return m.UpdateBookingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[req.CustomerBookingID]
	if !ok {
		return repository.ErrNotFound
	}
	copy := *req
	copy.Status = domain.MirrorStatus(req.Status)
	copy.CustomerID = stored.CustomerID
	m.bookings[req.CustomerBookingID] = &copy
	return nil
}

// GetQueueCopy returns the dispatch-queue copy for assertions.
func (m *MockRideRequestRepository) GetQueueCopy(id string) *domain.RideRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queue[id]
}

// GetBookingCopy returns the private booking copy for assertions.
func (m *MockRideRequestRepository) GetBookingCopy(bookingID string) *domain.RideRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[bookingID]
}

// ──────────────────────────────────────────────
// MOCK SHIFT REPOSITORY
// ──────────────────────────────────────────────

// MockShiftRepository is a mock implementation of ShiftRepository.
type MockShiftRepository struct {
	mu      sync.RWMutex
	shifts  map[string]*domain.DriverShift
	reports map[string]*domain.WeeklyReport
	lastRun time.Time

	// Counters for verification
	AddCompletionCallCount int32
	CreateReportCallCount  int32

	// Error injection
	CreateError        error
	AddCompletionError error
}

// NewMockShiftRepository creates a new mock shift repository.
func NewMockShiftRepository() *MockShiftRepository {
	return &MockShiftRepository{
		shifts:  make(map[string]*domain.DriverShift),
		reports: make(map[string]*domain.WeeklyReport),
	}
}

// AddShift adds a shift to the mock repository.
func (m *MockShiftRepository) AddShift(shift *domain.DriverShift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[shift.ID] = shift
}

func (m *MockShiftRepository) Create(ctx context.Context, shift *domain.DriverShift) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *shift
	m.shifts[shift.ID] = &copy
	return nil
}

func (m *MockShiftRepository) GetByID(ctx context.Context, id string) (*domain.DriverShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shift, ok := m.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *shift
	return &copy, nil
}

func (m *MockShiftRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.DriverShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shifts {
		if s.DriverID == driverID && s.EndTime.IsZero() {
			copy := *s
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockShiftRepository) End(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	shift, ok := m.shifts[id]
	if !ok {
		return repository.ErrNotFound
	}
	shift.EndTime = at
	return nil
}

func (m *MockShiftRepository) AddCompletion(ctx context.Context, id string, price float64) error {
	atomic.AddInt32(&m.AddCompletionCallCount, 1)
	if m.AddCompletionError != nil {
		return m.AddCompletionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	shift, ok := m.shifts[id]
	if !ok {
		return repository.ErrNotFound
	}
	// Single guarded mutation, mirroring the one-statement SQL increment.
	shift.TotalEarnings += price
	shift.CompletedRides++
	return nil
}

func (m *MockShiftRepository) ListSince(ctx context.Context, driverID string, since time.Time) ([]*domain.DriverShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.DriverShift, 0)
	for _, s := range m.shifts {
		if s.DriverID == driverID && !s.StartTime.Before(since) {
			copy := *s
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockShiftRepository) ListUnrolled(ctx context.Context) ([]*domain.DriverShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.DriverShift, 0)
	for _, s := range m.shifts {
		if s.RolledOverAt.IsZero() {
			copy := *s
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockShiftRepository) MarkRolledOver(ctx context.Context, ids []string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if shift, ok := m.shifts[id]; ok {
			shift.RolledOverAt = at
		}
	}
	return nil
}

func (m *MockShiftRepository) CreateReport(ctx context.Context, report *domain.WeeklyReport) error {
	atomic.AddInt32(&m.CreateReportCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *report
	m.reports[report.ID] = &copy
	return nil
}

func (m *MockShiftRepository) LastRollover(ctx context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun, nil
}

func (m *MockShiftRepository) SetLastRollover(ctx context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRun = at
	return nil
}

// GetShift returns the shift by ID for assertions.
func (m *MockShiftRepository) GetShift(id string) *domain.DriverShift {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shifts[id]
}

// GetReports returns all weekly reports for assertions.
func (m *MockShiftRepository) GetReports() []*domain.WeeklyReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.WeeklyReport, 0, len(m.reports))
	for _, r := range m.reports {
		result = append(result, r)
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.DriverProfile

	// Error injection
	CreateError  error
	GetByIDError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.DriverProfile),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.DriverProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.DriverProfile) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.DriverProfile, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.DriverProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Phone == phone {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) Update(ctx context.Context, driver *domain.DriverProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.drivers[driver.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.FullName = driver.FullName
	stored.Phone = driver.Phone
	stored.Address = driver.Address
	stored.Approval = driver.Approval
	stored.IDDocumentURL = driver.IDDocumentURL
	stored.LicenceURL = driver.LicenceURL
	return nil
}

func (m *MockDriverRepository) UpdateApproval(ctx context.Context, id string, status domain.ApprovalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Approval = status
	return nil
}

func (m *MockDriverRepository) SetActiveShift(ctx context.Context, id, shiftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.ActiveShiftID = shiftID
	return nil
}

// GetDriver returns the driver for assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.DriverProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK CUSTOMER REPOSITORY
// ──────────────────────────────────────────────

// MockCustomerRepository is a mock implementation of CustomerRepository.
type MockCustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*domain.CustomerAccount
}

// NewMockCustomerRepository creates a new mock customer repository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]*domain.CustomerAccount),
	}
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.CustomerAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *customer
	m.customers[customer.ID] = &copy
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	customer, ok := m.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *customer
	return &copy, nil
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.customers {
		if c.Email == email {
			copy := *c
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockCustomerRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	customer, ok := m.customers[id]
	if !ok {
		return repository.ErrNotFound
	}
	customer.PasswordHash = passwordHash
	return nil
}

// ──────────────────────────────────────────────
// MOCK PRESENCE STORE
// ──────────────────────────────────────────────

// MockPresenceStore is a mock implementation of PresenceStoreInterface.
type MockPresenceStore struct {
	mu     sync.RWMutex
	online map[string]bool

	// Error injection
	IsOnlineError error
}

// NewMockPresenceStore creates a new mock presence store.
func NewMockPresenceStore() *MockPresenceStore {
	return &MockPresenceStore{
		online: make(map[string]bool),
	}
}

func (m *MockPresenceStore) SetOnline(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[driverID] = true
	return nil
}

func (m *MockPresenceStore) SetOffline(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.online, driverID)
	return nil
}

func (m *MockPresenceStore) IsOnline(ctx context.Context, driverID string) (bool, error) {
	if m.IsOnlineError != nil {
		return false, m.IsOnlineError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online[driverID], nil
}

func (m *MockPresenceStore) OnlineDrivers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, 0, len(m.online))
	for id := range m.online {
		result = append(result, id)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireRequestLock(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[requestID] {
		return false, nil
	}
	m.locks[requestID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseRequestLock(ctx context.Context, requestID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, requestID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK QUEUE FEED
// ──────────────────────────────────────────────

// MockQueueFeed is a mock implementation of QueueFeedInterface. Notify
// fans a signal out to every live subscription, like the pub/sub channel.
type MockQueueFeed struct {
	mu   sync.Mutex
	subs []*mockQueueSubscription

	// Counters for verification
	NotifyCallCount int32
}

// NewMockQueueFeed creates a new mock queue feed.
func NewMockQueueFeed() *MockQueueFeed {
	return &MockQueueFeed{}
}

func (m *MockQueueFeed) NotifyChanged(ctx context.Context) error {
	atomic.AddInt32(&m.NotifyCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		sub.signal()
	}
	return nil
}

func (m *MockQueueFeed) Subscribe(ctx context.Context) (redis.QueueSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &mockQueueSubscription{ch: make(chan struct{}, 1)}
	m.subs = append(m.subs, sub)
	return sub, nil
}

type mockQueueSubscription struct {
	mu     sync.Mutex
	ch     chan struct{}
	closed bool
}

func (s *mockQueueSubscription) signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// Coalesce: a pending signal already forces a re-fetch.
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *mockQueueSubscription) Changes() <-chan struct{} {
	return s.ch
}

func (s *mockQueueSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK GEOCODER
// ──────────────────────────────────────────────

// MockResolver is a mock implementation of geocode.Resolver backed by a
// fixed address table.
type MockResolver struct {
	mu     sync.RWMutex
	coords map[string]domain.Coordinates
}

// NewMockResolver creates a new mock resolver.
func NewMockResolver() *MockResolver {
	return &MockResolver{
		coords: make(map[string]domain.Coordinates),
	}
}

// AddAddress registers a resolvable address.
func (m *MockResolver) AddAddress(address string, lat, lng float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coords[address] = domain.Coordinates{Lat: lat, Lng: lng}
}

func (m *MockResolver) Resolve(ctx context.Context, address string) (*domain.Coordinates, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coords, ok := m.coords[address]
	if !ok {
		return nil, geocode.ErrNoMatch
	}
	copy := coords
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK UPLOADER
// ──────────────────────────────────────────────

// MockUploader is a mock implementation of imagehost.Uploader.
type MockUploader struct {
	// Counters for verification
	UploadCallCount int32

	// Error injection
	UploadError error
}

// NewMockUploader creates a new mock uploader.
func NewMockUploader() *MockUploader {
	return &MockUploader{}
}

func (m *MockUploader) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	atomic.AddInt32(&m.UploadCallCount, 1)
	if m.UploadError != nil {
		return "", m.UploadError
	}
	return "https://images.example/" + filename, nil
}
