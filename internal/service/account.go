package service

import (
	"context"
	"errors"
	"io"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"

	"haul/internal/auth"
	"haul/internal/domain"
	"haul/internal/imagehost"
	"haul/internal/repository"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
)

// AccountService handles customer and driver accounts: signup, sign-in,
// the driver application flow and profile edits.
type AccountService struct {
	customerRepo repository.CustomerRepository
	driverRepo   repository.DriverRepository
	tokens       *auth.TokenIssuer
	uploader     imagehost.Uploader
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	customerRepo repository.CustomerRepository,
	driverRepo repository.DriverRepository,
	tokens *auth.TokenIssuer,
	uploader imagehost.Uploader,
) *AccountService {
	return &AccountService{
		customerRepo: customerRepo,
		driverRepo:   driverRepo,
		tokens:       tokens,
		uploader:     uploader,
	}
}

// RegisterCustomerInput contains the parameters for customer signup.
type RegisterCustomerInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// AuthResult is a signed-in identity plus its session token.
type AuthResult struct {
	ActorID string
	Token   string
}

// RegisterCustomer validates input, hashes the password and creates the
// account, returning a signed session token.
func (s *AccountService) RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (*AuthResult, error) {
	if !emailPattern.MatchString(input.Email) {
		return nil, ErrInvalidEmail
	}
	if !phonePattern.MatchString(input.Phone) {
		return nil, ErrInvalidPhone
	}
	if len(input.Password) < 8 {
		return nil, ErrShortPassword
	}

	existing, err := s.customerRepo.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	customer := &domain.CustomerAccount{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(customer.ID, auth.RoleCustomer)
	if err != nil {
		return nil, err
	}

	return &AuthResult{ActorID: customer.ID, Token: token}, nil
}

// LoginCustomer verifies credentials and issues a session token.
func (s *AccountService) LoginCustomer(ctx context.Context, email, password string) (*AuthResult, error) {
	customer, err := s.customerRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(customer.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(customer.ID, auth.RoleCustomer)
	if err != nil {
		return nil, err
	}

	return &AuthResult{ActorID: customer.ID, Token: token}, nil
}

// ChangeCustomerPassword replaces a customer's password after verifying the
// current one.
func (s *AccountService) ChangeCustomerPassword(ctx context.Context, customerID, current, next string) error {
	if len(next) < 8 {
		return ErrShortPassword
	}

	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(customer.PasswordHash, current) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}

	return s.customerRepo.UpdatePassword(ctx, customerID, hash)
}

// RegisterDriverInput contains the parameters for driver signup. A fresh
// driver starts NOT_APPLIED and must submit an application before seeing
// the dispatch queue.
type RegisterDriverInput struct {
	FullName string
	Phone    string
	Password string
}

// RegisterDriver creates a driver profile and issues a session token.
func (s *AccountService) RegisterDriver(ctx context.Context, input RegisterDriverInput) (*AuthResult, error) {
	if !phonePattern.MatchString(input.Phone) {
		return nil, ErrInvalidPhone
	}
	if len(input.Password) < 8 {
		return nil, ErrShortPassword
	}

	existing, err := s.driverRepo.GetByPhone(ctx, input.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneInUse
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	driver := &domain.DriverProfile{
		ID:           uuid.New().String(),
		FullName:     input.FullName,
		Phone:        input.Phone,
		PasswordHash: hash,
		Approval:     domain.ApprovalNotApplied,
		CreatedAt:    time.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(driver.ID, auth.RoleDriver)
	if err != nil {
		return nil, err
	}

	return &AuthResult{ActorID: driver.ID, Token: token}, nil
}

// LoginDriver verifies credentials and issues a session token.
func (s *AccountService) LoginDriver(ctx context.Context, phone, password string) (*AuthResult, error) {
	driver, err := s.driverRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(driver.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(driver.ID, auth.RoleDriver)
	if err != nil {
		return nil, err
	}

	return &AuthResult{ActorID: driver.ID, Token: token}, nil
}

// DriverApplicationInput contains the driver vetting application. Document
// images are uploaded to the image host and their hosted URLs stored on the
// profile.
type DriverApplicationInput struct {
	DriverID   string
	FullName   string
	Phone      string
	Address    string
	IDDocument io.Reader // nil if unchanged
	Licence    io.Reader // nil if unchanged
}

// SubmitApplication records a driver's vetting application and moves the
// profile to PENDING approval.
func (s *AccountService) SubmitApplication(ctx context.Context, input DriverApplicationInput) (*domain.DriverProfile, error) {
	if input.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if !phonePattern.MatchString(input.Phone) {
		return nil, ErrInvalidPhone
	}

	driver, err := s.driverRepo.GetByID(ctx, input.DriverID)
	if err != nil {
		return nil, err
	}

	driver.FullName = input.FullName
	driver.Phone = input.Phone
	driver.Address = input.Address

	if input.IDDocument != nil && s.uploader != nil {
		url, err := s.uploader.Upload(ctx, "id-"+driver.ID+".jpg", input.IDDocument)
		if err != nil {
			return nil, err
		}
		driver.IDDocumentURL = url
	}
	if input.Licence != nil && s.uploader != nil {
		url, err := s.uploader.Upload(ctx, "licence-"+driver.ID+".jpg", input.Licence)
		if err != nil {
			return nil, err
		}
		driver.LicenceURL = url
	}

	if err := s.driverRepo.Update(ctx, driver); err != nil {
		return nil, err
	}

	if driver.Approval == domain.ApprovalNotApplied {
		if err := s.driverRepo.UpdateApproval(ctx, driver.ID, domain.ApprovalPending); err != nil {
			return nil, err
		}
		driver.Approval = domain.ApprovalPending
	}

	return driver, nil
}

// ApproveDriver grants a pending driver access to the dispatch queue.
func (s *AccountService) ApproveDriver(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	if err := s.driverRepo.UpdateApproval(ctx, driverID, domain.ApprovalApproved); err != nil {
		return err
	}
	log.Printf("driver %s approved", driverID)
	return nil
}

// GetDriver retrieves a driver profile.
func (s *AccountService) GetDriver(ctx context.Context, driverID string) (*domain.DriverProfile, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}
