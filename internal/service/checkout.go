package service

import (
	"context"

	"haul/internal/domain"
	"haul/internal/payment"
	"haul/internal/repository"
)

// CheckoutService builds payment redirect URLs for a customer's bookings and
// interprets gateway callbacks.
type CheckoutService struct {
	rideRepo repository.RideRequestRepository
	gateway  *payment.Gateway
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(rideRepo repository.RideRequestRepository, gateway *payment.Gateway) *CheckoutService {
	return &CheckoutService{
		rideRepo: rideRepo,
		gateway:  gateway,
	}
}

// CheckoutURL returns the redirect URL for paying a customer's booking.
// Declined bookings are not payable.
func (s *CheckoutService) CheckoutURL(ctx context.Context, customerID, bookingID string) (string, error) {
	if customerID == "" {
		return "", ErrInvalidCustomerID
	}
	if bookingID == "" {
		return "", ErrInvalidRequestID
	}

	booking, err := s.rideRepo.GetBooking(ctx, customerID, bookingID)
	if err != nil {
		return "", err
	}

	if booking.Status == domain.RideStatusDeclined || booking.Status == domain.RideStatusDriverDeclined {
		return "", ErrNotPayable
	}
	if booking.Price <= 0 {
		return "", ErrInvalidAmount
	}

	return s.gateway.CheckoutURL(booking.ID, booking.Price), nil
}

// ClassifyCallback maps a gateway callback URL to its outcome. The outcome
// is taken at face value; the gateway integration has no server-side receipt
// verification (see DESIGN.md).
func (s *CheckoutService) ClassifyCallback(rawURL string) payment.Outcome {
	return s.gateway.ClassifyCallback(rawURL)
}
