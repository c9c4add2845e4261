package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"haul/internal/domain"
	"haul/internal/middleware"
	"haul/internal/repository"
	"haul/internal/service"
)

// RideHandler handles the customer side of the booking lifecycle.
type RideHandler struct {
	lifecycle *service.LifecycleService
	checkout  *service.CheckoutService
	rideRepo  repository.RideRequestRepository
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(lifecycle *service.LifecycleService, checkout *service.CheckoutService, rideRepo repository.RideRequestRepository) *RideHandler {
	return &RideHandler{
		lifecycle: lifecycle,
		checkout:  checkout,
		rideRepo:  rideRepo,
	}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	Pickup  string `json:"pickup"`
	Dropoff string `json:"dropoff"`
	Vehicle string `json:"vehicle"`
}

// BookingResponse is the HTTP representation of a ride request.
type BookingResponse struct {
	ID          string   `json:"id"`
	BookingID   string   `json:"booking_id"`
	Pickup      string   `json:"pickup"`
	Dropoff     string   `json:"dropoff"`
	PickupLat   *float64 `json:"pickup_lat,omitempty"`
	PickupLng   *float64 `json:"pickup_lng,omitempty"`
	DropoffLat  *float64 `json:"dropoff_lat,omitempty"`
	DropoffLng  *float64 `json:"dropoff_lng,omitempty"`
	Vehicle     string   `json:"vehicle"`
	Price       float64  `json:"price"`
	Status      string   `json:"status"`
	DriverName  string   `json:"driver_name,omitempty"`
	BookingTime string   `json:"booking_time"`
	AcceptedAt  string   `json:"accepted_at,omitempty"`
	CompletedAt string   `json:"completed_at,omitempty"`
}

// bookingView maps the domain type onto the wire shape.
func bookingView(r *domain.RideRequest) BookingResponse {
	resp := BookingResponse{
		ID:          r.ID,
		BookingID:   r.CustomerBookingID,
		Pickup:      r.Pickup,
		Dropoff:     r.Dropoff,
		Vehicle:     string(r.Vehicle),
		Price:       r.Price,
		Status:      string(r.Status),
		DriverName:  r.DriverName,
		BookingTime: r.BookingTime.Format(time.RFC3339),
	}
	if r.PickupCoords != nil {
		resp.PickupLat, resp.PickupLng = &r.PickupCoords.Lat, &r.PickupCoords.Lng
	}
	if r.DropoffCoords != nil {
		resp.DropoffLat, resp.DropoffLng = &r.DropoffCoords.Lat, &r.DropoffCoords.Lng
	}
	if !r.AcceptedAt.IsZero() {
		resp.AcceptedAt = r.AcceptedAt.Format(time.RFC3339)
	}
	if !r.CompletedAt.IsZero() {
		resp.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// CreateBooking handles POST /v1/bookings
func (h *RideHandler) CreateBooking(c *gin.Context) {
	session := middleware.SessionFrom(c)

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	request, err := h.lifecycle.CreateRequest(c.Request.Context(), service.CreateRequestInput{
		CustomerID: session.ActorID,
		Pickup:     req.Pickup,
		Dropoff:    req.Dropoff,
		Vehicle:    domain.VehicleCategory(req.Vehicle),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, bookingView(request))
}

// ListBookings handles GET /v1/bookings
func (h *RideHandler) ListBookings(c *gin.Context) {
	session := middleware.SessionFrom(c)

	list, err := h.rideRepo.ListBookings(c.Request.Context(), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]BookingResponse, 0, len(list))
	for _, r := range list {
		views = append(views, bookingView(r))
	}
	respondJSON(c, http.StatusOK, views)
}

// GetBooking handles GET /v1/bookings/:id
func (h *RideHandler) GetBooking(c *gin.Context) {
	session := middleware.SessionFrom(c)

	booking, err := h.rideRepo.GetBooking(c.Request.Context(), session.ActorID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, bookingView(booking))
}

// CheckoutResponse carries the gateway redirect URL for a booking.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// Checkout handles GET /v1/bookings/:id/checkout
func (h *RideHandler) Checkout(c *gin.Context) {
	session := middleware.SessionFrom(c)

	url, err := h.checkout.CheckoutURL(c.Request.Context(), session.ActorID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CheckoutResponse{URL: url})
}

// PaymentCallbackResponse reports how a gateway return navigation was
// classified.
type PaymentCallbackResponse struct {
	Outcome string `json:"outcome"`
}

// PaymentCallback handles GET /v1/payments/callback/*outcome
//
// The gateway redirects the paying browser here after checkout. The
// classification reflects navigation only, not settlement.
func (h *RideHandler) PaymentCallback(c *gin.Context) {
	outcome := h.checkout.ClassifyCallback(c.Request.URL.Path)
	respondJSON(c, http.StatusOK, PaymentCallbackResponse{Outcome: string(outcome)})
}
