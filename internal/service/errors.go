package service

import "errors"

var (
	// ErrEmptyPickupAddress is returned when the pickup address is empty.
	ErrEmptyPickupAddress = errors.New("pickup address is required")

	// ErrEmptyDropoffAddress is returned when the dropoff address is empty.
	ErrEmptyDropoffAddress = errors.New("dropoff address is required")

	// ErrUnknownVehicle is returned when the vehicle category is not one of
	// the fixed set.
	ErrUnknownVehicle = errors.New("unknown vehicle category")

	// ErrUnresolvedPickup is returned when geocoding finds no candidate for
	// the pickup address.
	ErrUnresolvedPickup = errors.New("pickup address could not be resolved, enter a valid address")

	// ErrUnresolvedDropoff is returned when geocoding finds no candidate for
	// the dropoff address.
	ErrUnresolvedDropoff = errors.New("dropoff address could not be resolved, enter a valid address")

	// ErrInvalidCustomerID is returned when the customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidDriverID is returned when the driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidRequestID is returned when the request ID is empty.
	ErrInvalidRequestID = errors.New("invalid request id")

	// ErrInvalidShiftID is returned when the shift ID is empty.
	ErrInvalidShiftID = errors.New("invalid shift id")

	// ErrInvalidTransition is returned when a status change does not match
	// the lifecycle state machine. Nothing is written.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyTaken is returned when an accept arrives after another
	// driver already won the request. A normal, non-fatal outcome.
	ErrAlreadyTaken = errors.New("request already taken by another driver")

	// ErrNotRequestDriver is returned when a driver acts on a request
	// assigned to someone else.
	ErrNotRequestDriver = errors.New("request is assigned to a different driver")

	// ErrDriverNotApproved is returned when an unapproved driver touches
	// the dispatch queue.
	ErrDriverNotApproved = errors.New("driver is not approved")

	// ErrShiftAlreadyActive is returned when a driver goes online with an
	// open shift.
	ErrShiftAlreadyActive = errors.New("driver already has an active shift")

	// ErrNoActiveShift is returned when a driver goes offline without an
	// open shift.
	ErrNoActiveShift = errors.New("driver has no active shift")

	// ErrInvalidCredentials is returned when sign-in fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailInUse is returned when signing up with a registered email.
	ErrEmailInUse = errors.New("email already registered")

	// ErrPhoneInUse is returned when a driver signs up with a registered
	// phone number.
	ErrPhoneInUse = errors.New("phone number already registered")

	// ErrInvalidEmail is returned when the email is malformed.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidPhone is returned when the phone number is malformed.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrShortPassword is returned when the password is under 8 characters.
	ErrShortPassword = errors.New("password must be at least 8 characters")

	// ErrInvalidAmount is returned when a checkout amount is not positive.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrNotPayable is returned when checkout is requested for a declined
	// booking.
	ErrNotPayable = errors.New("request is not in a payable state")
)
