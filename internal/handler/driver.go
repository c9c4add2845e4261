package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"haul/internal/domain"
	"haul/internal/middleware"
	"haul/internal/service"
)

// DriverHandler handles driver account, shift and dispatch requests.
type DriverHandler struct {
	accounts *service.AccountService
	dispatch *service.DispatchService
	shifts   *service.ShiftService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(accounts *service.AccountService, dispatch *service.DispatchService, shifts *service.ShiftService) *DriverHandler {
	return &DriverHandler{
		accounts: accounts,
		dispatch: dispatch,
		shifts:   shifts,
	}
}

// RegisterDriverRequest is the HTTP request body for driver signup.
type RegisterDriverRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginDriverRequest is the HTTP request body for driver sign-in.
type LoginDriverRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// DriverProfileResponse is the HTTP representation of a driver profile.
type DriverProfileResponse struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address,omitempty"`
	Approval      string `json:"approval"`
	IDDocumentURL string `json:"id_document_url,omitempty"`
	LicenceURL    string `json:"licence_url,omitempty"`
	OnShift       bool   `json:"on_shift"`
}

func driverView(d *domain.DriverProfile) DriverProfileResponse {
	return DriverProfileResponse{
		ID:            d.ID,
		FullName:      d.FullName,
		Phone:         d.Phone,
		Address:       d.Address,
		Approval:      string(d.Approval),
		IDDocumentURL: d.IDDocumentURL,
		LicenceURL:    d.LicenceURL,
		OnShift:       d.ActiveShiftID != "",
	}
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.accounts.RegisterDriver(c.Request.Context(), service.RegisterDriverInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, AuthResponse{ID: result.ActorID, Token: result.Token})
}

// Login handles POST /v1/drivers/login
func (h *DriverHandler) Login(c *gin.Context) {
	var req LoginDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.accounts.LoginDriver(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AuthResponse{ID: result.ActorID, Token: result.Token})
}

// Profile handles GET /v1/drivers/me
func (h *DriverHandler) Profile(c *gin.Context) {
	session := middleware.SessionFrom(c)

	driver, err := h.accounts.GetDriver(c.Request.Context(), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driverView(driver))
}

// SubmitApplication handles POST /v1/drivers/application
//
// The body is multipart/form-data: text fields plus the two vetting
// documents as file parts.
func (h *DriverHandler) SubmitApplication(c *gin.Context) {
	session := middleware.SessionFrom(c)

	input := service.DriverApplicationInput{
		DriverID: session.ActorID,
		FullName: c.PostForm("full_name"),
		Phone:    c.PostForm("phone"),
		Address:  c.PostForm("address"),
	}

	if file, err := c.FormFile("id_document"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable id document"})
			return
		}
		defer f.Close()
		input.IDDocument = f
	}
	if file, err := c.FormFile("licence"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable licence"})
			return
		}
		defer f.Close()
		input.Licence = f
	}

	driver, err := h.accounts.SubmitApplication(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driverView(driver))
}

// Approve handles POST /v1/admin/drivers/:id/approve
func (h *DriverHandler) Approve(c *gin.Context) {
	if err := h.accounts.ApproveDriver(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ShiftResponse is the HTTP representation of a driver shift.
type ShiftResponse struct {
	ID             string  `json:"id"`
	DriverID       string  `json:"driver_id"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time,omitempty"`
	TotalEarnings  float64 `json:"total_earnings"`
	CompletedRides int     `json:"completed_rides"`
}

func shiftView(s *domain.DriverShift) ShiftResponse {
	resp := ShiftResponse{
		ID:             s.ID,
		DriverID:       s.DriverID,
		StartTime:      s.StartTime.Format(time.RFC3339),
		TotalEarnings:  s.TotalEarnings,
		CompletedRides: s.CompletedRides,
	}
	if !s.EndTime.IsZero() {
		resp.EndTime = s.EndTime.Format(time.RFC3339)
	}
	return resp
}

// GoOnline handles POST /v1/drivers/online
func (h *DriverHandler) GoOnline(c *gin.Context) {
	session := middleware.SessionFrom(c)

	shift, err := h.shifts.GoOnline(c.Request.Context(), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, shiftView(shift))
}

// GoOffline handles POST /v1/drivers/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	session := middleware.SessionFrom(c)

	shift, err := h.shifts.GoOffline(c.Request.Context(), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, shiftView(shift))
}

// ListPending handles GET /v1/drivers/queue
func (h *DriverHandler) ListPending(c *gin.Context) {
	session := middleware.SessionFrom(c)

	list, err := h.dispatch.ListPending(c.Request.Context(), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, queueViews(list))
}

// ListAssigned handles GET /v1/drivers/assigned
func (h *DriverHandler) ListAssigned(c *gin.Context) {
	session := middleware.SessionFrom(c)

	list, err := h.dispatch.ListAssigned(c.Request.Context(), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, queueViews(list))
}

// TransitionResponse reports the outcome of an accept/decline/complete.
type TransitionResponse struct {
	Request       BookingResponse `json:"request"`
	MirrorApplied bool            `json:"mirror_applied"`
}

func transitionView(result *service.TransitionResult) TransitionResponse {
	return TransitionResponse{
		Request:       bookingView(result.Request),
		MirrorApplied: result.MirrorApplied,
	}
}

// Accept handles POST /v1/requests/:id/accept
func (h *DriverHandler) Accept(c *gin.Context) {
	session := middleware.SessionFrom(c)

	result, err := h.dispatch.Accept(c.Request.Context(), c.Param("id"), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, transitionView(result))
}

// Decline handles POST /v1/requests/:id/decline
func (h *DriverHandler) Decline(c *gin.Context) {
	session := middleware.SessionFrom(c)

	result, err := h.dispatch.Decline(c.Request.Context(), c.Param("id"), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, transitionView(result))
}

// Complete handles POST /v1/requests/:id/complete
func (h *DriverHandler) Complete(c *gin.Context) {
	session := middleware.SessionFrom(c)

	result, err := h.dispatch.Complete(c.Request.Context(), c.Param("id"), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, transitionView(result))
}

// WeeklySummaryResponse is the HTTP representation of a driver's trailing
// seven day earnings.
type WeeklySummaryResponse struct {
	DriverID       string  `json:"driver_id"`
	WindowStart    string  `json:"window_start"`
	CompletedRides int     `json:"completed_rides"`
	TotalEarnings  float64 `json:"total_earnings"`
	ShiftCount     int     `json:"shift_count"`
}

// WeeklySummary handles GET /v1/drivers/summary
func (h *DriverHandler) WeeklySummary(c *gin.Context) {
	session := middleware.SessionFrom(c)

	summary, err := h.shifts.WeeklySummary(c.Request.Context(), session.ActorID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, WeeklySummaryResponse{
		DriverID:       summary.DriverID,
		WindowStart:    summary.WindowStart.Format(time.RFC3339),
		CompletedRides: summary.CompletedRides,
		TotalEarnings:  summary.TotalEarnings,
		ShiftCount:     summary.ShiftCount,
	})
}

// queueViews maps dispatch-queue copies onto the wire shape.
func queueViews(list []*domain.RideRequest) []BookingResponse {
	views := make([]BookingResponse, 0, len(list))
	for _, r := range list {
		views = append(views, bookingView(r))
	}
	return views
}
