package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/middleware"
	"haul/internal/service"
)

// CustomerHandler handles customer account requests.
type CustomerHandler struct {
	accounts *service.AccountService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(accounts *service.AccountService) *CustomerHandler {
	return &CustomerHandler{accounts: accounts}
}

// RegisterCustomerRequest is the HTTP request body for customer signup.
type RegisterCustomerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginCustomerRequest is the HTTP request body for customer sign-in.
type LoginCustomerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a signed-in identity and its session token.
type AuthResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Register handles POST /v1/customers/register
func (h *CustomerHandler) Register(c *gin.Context) {
	var req RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.accounts.RegisterCustomer(c.Request.Context(), service.RegisterCustomerInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, AuthResponse{ID: result.ActorID, Token: result.Token})
}

// Login handles POST /v1/customers/login
func (h *CustomerHandler) Login(c *gin.Context) {
	var req LoginCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.accounts.LoginCustomer(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AuthResponse{ID: result.ActorID, Token: result.Token})
}

// ChangePasswordRequest is the HTTP request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles POST /v1/customers/password
func (h *CustomerHandler) ChangePassword(c *gin.Context) {
	session := middleware.SessionFrom(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.accounts.ChangeCustomerPassword(c.Request.Context(), session.ActorID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
