package handler

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/guard"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
)

type sendOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

// SendOTP validates the email locally and asks the backend to mail a code.
// Malformed input never reaches the backend.
func (h *Handler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || !emailPattern.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid email address"})
		return
	}

	out, err := h.gw.SendOTP(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyOTP confirms the code with the backend and, on success, logs the
// student session in.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || !emailPattern.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid email address"})
		return
	}
	if !otpPattern.MatchString(req.OTP) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "OTP must be 6 digits"})
		return
	}

	out, err := h.gw.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sess := guard.Session(c)
	if err := sess.Login(c.Request.Context(), req.Email); err != nil {
		h.log.Warnf("session cookie write failed for %s: %v", req.Email, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": out.Message, "email": req.Email})
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin checks credentials with the backend and logs the admin
// session in.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password are required"})
		return
	}

	out, err := h.gw.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sess := guard.Session(c)
	if err := sess.Login(c.Request.Context(), req.Username); err != nil {
		h.log.Warnf("admin session cookie write failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": out.Message, "username": req.Username})
}

// Logout clears the session attached to the route's guard. It serves both
// roles; which session is cleared depends on the guard the route mounts.
func (h *Handler) Logout(c *gin.Context) {
	guard.Session(c).Logout(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
