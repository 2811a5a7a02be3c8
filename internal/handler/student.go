package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/attendance"
	"attendanceportal/internal/gateway"
	"attendanceportal/internal/guard"
)

type studentDashboard struct {
	Attendance []attendance.Entry        `json:"attendance"`
	Profile    *attendance.Profile       `json:"profile,omitempty"`
	Summary    attendance.Summary        `json:"summary"`
	Payment    *attendance.PaymentStatus `json:"payment,omitempty"`
	// PaymentError carries the payment check failure when the attendance
	// fetch itself succeeded; the two calls fail independently.
	PaymentError string `json:"payment_error,omitempty"`
}

// StudentAttendance joins the attendance and payment-check fetches and
// derives the summary stats. Results are applied only if the session that
// issued them is still the current one.
func (h *Handler) StudentAttendance(c *gin.Context) {
	sess := guard.Session(c)
	email := sess.Identity()
	epoch := sess.Epoch()
	ctx := c.Request.Context()

	var (
		wg      sync.WaitGroup
		att     gateway.StudentAttendanceResponse
		attErr  error
		payment attendance.PaymentStatus
		payErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		att, attErr = h.gw.StudentAttendance(ctx, email)
	}()
	go func() {
		defer wg.Done()
		payment, payErr = h.gw.PaymentCheck(ctx, email)
	}()
	wg.Wait()

	if !sess.StillValid(epoch) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "session ended"})
		return
	}
	if attErr != nil {
		h.respondError(c, attErr)
		return
	}

	entries := att.Attendance
	if entries == nil {
		entries = []attendance.Entry{}
	}
	attendance.Normalize(entries)

	resp := studentDashboard{
		Attendance: entries,
		Profile:    att.Profile,
		Summary:    attendance.Summarize(entries),
	}
	if payErr != nil {
		h.log.Warnf("payment check failed for %s: %v", email, payErr)
		resp.PaymentError = "Failed to check payment status"
	} else {
		resp.Payment = &payment
	}
	c.JSON(http.StatusOK, resp)
}

// FineLookup returns the fine summary for a roll number.
func (h *Handler) FineLookup(c *gin.Context) {
	rollNo := c.Query("roll_no")
	if rollNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "roll_no is required"})
		return
	}
	out, err := h.gw.FineLookup(c.Request.Context(), rollNo)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreatePaymentSession starts a fine-payment checkout for the logged-in
// student and returns the redirect URL.
func (h *Handler) CreatePaymentSession(c *gin.Context) {
	sess := guard.Session(c)
	url, err := h.gw.CreatePaymentSession(c.Request.Context(), sess.Identity())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
