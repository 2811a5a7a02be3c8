package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"attendanceportal/internal/attendance"
)

// Client calls the external attendance backend. The backend owns all
// business logic; this client only moves JSON across the wire.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// MessageResponse is the backend's generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// StudentAttendanceResponse pairs the entries with the optional profile.
type StudentAttendanceResponse struct {
	Attendance []attendance.Entry  `json:"attendance"`
	Profile    *attendance.Profile `json:"profile,omitempty"`
}

// SendOTP asks the backend to mail a one-time password to email.
func (c *Client) SendOTP(ctx context.Context, email string) (MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, "send_otp", http.MethodPost, "/api/send-otp", map[string]string{"email": email}, &out)
	return out, err
}

// VerifyOTP checks the one-time password for email.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, "verify_otp", http.MethodPost, "/api/verify-otp", map[string]string{"email": email, "otp": otp}, &out)
	return out, err
}

// AdminLogin validates admin credentials.
func (c *Client) AdminLogin(ctx context.Context, username, password string) (MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, "admin_login", http.MethodPost, "/api/admin/login", map[string]string{"username": username, "password": password}, &out)
	return out, err
}

// Holidays lists all holidays. An empty list is a valid result.
func (c *Client) Holidays(ctx context.Context) ([]attendance.Holiday, error) {
	var out []attendance.Holiday
	if err := c.do(ctx, "get_holidays", http.MethodGet, "/api/get_holidays", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddHoliday creates a holiday.
func (c *Client) AddHoliday(ctx context.Context, date, description string) error {
	return c.do(ctx, "add_holiday", http.MethodPost, "/api/add_holiday", map[string]string{"date": date, "description": description}, nil)
}

// DeleteHoliday removes a holiday by id.
func (c *Client) DeleteHoliday(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_holiday", http.MethodDelete, fmt.Sprintf("/api/delete_holidays/%d", id), nil, nil)
}

// AdminAttendance lists attendance rows across all students.
func (c *Client) AdminAttendance(ctx context.Context) ([]attendance.Record, error) {
	var out []attendance.Record
	if err := c.do(ctx, "admin_attendance", http.MethodGet, "/api/admin/attendance", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StudentAttendance fetches one student's entries and profile.
func (c *Client) StudentAttendance(ctx context.Context, email string) (StudentAttendanceResponse, error) {
	var out StudentAttendanceResponse
	path := "/api/student/attendance?email=" + url.QueryEscape(email)
	err := c.do(ctx, "student_attendance", http.MethodGet, path, nil, &out)
	return out, err
}

// PaymentCheck returns the fine-payment verdict for a student.
func (c *Client) PaymentCheck(ctx context.Context, email string) (attendance.PaymentStatus, error) {
	var out attendance.PaymentStatus
	path := "/api/student/payment_check?email=" + url.QueryEscape(email)
	err := c.do(ctx, "payment_check", http.MethodGet, path, nil, &out)
	return out, err
}

// CreatePaymentSession starts a fine-payment checkout and returns its URL.
func (c *Client) CreatePaymentSession(ctx context.Context, email string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.do(ctx, "create_payment_session", http.MethodPost, "/api/create_payment_session", map[string]string{"email": email}, &out)
	return out.URL, err
}

// FineLookup returns the fine summary for a roll number.
func (c *Client) FineLookup(ctx context.Context, rollNo string) (attendance.FineSummary, error) {
	var out attendance.FineSummary
	path := "/api/attendance?roll_no=" + url.QueryEscape(rollNo)
	err := c.do(ctx, "fine_lookup", http.MethodGet, path, nil, &out)
	return out, err
}

// Health probes the backend root.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/api/get_holidays", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, body, out)
	outcome := "ok"
	switch err.(type) {
	case *RemoteError:
		outcome = "remote_error"
	case *NetworkError:
		outcome = "network_error"
	default:
		if err != nil {
			outcome = "decode_error"
		}
	}
	observe(op, outcome, time.Since(start).Seconds())
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &RemoteError{Status: resp.StatusCode, Message: remoteMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// remoteMessage extracts the server message from an error body. The
// backend uses "message" on auth routes and "error" on holiday routes.
func remoteMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return string(raw)
}
