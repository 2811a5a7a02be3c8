package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/attendance"
	"attendanceportal/internal/view"
)

func queryDay(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Time{}, true
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func queryPage(c *gin.Context) int {
	page := 1
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page = parsed
		}
	}
	return page
}

func (h *Handler) filteredRecords(c *gin.Context) ([]attendance.Record, bool) {
	day, ok := queryDay(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date must be YYYY-MM-DD"})
		return nil, false
	}
	records, err := h.gw.AdminAttendance(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	attendance.NormalizeRecords(records)
	f := view.RecordFilter{Query: c.Query("q"), Day: day}
	return f.Apply(records), true
}

// AdminAttendance lists attendance rows, filtered and paginated.
func (h *Handler) AdminAttendance(c *gin.Context) {
	filtered, ok := h.filteredRecords(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view.Paginate(filtered, queryPage(c), h.cfg.PageSize))
}

// AdminAttendanceExport downloads the currently filtered rows as CSV.
func (h *Handler) AdminAttendanceExport(c *gin.Context) {
	filtered, ok := h.filteredRecords(c)
	if !ok {
		return
	}
	data, err := view.RecordsCSV(filtered)
	if err != nil {
		h.log.Errorf("attendance export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "export failed"})
		return
	}
	name := view.ExportFilename("attendance", time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *Handler) filteredHolidays(c *gin.Context) ([]attendance.Holiday, bool) {
	day, ok := queryDay(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date must be YYYY-MM-DD"})
		return nil, false
	}
	holidays, err := h.gw.Holidays(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	f := view.HolidayFilter{Query: c.Query("q"), Day: day}
	return f.Apply(holidays), true
}

// Holidays lists holidays, filtered and paginated.
func (h *Handler) Holidays(c *gin.Context) {
	filtered, ok := h.filteredHolidays(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view.Paginate(filtered, queryPage(c), h.cfg.PageSize))
}

type addHolidayRequest struct {
	Date        string `json:"date" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// AddHoliday creates a holiday through the backend.
func (h *Handler) AddHoliday(c *gin.Context) {
	var req addHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date and description are required"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date must be YYYY-MM-DD"})
		return
	}
	if err := h.gw.AddHoliday(c.Request.Context(), req.Date, req.Description); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Holiday added successfully"})
}

// DeleteHoliday removes a holiday through the backend.
func (h *Handler) DeleteHoliday(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid holiday id"})
		return
	}
	if err := h.gw.DeleteHoliday(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Holiday deleted successfully"})
}

// HolidaysExport downloads the currently filtered holidays as CSV.
func (h *Handler) HolidaysExport(c *gin.Context) {
	filtered, ok := h.filteredHolidays(c)
	if !ok {
		return
	}
	data, err := view.HolidaysCSV(filtered)
	if err != nil {
		h.log.Errorf("holiday export failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "export failed"})
		return
	}
	name := view.ExportFilename("holidays", time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
