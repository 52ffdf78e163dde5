package handlers

import (
	"net/http"
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/calendar"
	"github.com/gin-gonic/gin"
)

// calendarHandler answers business-day queries against the service calendar.
// Custom holidays supplied on a request are merged with the base calendar for
// that query only.
type calendarHandler struct {
	cal *calendar.Calendar
}

func newCalendarHandler(cal *calendar.Calendar) *calendarHandler {
	return &calendarHandler{cal: cal}
}

// registerCalendarRoutes registers routes related to the business-day calendar.
func registerCalendarRoutes(rg *gin.RouterGroup, cal *calendar.Calendar) {
	h := newCalendarHandler(cal)

	cals := rg.Group("/calendar")
	{
		cals.GET("/is-business-day", h.isBusinessDay)
		cals.POST("/roll", h.rollDate)
	}
}

// BusinessDayResponse reports calendar membership for one date.
type BusinessDayResponse struct {
	Date          string `json:"date"`
	Region        string `json:"region"`
	IsBusinessDay bool   `json:"isBusinessDay"`
	IsWeekend     bool   `json:"isWeekend"`
	IsHoliday     bool   `json:"isHoliday"`
}

// RollDateRequest asks for a date adjusted by a roll convention, optionally
// against a calendar extended with the tenant's own holidays.
type RollDateRequest struct {
	Date           string   `json:"date" binding:"required"`
	Convention     string   `json:"convention" binding:"required,oneof=following preceding modified_following modified_preceding"`
	CustomHolidays []string `json:"customHolidays,omitempty"`
}

// RollDateResponse carries the adjusted date.
type RollDateResponse struct {
	Input  string `json:"input"`
	Rolled string `json:"rolled"`
	Region string `json:"region"`
}

// isBusinessDay godoc
// @Summary Test a date for business-day membership
// @Tags calendar
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} handlers.BusinessDayResponse
// @Failure 400 {object} map[string]string "Invalid date"
// @Router /tenants/{tenantID}/calendar/is-business-day [get]
func (h *calendarHandler) isBusinessDay(c *gin.Context) {
	date, err := time.Parse(dateQueryFormat, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	c.JSON(http.StatusOK, BusinessDayResponse{
		Date:          date.Format(dateQueryFormat),
		Region:        h.cal.Region(),
		IsBusinessDay: h.cal.IsBusinessDay(date),
		IsWeekend:     h.cal.IsWeekend(date),
		IsHoliday:     h.cal.IsHoliday(date),
	})
}

// rollDate godoc
// @Summary Roll a date to a business day
// @Description Applies a roll convention to the date. Custom holidays in the request are merged with the base calendar for this query.
// @Tags calendar
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param roll body handlers.RollDateRequest true "Roll parameters"
// @Success 200 {object} handlers.RollDateResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /tenants/{tenantID}/calendar/roll [post]
func (h *calendarHandler) rollDate(c *gin.Context) {
	var req RollDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	date, err := time.Parse(dateQueryFormat, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	cal := h.cal
	if len(req.CustomHolidays) > 0 {
		holidays := make([]time.Time, 0, len(req.CustomHolidays))
		for _, raw := range req.CustomHolidays {
			holiday, err := time.Parse(dateQueryFormat, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "custom holiday " + raw + " must be YYYY-MM-DD"})
				return
			}
			holidays = append(holidays, holiday)
		}
		cal = calendar.Merge(h.cal, calendar.New("custom", holidays))
	}

	rolled, err := cal.ApplyRollConvention(date, calendar.RollConvention(req.Convention))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, RollDateResponse{
		Input:  req.Date,
		Rolled: rolled.Format(dateQueryFormat),
		Region: cal.Region(),
	})
}
