package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
	"github.com/noah-isme/school-roster-api/pkg/response"
)

type attendanceService interface {
	Stats(ctx context.Context, query dto.AttendanceStatsQuery) (*models.AttendanceReport, error)
	Trend(ctx context.Context, query dto.AttendanceTrendQuery) (*models.AttendanceTrend, error)
	Roster(ctx context.Context, classID string) ([]models.RosterStudent, error)
	Mark(ctx context.Context, req dto.MarkAttendanceRequest, claims *models.JWTClaims) (*models.MarkedSession, error)
}

// AttendanceHandler exposes attendance reporting and marking.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler builds a new handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Stats godoc
// @Summary Attendance rates overall, by shift and by class
// @Tags Attendance
// @Produce json
// @Param from query string false "Inclusive start date (YYYY-MM-DD)"
// @Param to query string false "Exclusive end date (YYYY-MM-DD)"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Param shift query string false "Shift"
// @Success 200 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	var query dto.AttendanceStatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stats query"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleTeacher {
		query.TeacherID = claims.UserID
	}
	report, err := h.service.Stats(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Trend godoc
// @Summary Compare a month's attendance with the previous month
// @Tags Attendance
// @Produce json
// @Param month query string true "Month (YYYY-MM)"
// @Param teacherId query string false "Teacher ID"
// @Param classId query string false "Class ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/trend [get]
func (h *AttendanceHandler) Trend(c *gin.Context) {
	var query dto.AttendanceTrendQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid trend query"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleTeacher {
		query.TeacherID = claims.UserID
	}
	trend, err := h.service.Trend(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trend, nil)
}

// Roster godoc
// @Summary Active students of a class, siblings adjacent
// @Tags Attendance
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/roster [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	students, err := h.service.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Mark godoc
// @Summary Record attendance for a class session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Session marks"
// @Success 201 {object} response.Envelope
// @Router /attendance/sessions [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	session, err := h.service.Mark(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}
