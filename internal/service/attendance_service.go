package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/cache"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

type attendanceStore interface {
	StatusCounts(ctx context.Context, filter models.AttendanceFilter) ([]models.StatusCount, error)
	StatusCountsByClass(ctx context.Context, filter models.AttendanceFilter) ([]models.GroupedStatusCount, error)
	StatusCountsByShift(ctx context.Context, filter models.AttendanceFilter) ([]models.GroupedStatusCount, error)
	ClassRoster(ctx context.Context, classID string) ([]models.RosterStudent, error)
	FindClass(ctx context.Context, id string) (*models.Class, error)
	MarkSession(ctx context.Context, session *models.AttendanceSession, records []models.AttendanceRecord) (*models.AttendanceSession, error)
}

// AttendanceService computes attendance statistics and records sessions.
type AttendanceService struct {
	repo      attendanceStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceStore, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, cache: cacheSvc, validator: validate, logger: logger}
}

// Stats aggregates attendance for an arbitrary filter, overall and per shift and class.
func (s *AttendanceService) Stats(ctx context.Context, query dto.AttendanceStatsQuery) (*models.AttendanceReport, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid attendance filter")
	}
	filter := models.AttendanceFilter{ClassID: query.ClassID, TeacherID: query.TeacherID, Shift: query.Shift}
	if query.From != "" {
		from, _ := time.Parse(dateLayout, query.From)
		filter.DateFrom = &from
	}
	if query.To != "" {
		to, _ := time.Parse(dateLayout, query.To)
		filter.DateTo = &to
	}
	if filter.DateFrom != nil && filter.DateTo != nil && !filter.DateTo.After(*filter.DateFrom) {
		return nil, appErrors.FieldError("to", "must be after from")
	}

	key := cache.Key(CacheNamespaceAttendance+":stats", map[string]string{
		"from": query.From, "to": query.To, "classId": query.ClassID, "teacherId": query.TeacherID, "shift": query.Shift,
	})
	return Remember(ctx, s.cache, key, func(ctx context.Context) (*models.AttendanceReport, error) {
		overall, byShift, byClass, err := s.load(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &models.AttendanceReport{
			Overall: statsFor(overall),
			ByShift: CompareGroups(byShift, nil),
			ByClass: CompareGroups(byClass, nil),
		}, nil
	})
}

// Trend compares a month with the previous month overall, per shift and per
// class. Each diff is nil when its previous period has no records.
func (s *AttendanceService) Trend(ctx context.Context, query dto.AttendanceTrendQuery) (*models.AttendanceTrend, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid trend filter")
	}
	month, _ := time.Parse(monthLayout, query.Month)
	current, previous := MonthWindow(month)
	current.ClassID, previous.ClassID = query.ClassID, query.ClassID
	current.TeacherID, previous.TeacherID = query.TeacherID, query.TeacherID

	key := cache.Key(CacheNamespaceAttendance+":trend", map[string]string{
		"month": query.Month, "classId": query.ClassID, "teacherId": query.TeacherID,
	})
	return Remember(ctx, s.cache, key, func(ctx context.Context) (*models.AttendanceTrend, error) {
		curTotals, curShift, curClass, err := s.load(ctx, current)
		if err != nil {
			return nil, err
		}
		prevTotals, prevShift, prevClass, err := s.load(ctx, previous)
		if err != nil {
			return nil, err
		}
		if prevShift == nil {
			prevShift = []models.GroupedStatusCount{}
		}
		if prevClass == nil {
			prevClass = []models.GroupedStatusCount{}
		}
		return &models.AttendanceTrend{
			Month:    query.Month,
			Current:  statsFor(curTotals),
			Previous: statsFor(prevTotals),
			Diff:     ComparePeriods(curTotals, prevTotals),
			ByShift:  CompareGroups(curShift, prevShift),
			ByClass:  CompareGroups(curClass, prevClass),
		}, nil
	})
}

// MonthWindow returns half-open filters for the month containing t and the month before it.
func MonthWindow(t time.Time) (current, previous models.AttendanceFilter) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	prevStart := start.AddDate(0, -1, 0)
	current = models.AttendanceFilter{DateFrom: &start, DateTo: &end}
	previous = models.AttendanceFilter{DateFrom: &prevStart, DateTo: &start}
	return current, previous
}

func (s *AttendanceService) load(ctx context.Context, filter models.AttendanceFilter) (models.AttendanceTotals, []models.GroupedStatusCount, []models.GroupedStatusCount, error) {
	counts, err := s.repo.StatusCounts(ctx, filter)
	if err != nil {
		return models.AttendanceTotals{}, nil, nil, appErrors.FromDB(err, "failed to load attendance counts")
	}
	byShift, err := s.repo.StatusCountsByShift(ctx, filter)
	if err != nil {
		return models.AttendanceTotals{}, nil, nil, appErrors.FromDB(err, "failed to load attendance by shift")
	}
	byClass, err := s.repo.StatusCountsByClass(ctx, filter)
	if err != nil {
		return models.AttendanceTotals{}, nil, nil, appErrors.FromDB(err, "failed to load attendance by class")
	}
	return AggregateStatusCounts(counts), byShift, byClass, nil
}

// Roster lists the active students of a class with siblings adjacent.
func (s *AttendanceService) Roster(ctx context.Context, classID string) ([]models.RosterStudent, error) {
	if _, err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}
	key := cache.Key(CacheNamespaceRoster, map[string]string{"classId": classID})
	return Remember(ctx, s.cache, key, func(ctx context.Context) ([]models.RosterStudent, error) {
		students, err := s.repo.ClassRoster(ctx, classID)
		if err != nil {
			return nil, appErrors.FromDB(err, "failed to load class roster")
		}
		return SortSiblingAware(students), nil
	})
}

// Mark records attendance for a class on a date. Re-marking the same class and
// date updates statuses on the existing session. Teachers may only mark their
// own classes.
func (s *AttendanceService) Mark(ctx context.Context, req dto.MarkAttendanceRequest, claims *models.JWTClaims) (*models.MarkedSession, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid attendance payload")
	}
	date, _ := time.Parse(dateLayout, req.Date)

	class, err := s.findClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	teacherID := claims.UserID
	if claims.Role == models.RoleTeacher {
		if class.TeacherID == nil || *class.TeacherID != claims.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "class is assigned to another teacher")
		}
	} else if class.TeacherID != nil {
		teacherID = *class.TeacherID
	}

	roster, err := s.repo.ClassRoster(ctx, class.ID)
	if err != nil {
		return nil, appErrors.FromDB(err, "failed to load class roster")
	}
	enrolled := make(map[string]struct{}, len(roster))
	for _, student := range roster {
		enrolled[student.ProgramProfileID] = struct{}{}
	}

	records := make([]models.AttendanceRecord, 0, len(req.Records))
	seen := make(map[string]struct{}, len(req.Records))
	for i, mark := range req.Records {
		field := fmt.Sprintf("records[%d].programProfileId", i)
		if _, dup := seen[mark.ProgramProfileID]; dup {
			return nil, appErrors.FieldError(field, "is marked more than once")
		}
		seen[mark.ProgramProfileID] = struct{}{}
		if _, ok := enrolled[mark.ProgramProfileID]; !ok {
			return nil, appErrors.FieldError(field, "is not enrolled in this class")
		}
		records = append(records, models.AttendanceRecord{
			ProgramProfileID: mark.ProgramProfileID,
			Status:           models.AttendanceStatus(mark.Status),
			LessonSurah:      mark.LessonSurah,
			LessonPages:      mark.LessonPages,
			Notes:            mark.Notes,
		})
	}

	session, err := s.repo.MarkSession(ctx, &models.AttendanceSession{
		ClassID:   class.ID,
		Date:      date,
		TeacherID: teacherID,
		Notes:     req.Notes,
	}, records)
	if err != nil {
		s.logger.Error("attendance marking failed", zap.String("class_id", class.ID), zap.String("date", req.Date), zap.Error(err))
		return nil, appErrors.FromDB(err, "failed to record attendance")
	}

	s.cache.InvalidateNamespaces(ctx, CacheNamespaceAttendance)
	return &models.MarkedSession{Session: *session, Records: records}, nil
}

func (s *AttendanceService) findClass(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindClass(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.FromDB(err, "failed to load class")
	}
	return class, nil
}
