package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

type classEnrollmentStore interface {
	BulkEnroll(ctx context.Context, classID string, profileIDs []string, now time.Time) (models.BulkEnrollResult, error)
	Deactivate(ctx context.Context, profileID string, now time.Time) error
	ClassExists(ctx context.Context, classID string) (bool, error)
	FindByProfile(ctx context.Context, profileID string) (*models.ClassEnrollment, error)
}

// EnrollmentConfig tunes class enrollment writes.
type EnrollmentConfig struct {
	TxTimeout time.Duration
}

// EnrollmentService moves program profiles between classes.
type EnrollmentService struct {
	repo      classEnrollmentStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    EnrollmentConfig
	now       func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo classEnrollmentStore, cacheSvc *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg EnrollmentConfig) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 30 * time.Second
	}
	return &EnrollmentService{
		repo:      repo,
		cache:     cacheSvc,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// BulkEnroll places every profile into the class. Profiles already active in
// the class are untouched; a profile active elsewhere is moved and counted in
// both Enrolled and Moved. The batch is applied atomically or not at all.
func (s *EnrollmentService) BulkEnroll(ctx context.Context, req dto.BulkEnrollRequest) (models.BulkEnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.BulkEnrollResult{}, appErrors.Validation(err, "invalid enrollment payload")
	}
	profileIDs := uniqueIDs(req.ProfileIDs)

	exists, err := s.repo.ClassExists(ctx, req.ClassID)
	if err != nil {
		return models.BulkEnrollResult{}, appErrors.FromDB(err, "failed to load class")
	}
	if !exists {
		return models.BulkEnrollResult{}, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	txCtx, cancel := context.WithTimeout(ctx, s.config.TxTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.repo.BulkEnroll(txCtx, req.ClassID, profileIDs, s.now().UTC())
	s.metrics.ObserveWriteTx("bulk_enroll", time.Since(started))
	if err != nil {
		s.metrics.ObserveEnrollment("failed", len(profileIDs))
		s.logger.Error("bulk enrollment rolled back",
			zap.String("class_id", req.ClassID),
			zap.Strings("profile_ids", profileIDs),
			zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return models.BulkEnrollResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "bulk enrollment timed out")
		}
		return models.BulkEnrollResult{}, appErrors.FromDB(err, "failed to enroll profiles")
	}

	s.metrics.ObserveEnrollment("enrolled", result.Enrolled-result.Moved)
	s.metrics.ObserveEnrollment("moved", result.Moved)
	s.cache.InvalidateNamespaces(ctx, rosterNamespaces...)
	return result, nil
}

// Placement returns the current or most recent class placement of a profile.
func (s *EnrollmentService) Placement(ctx context.Context, profileID string) (*models.ClassEnrollment, error) {
	placement, err := s.repo.FindByProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile has never been placed in a class")
		}
		return nil, appErrors.FromDB(err, "failed to load class placement")
	}
	return placement, nil
}

// RemoveFromClass ends the active class placement of a profile. History is kept.
func (s *EnrollmentService) RemoveFromClass(ctx context.Context, profileID string) error {
	if profileID == "" {
		return appErrors.FieldError("profileId", "is required")
	}
	if err := s.repo.Deactivate(ctx, profileID, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "profile has no active class enrollment")
		}
		return appErrors.FromDB(err, "failed to remove profile from class")
	}
	s.metrics.ObserveEnrollment("removed", 1)
	s.cache.InvalidateNamespaces(ctx, rosterNamespaces...)
	return nil
}
