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
	"github.com/noah-isme/school-roster-api/internal/repository"
	"github.com/noah-isme/school-roster-api/pkg/cache"
	"github.com/noah-isme/school-roster-api/pkg/contact"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

type personStore interface {
	FindByID(ctx context.Context, id string) (*models.Person, error)
	FindByContact(ctx context.Context, email, phone *string) (*models.Person, error)
	Guardians(ctx context.Context, dependentID string) ([]models.GuardianRelationship, error)
	Dependents(ctx context.Context, guardianID string) ([]models.GuardianRelationship, error)
	Siblings(ctx context.Context, personID string) ([]models.SiblingRelationship, error)
	LinkGuardian(ctx context.Context, rel *models.GuardianRelationship) error
	DeactivateGuardian(ctx context.Context, id, reason string) error
	LinkSiblings(ctx context.Context, a, b string) (*models.SiblingRelationship, error)
	DuplicateCandidates(ctx context.Context, filter models.DuplicateFilter) ([]models.DuplicateCandidateRow, error)
}

type duplicateMerger interface {
	Merge(ctx context.Context, req repository.MergeRequest) (*models.MergeResult, error)
}

// PersonServiceConfig tunes duplicate detection.
type PersonServiceConfig struct {
	RecentWindow time.Duration
}

// PersonService resolves persons by contact, maintains the guardian and
// sibling graph and merges duplicate profiles.
type PersonService struct {
	repo      personStore
	merger    duplicateMerger
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    PersonServiceConfig
	now       func() time.Time
}

// NewPersonService constructs a PersonService.
func NewPersonService(repo personStore, merger duplicateMerger, cacheSvc *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PersonServiceConfig) *PersonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 30 * 24 * time.Hour
	}
	return &PersonService{
		repo:      repo,
		merger:    merger,
		cache:     cacheSvc,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// FindPersonByContact returns the person owning the email or phone, or nil
// when neither value normalizes or nothing matches.
func (s *PersonService) FindPersonByContact(ctx context.Context, email, phone *string) (*models.Person, error) {
	normEmail := contact.NormalizePtr(contact.TypeEmail, email)
	normPhone := contact.NormalizePtr(contact.TypePhone, phone)
	if normEmail == nil && normPhone == nil {
		return nil, nil
	}

	person, err := s.repo.FindByContact(ctx, normEmail, normPhone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.FromDB(err, "failed to look up person")
	}
	return person, nil
}

// Get loads a person with its active contact points.
func (s *PersonService) Get(ctx context.Context, id string) (*models.Person, error) {
	person, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return nil, appErrors.FromDB(err, "failed to load person")
	}
	return person, nil
}

// Guardians lists the active guardians of a person.
func (s *PersonService) Guardians(ctx context.Context, personID string) ([]models.GuardianRelationship, error) {
	rels, err := s.repo.Guardians(ctx, personID)
	if err != nil {
		return nil, appErrors.FromDB(err, "failed to load guardians")
	}
	return rels, nil
}

// Dependents lists the active dependents of a guardian.
func (s *PersonService) Dependents(ctx context.Context, personID string) ([]models.GuardianRelationship, error) {
	rels, err := s.repo.Dependents(ctx, personID)
	if err != nil {
		return nil, appErrors.FromDB(err, "failed to load dependents")
	}
	return rels, nil
}

// Siblings lists the active siblings of a person.
func (s *PersonService) Siblings(ctx context.Context, personID string) ([]models.SiblingRelationship, error) {
	rels, err := s.repo.Siblings(ctx, personID)
	if err != nil {
		return nil, appErrors.FromDB(err, "failed to load siblings")
	}
	return rels, nil
}

// LinkGuardian records a guardian for a dependent. A person can never be
// their own guardian.
func (s *PersonService) LinkGuardian(ctx context.Context, req dto.LinkGuardianRequest) (*models.GuardianRelationship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid guardian payload")
	}
	rel := &models.GuardianRelationship{
		GuardianID:     req.GuardianID,
		DependentID:    req.DependentID,
		Role:           models.GuardianRole(req.Role),
		IsPrimaryPayer: req.IsPrimaryPayer,
	}
	if err := s.repo.LinkGuardian(ctx, rel); err != nil {
		return nil, appErrors.FromDB(err, "failed to link guardian")
	}
	s.cache.InvalidateNamespaces(ctx, CacheNamespaceFamilies)
	return rel, nil
}

// DeactivateGuardian soft-deactivates a guardian relationship with a reason.
func (s *PersonService) DeactivateGuardian(ctx context.Context, id string, req dto.DeactivateGuardianRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid deactivation payload")
	}
	if err := s.repo.DeactivateGuardian(ctx, id, req.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "active guardian relationship not found")
		}
		return appErrors.FromDB(err, "failed to deactivate guardian")
	}
	s.cache.InvalidateNamespaces(ctx, CacheNamespaceFamilies)
	return nil
}

// LinkSiblings records two persons as siblings. Linking an existing pair is a no-op.
func (s *PersonService) LinkSiblings(ctx context.Context, req dto.LinkSiblingsRequest) (*models.SiblingRelationship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid sibling payload")
	}
	rel, err := s.repo.LinkSiblings(ctx, req.PersonID, req.SiblingID)
	if err != nil {
		return nil, appErrors.FromDB(err, "failed to link siblings")
	}
	s.cache.InvalidateNamespaces(ctx, CacheNamespaceFamilies)
	return rel, nil
}

// FindDuplicatePersons clusters program profiles whose persons share a phone number.
func (s *PersonService) FindDuplicatePersons(ctx context.Context, filter models.DuplicateFilter) ([]models.DuplicateCluster, error) {
	key := cache.Key(CacheNamespaceDuplicates, map[string]string{"program": string(filter.Program)})
	return Remember(ctx, s.cache, key, func(ctx context.Context) ([]models.DuplicateCluster, error) {
		rows, err := s.repo.DuplicateCandidates(ctx, filter)
		if err != nil {
			return nil, appErrors.FromDB(err, "failed to load duplicate candidates")
		}
		return ClusterDuplicates(rows, s.now(), s.config.RecentWindow), nil
	})
}

// ResolveDuplicates merges the delete profiles into the keep profile atomically.
func (s *PersonService) ResolveDuplicates(ctx context.Context, req dto.ResolveDuplicatesRequest) (*models.MergeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid merge payload")
	}
	deleteIDs := uniqueIDs(req.DeleteProfileIDs)
	for _, id := range deleteIDs {
		if id == req.KeepProfileID {
			return nil, appErrors.FieldError("deleteProfileIds", "must not contain the keep profile")
		}
	}

	started := time.Now()
	result, err := s.merger.Merge(ctx, repository.MergeRequest{
		KeepProfileID:    req.KeepProfileID,
		DeleteProfileIDs: deleteIDs,
		MergeData:        req.MergeData,
	})
	s.metrics.ObserveWriteTx("merge", time.Since(started))
	if err != nil {
		appErr := appErrors.FromDB(err, "failed to merge duplicates")
		if errors.Is(appErr, appErrors.ErrInternal) {
			s.metrics.ObserveMerge("failed")
			s.logger.Error("duplicate merge failed",
				zap.String("keep_profile_id", req.KeepProfileID),
				zap.Strings("delete_profile_ids", deleteIDs),
				zap.Error(err))
		} else {
			s.metrics.ObserveMerge("rejected")
		}
		return nil, appErr
	}

	s.metrics.ObserveMerge("merged")
	s.logger.Info("duplicate profiles merged",
		zap.String("keep_profile_id", result.KeepProfileID),
		zap.Strings("deleted_profile_ids", result.DeletedProfileIDs),
		zap.Int("enrollments_moved", result.EnrollmentsMoved))
	s.cache.InvalidateNamespaces(ctx, rosterNamespaces...)
	return result, nil
}

// ClusterDuplicates groups candidate rows by program and normalized phone.
// Only groups spanning more than one person are reported. The most recently
// updated profile is kept and the rest are delete candidates. A profile whose
// person has several shared numbers can appear in more than one cluster.
func ClusterDuplicates(rows []models.DuplicateCandidateRow, now time.Time, recentWindow time.Duration) []models.DuplicateCluster {
	type clusterKey struct {
		program models.Program
		phone   string
	}
	order := make([]clusterKey, 0)
	members := make(map[clusterKey][]models.DuplicateCandidateRow)
	seen := make(map[clusterKey]map[string]struct{})

	for _, row := range rows {
		phone, ok := contact.NormalizePhone(row.Phone)
		if !ok {
			continue
		}
		key := clusterKey{program: row.Program, phone: phone}
		if _, ok := members[key]; !ok {
			order = append(order, key)
			seen[key] = make(map[string]struct{})
		}
		if _, dup := seen[key][row.ProfileID]; dup {
			continue
		}
		seen[key][row.ProfileID] = struct{}{}
		row.Phone = phone
		members[key] = append(members[key], row)
	}

	cutoff := now.Add(-recentWindow)
	clusters := make([]models.DuplicateCluster, 0)
	for _, key := range order {
		group := members[key]
		if distinctPersons(group) < 2 {
			continue
		}
		keepIdx := 0
		for i, row := range group {
			kept := group[keepIdx]
			if row.UpdatedAt.After(kept.UpdatedAt) || (row.UpdatedAt.Equal(kept.UpdatedAt) && row.ProfileID < kept.ProfileID) {
				keepIdx = i
			}
		}
		cluster := models.DuplicateCluster{Phone: key.phone, Program: key.program, Keep: group[keepIdx]}
		for i, row := range group {
			if row.UpdatedAt.After(cutoff) {
				cluster.HasRecentActivity = true
			}
			if i != keepIdx {
				cluster.Delete = append(cluster.Delete, row)
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

func distinctPersons(rows []models.DuplicateCandidateRow) int {
	persons := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		persons[row.PersonID] = struct{}{}
	}
	return len(persons)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
