package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/cache"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
	"github.com/noah-isme/school-roster-api/pkg/export"
)

type familyRowReader interface {
	ListFamilyRows(ctx context.Context, filter models.FamilyFilter) ([]models.FamilyRow, error)
}

type datasetRenderer interface {
	Render(format export.Format, data export.Dataset, title string) ([]byte, error)
}

// FamilyExport is a rendered family roster.
type FamilyExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

var familyExportHeaders = []string{"Family", "Registered", "Child", "Grade", "Shift", "Guardian 1", "Guardian 1 Email", "Guardian 1 Phone", "Guardian 2", "Guardian 2 Phone"}

// FamilyService lists registrations grouped into families.
type FamilyService struct {
	repo      familyRowReader
	cache     *CacheService
	renderer  datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFamilyService constructs a FamilyService.
func NewFamilyService(repo familyRowReader, cacheSvc *CacheService, renderer datasetRenderer, validate *validator.Validate, logger *zap.Logger) *FamilyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	return &FamilyService{repo: repo, cache: cacheSvc, renderer: renderer, validator: validate, logger: logger, now: time.Now}
}

// List returns families newest first, served through the read-through cache.
func (s *FamilyService) List(ctx context.Context, query dto.FamilyQuery) ([]models.Family, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid family filter")
	}
	filter := models.FamilyFilter{Program: models.Program(query.Program), Shift: query.Shift}
	key := cache.Key(CacheNamespaceFamilies, map[string]string{"program": query.Program, "shift": query.Shift})

	return Remember(ctx, s.cache, key, func(ctx context.Context) ([]models.Family, error) {
		rows, err := s.repo.ListFamilyRows(ctx, filter)
		if err != nil {
			return nil, appErrors.FromDB(err, "failed to load families")
		}
		return GroupFamilies(rows), nil
	})
}

// Export renders the family listing as CSV, PDF or XLSX, one line per child.
func (s *FamilyService) Export(ctx context.Context, query dto.FamilyExportQuery) (*FamilyExport, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid export request")
	}
	families, err := s.List(ctx, query.FamilyQuery)
	if err != nil {
		return nil, err
	}

	format := export.Format(strings.ToLower(query.Format))
	if format == "" {
		format = export.FormatCSV
	}
	content, err := s.renderer.Render(format, familyDataset(families), "Family roster")
	if err != nil {
		s.logger.Error("family export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render family export")
	}
	return &FamilyExport{
		Filename:    fmt.Sprintf("families-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Content:     content,
	}, nil
}

func familyDataset(families []models.Family) export.Dataset {
	data := export.Dataset{Headers: familyExportHeaders}
	for i, family := range families {
		label := strconv.Itoa(i + 1)
		if ref, ok := strings.CutPrefix(family.Key, familyRefPrefix); ok {
			label = ref
		}
		for _, child := range family.Children {
			data.Rows = append(data.Rows, map[string]string{
				"Family":           label,
				"Registered":       family.RegisteredAt.Format("2006-01-02"),
				"Child":            child.Name,
				"Grade":            deref(child.GradeLevel),
				"Shift":            deref(child.Shift),
				"Guardian 1":       deref(family.Guardian1.Name),
				"Guardian 1 Email": deref(family.Guardian1.Email),
				"Guardian 1 Phone": deref(family.Guardian1.Phone),
				"Guardian 2":       deref(family.Guardian2.Name),
				"Guardian 2 Phone": deref(family.Guardian2.Phone),
			})
		}
	}
	return data
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
