package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

type duplicateServiceMock struct {
	clusters   []models.DuplicateCluster
	lastFilter models.DuplicateFilter
	resolveErr error
	lastMerge  dto.ResolveDuplicatesRequest
}

func (m *duplicateServiceMock) FindDuplicatePersons(ctx context.Context, filter models.DuplicateFilter) ([]models.DuplicateCluster, error) {
	m.lastFilter = filter
	return m.clusters, nil
}

func (m *duplicateServiceMock) ResolveDuplicates(ctx context.Context, req dto.ResolveDuplicatesRequest) (*models.MergeResult, error) {
	m.lastMerge = req
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return &models.MergeResult{KeepProfileID: req.KeepProfileID, DeletedProfileIDs: req.DeleteProfileIDs}, nil
}

func TestDuplicateHandlerList(t *testing.T) {
	mockSvc := &duplicateServiceMock{clusters: []models.DuplicateCluster{{}, {}}}
	handler := NewDuplicateHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/duplicates?program=WEEKEND_SCHOOL", "", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ProgramWeekendSchool, mockSvc.lastFilter.Program)
	payload := decodeEnvelope(t, w)
	assert.EqualValues(t, 2, payload["meta"].(map[string]interface{})["count"])
}

func TestDuplicateHandlerListRejectsUnknownProgram(t *testing.T) {
	handler := NewDuplicateHandler(&duplicateServiceMock{})

	c, w := newTestContext(http.MethodGet, "/duplicates?program=SUMMER", "", nil)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDuplicateHandlerResolve(t *testing.T) {
	mockSvc := &duplicateServiceMock{}
	handler := NewDuplicateHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/duplicates/resolve", `{"keepProfileId":"a","deleteProfileIds":["b"],"mergeData":true}`, nil)
	handler.Resolve(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.lastMerge.MergeData)
	assert.Equal(t, []string{"b"}, mockSvc.lastMerge.DeleteProfileIDs)
}

func TestDuplicateHandlerResolveCrossProgram(t *testing.T) {
	handler := NewDuplicateHandler(&duplicateServiceMock{resolveErr: appErrors.ErrCrossProgramMerge})

	c, w := newTestContext(http.MethodPost, "/duplicates/resolve", `{"keepProfileId":"a","deleteProfileIds":["b"]}`, nil)
	handler.Resolve(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	payload := decodeEnvelope(t, w)
	assert.Equal(t, "CROSS_PROGRAM_MERGE", payload["error"].(map[string]interface{})["code"])
}
