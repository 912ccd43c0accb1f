package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

type enrollmentServiceMock struct {
	lastReq   dto.BulkEnrollRequest
	removed   string
	removeErr error
}

func (m *enrollmentServiceMock) BulkEnroll(ctx context.Context, req dto.BulkEnrollRequest) (models.BulkEnrollResult, error) {
	m.lastReq = req
	return models.BulkEnrollResult{Enrolled: 1, Moved: 1}, nil
}

func (m *enrollmentServiceMock) Placement(ctx context.Context, profileID string) (*models.ClassEnrollment, error) {
	if profileID != "pp-1" {
		return nil, appErrors.ErrNotFound
	}
	return &models.ClassEnrollment{ProgramProfileID: profileID, ClassID: "class-b", IsActive: true}, nil
}

func (m *enrollmentServiceMock) RemoveFromClass(ctx context.Context, profileID string) error {
	m.removed = profileID
	return m.removeErr
}

func TestEnrollmentHandlerBulkEnroll(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/classes/class-b/enrollments/bulk", `{"profileIds":["pp-1"]}`, nil)
	c.Params = gin.Params{{Key: "id", Value: "class-b"}}
	handler.BulkEnroll(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "class-b", mockSvc.lastReq.ClassID)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["enrolled"])
	assert.EqualValues(t, 1, data["moved"])
}

func TestEnrollmentHandlerRemove(t *testing.T) {
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	c, w := newTestContext(http.MethodDelete, "/class-enrollments/pp-1", "", nil)
	c.Params = gin.Params{{Key: "profileId", Value: "pp-1"}}
	handler.Remove(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "pp-1", mockSvc.removed)

	mockSvc.removeErr = appErrors.ErrNotFound
	c, w = newTestContext(http.MethodDelete, "/class-enrollments/pp-2", "", nil)
	handler.Remove(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollmentHandlerPlacement(t *testing.T) {
	handler := NewEnrollmentHandler(&enrollmentServiceMock{})

	c, w := newTestContext(http.MethodGet, "/class-enrollments/pp-1", "", nil)
	c.Params = gin.Params{{Key: "profileId", Value: "pp-1"}}
	handler.Placement(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/class-enrollments/pp-2", "", nil)
	c.Params = gin.Params{{Key: "profileId", Value: "pp-2"}}
	handler.Placement(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
