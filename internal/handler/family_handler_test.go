package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/internal/service"
)

type familyServiceMock struct {
	families   []models.Family
	lastQuery  dto.FamilyQuery
	lastExport dto.FamilyExportQuery
}

func (m *familyServiceMock) List(ctx context.Context, query dto.FamilyQuery) ([]models.Family, error) {
	m.lastQuery = query
	return m.families, nil
}

func (m *familyServiceMock) Export(ctx context.Context, query dto.FamilyExportQuery) (*service.FamilyExport, error) {
	m.lastExport = query
	return &service.FamilyExport{Filename: "families-20240501.csv", ContentType: "text/csv", Content: []byte("Family,Child\n")}, nil
}

func TestFamilyHandlerListCountsChildren(t *testing.T) {
	mockSvc := &familyServiceMock{families: []models.Family{
		{Key: "F1", Children: []models.FamilyChild{{ProfileID: "a"}, {ProfileID: "b"}}},
		{Key: "F2", Children: []models.FamilyChild{{ProfileID: "c"}}},
	}}
	handler := NewFamilyHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/families?program=K12_PROGRAM&shift=MORNING", "", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "K12_PROGRAM", mockSvc.lastQuery.Program)
	assert.Equal(t, "MORNING", mockSvc.lastQuery.Shift)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.EqualValues(t, 2, meta["families"])
	assert.EqualValues(t, 3, meta["children"])
}

func TestFamilyHandlerExport(t *testing.T) {
	mockSvc := &familyServiceMock{}
	handler := NewFamilyHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/families/export?format=csv&program=WEEKEND_SCHOOL", "", nil)
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastExport.Format)
	assert.Equal(t, "WEEKEND_SCHOOL", mockSvc.lastExport.Program)
	assert.Equal(t, `attachment; filename="families-20240501.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Family,Child\n", w.Body.String())
}
