package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func familyDataset(rows int) Dataset {
	data := Dataset{Headers: []string{"Family", "Child", "Guardian"}}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, map[string]string{"Family": "F1", "Child": "Zoë, Ali", "Guardian": "Maryam"})
	}
	return data
}

func TestCSVExporterQuotesValues(t *testing.T) {
	out, err := NewCSVExporter().Render(familyDataset(1))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Family,Child,Guardian", lines[0])
	assert.Equal(t, `F1,"Zoë, Ali",Maryam`, lines[1])
}

func TestCSVExporterGuardsFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Phone"},
		Rows:    []map[string]string{{"Name": "=HYPERLINK(\"x\")", "Phone": "+15550100"}, {"Name": "Dana"}},
	}
	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter().Write(&buf, data))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"'=HYPERLINK(""x"")",'+15550100`, lines[1])
	assert.Equal(t, "Dana,", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterPaginates(t *testing.T) {
	exporter := &PDFExporter{now: func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }}
	out, err := exporter.Render(familyDataset(120), "Family roster")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRendererFormats(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(FormatCSV, familyDataset(1), "")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Family,Child,Guardian")

	_, err = r.Render(Format("docx"), familyDataset(1), "")
	require.Error(t, err)
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func TestXLSXExporterWritesSheet(t *testing.T) {
	out, err := NewXLSXExporter().Render(familyDataset(2))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Family", "Child", "Guardian"}, rows[0])
	assert.Equal(t, "Zoë, Ali", rows[1][1])
}
