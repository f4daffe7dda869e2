package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standingDataset() Dataset {
	return Dataset{
		Headers: []string{"Course", "Average", "Status"},
		Rows: []map[string]string{
			{"Course": "Álgebra Linear", "Average": "7.50", "Status": "passed"},
			{"Course": "Algoritmos", "Status": "in_progress"},
		},
		Caption: "Term 2024.1",
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(standingDataset())
	require.NoError(t, err)
	assert.Equal(t, "Course,Average,Status\nÁlgebra Linear,7.50,passed\nAlgoritmos,,in_progress\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	exporter.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	out, err := exporter.Render(standingDataset(), "Overall standing")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFExporterPaginatesLongTables(t *testing.T) {
	data := Dataset{Headers: []string{"Course"}}
	for i := 0; i < 120; i++ {
		data.Rows = append(data.Rows, map[string]string{"Course": "Cálculo"})
	}
	out, err := NewPDFExporter().Render(data, "")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
