package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
)

func newExportServiceForTest(t *testing.T) *ExportService {
	t.Helper()
	f := newFixture(t)
	_, err := f.teacher.Create(context.Background(), createTeacherRequest("T1", "Ada, Countess", "math", "logic"))
	require.NoError(t, err)
	_, err = f.teacher.Create(context.Background(), createTeacherRequest("T2", "Grace"))
	require.NoError(t, err)
	f.vote(t, "T1", 4)
	f.vote(t, "T1", 5)

	svc := NewExportService(f.teachers, f.ratings, zap.NewNop(), nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceCSV(t *testing.T) {
	svc := newExportServiceForTest(t)

	file, err := svc.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "teachers-20240501-100000.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"ID", "Name", "Room", "Classes", "Tags", "Average", "Ratings"}, records[0])
	assert.Equal(t, []string{"T1", "Ada, Countess", "R1", "Class A", "math; logic", "4.50", "2"}, records[1])
	assert.Equal(t, []string{"T2", "Grace", "R1", "Class A", "general", "", "0"}, records[2])
}

func TestExportServicePDF(t *testing.T) {
	svc := newExportServiceForTest(t)

	file, err := svc.Export(context.Background(), "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(t)

	_, err := svc.Export(context.Background(), "xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
