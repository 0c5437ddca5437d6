package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
	"github.com/noah-isme/teacher-ratings-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type rosterSource interface {
	All(ctx context.Context) []models.Teacher
}

type rosterStats interface {
	StatsAll(ctx context.Context) map[string]models.RatingStats
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// ExportFile is a rendered roster download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the teacher roster with rating aggregates.
type ExportService struct {
	teachers rosterSource
	ratings  rosterStats
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(teachers rosterSource, ratings rosterStats, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{teachers: teachers, ratings: ratings, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

var rosterColumns = []export.Column{
	{Key: "id", Label: "ID", Width: 1},
	{Key: "name", Label: "Name", Width: 2},
	{Key: "room_number", Label: "Room", Width: 1},
	{Key: "classes", Label: "Classes", Width: 3},
	{Key: "tags", Label: "Tags", Width: 2},
	{Key: "avg_rating", Label: "Average", Width: 1},
	{Key: "rating_count", Label: "Ratings", Width: 1},
}

// Roster builds the dataset in store order.
func (s *ExportService) Roster(ctx context.Context) export.Dataset {
	stats := s.ratings.StatsAll(ctx)
	teachers := s.teachers.All(ctx)
	rows := make([]map[string]string, 0, len(teachers))
	for _, t := range teachers {
		st := stats[t.ID]
		avg := ""
		if st.AvgRating != nil {
			avg = strconv.FormatFloat(*st.AvgRating, 'f', 2, 64)
		}
		rows = append(rows, map[string]string{
			"id":           t.ID,
			"name":         t.Name,
			"room_number":  t.RoomNumber,
			"classes":      strings.Join(t.Classes, "; "),
			"tags":         strings.Join(t.Tags, "; "),
			"avg_rating":   avg,
			"rating_count": strconv.Itoa(st.RatingCount),
		})
	}
	return export.Dataset{Title: "Teacher roster", Columns: rosterColumns, Rows: rows}
}

// Export renders the roster in the requested format.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	dataset := s.Roster(ctx)
	stamp := s.now().UTC().Format("20060102-150405")

	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case ExportFormatCSV:
		data, err = s.csv.Render(dataset)
		contentType = s.csv.ContentType()
	case ExportFormatPDF:
		data, err = s.pdf.Render(dataset)
		contentType = s.pdf.ContentType()
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("roster export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("roster exported", zap.String("format", format), zap.Int("rows", len(dataset.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("teachers-%s.%s", stamp, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}
