package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/internal/repository"
	"github.com/noah-isme/teacher-ratings-api/pkg/storage"
)

type fixture struct {
	teachers *repository.TeacherRepository
	ratings  *repository.RatingRepository
	metrics  *MetricsService
	teacher  *TeacherService
	rating   *RatingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	teachers := repository.NewTeacherRepository(store, "teachers.csv", zap.NewNop())
	ratings := repository.NewRatingRepository(store, "ratings.csv", zap.NewNop())
	metrics := NewMetricsService()
	validate := validator.New()
	writes := NewStoreLock()
	return &fixture{
		teachers: teachers,
		ratings:  ratings,
		metrics:  metrics,
		teacher:  NewTeacherService(teachers, ratings, nil, metrics, writes, validate, zap.NewNop()),
		rating:   NewRatingService(ratings, teachers, nil, metrics, writes, validate, zap.NewNop()),
	}
}

func createTeacherRequest(id, name string, tags ...string) CreateTeacherRequest {
	if len(tags) == 0 {
		tags = []string{"general"}
	}
	return CreateTeacherRequest{
		ID:          id,
		Name:        name,
		Description: "Teaches " + name,
		Bio:         "Bio of " + name,
		Classes:     models.StringList{"Class A"},
		Tags:        models.StringList(tags),
		RoomNumber:  "R1",
	}
}

func (f *fixture) seed(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := f.teacher.Create(context.Background(), createTeacherRequest(fmt.Sprintf("T%d", i), fmt.Sprintf("Teacher %02d", i)))
		require.NoError(t, err)
	}
}

func (f *fixture) vote(t *testing.T, teacherID string, score int) {
	t.Helper()
	_, err := f.rating.Submit(context.Background(), SubmitRatingRequest{TeacherID: teacherID, Rating: models.Score(score)}, VoterEvidence{})
	require.NoError(t, err)
}

// counterValue reads one labelled counter from the private registry.
func counterValue(t *testing.T, m *MetricsService, name, label, value string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
