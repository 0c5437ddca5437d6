package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/internal/repository"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
)

// Vote outcomes recorded in metrics.
const (
	VoteAccepted       = "accepted"
	VoteAlreadyVoted   = "already_voted"
	VoteInvalid        = "invalid"
	VoteUnknownTeacher = "unknown_teacher"
)

type ratingRepository interface {
	Add(ctx context.Context, rating models.Rating) (models.Rating, error)
	All(ctx context.Context) []models.Rating
	Update(ctx context.Context, teacherID, ratingID string, score int, comment string) (models.Rating, error)
	Remove(ctx context.Context, teacherID, ratingID string) (int, error)
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// SubmitRatingRequest is the public vote payload. Review is an older alias of Comment.
type SubmitRatingRequest struct {
	TeacherID string       `json:"teacher_id" validate:"required"`
	Rating    models.Score `json:"rating" validate:"min=1,max=5"`
	Comment   string       `json:"comment" validate:"max=2000"`
	Review    string       `json:"review" validate:"max=2000"`
}

func (r *SubmitRatingRequest) normalize() {
	r.TeacherID = strings.TrimSpace(r.TeacherID)
	r.Comment = models.CleanText(r.Comment)
	if r.Comment == "" {
		r.Comment = models.CleanText(r.Review)
	}
}

// UpdateRatingRequest is the admin edit payload.
type UpdateRatingRequest struct {
	Rating  models.Score `json:"rating" validate:"min=1,max=5"`
	Comment string       `json:"comment" validate:"max=2000"`
	Review  string       `json:"review" validate:"max=2000"`
}

// RatingService accepts votes and exposes admin moderation.
type RatingService struct {
	repo      ratingRepository
	teachers  teacherLookup
	cache     *CacheService
	metrics   *MetricsService
	writes    *StoreLock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRatingService constructs a RatingService. writes must be shared with the
// TeacherService that deletes from the same stores.
func NewRatingService(repo ratingRepository, teachers teacherLookup, cache *CacheService, metrics *MetricsService, writes *StoreLock, validate *validator.Validate, logger *zap.Logger) *RatingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if writes == nil {
		writes = NewStoreLock()
	}
	return &RatingService{repo: repo, teachers: teachers, cache: cache, metrics: metrics, writes: writes, validator: validate, logger: logger}
}

// Submit records a vote unless the evidence already lists the teacher. It
// returns the evidence the client should hold from now on.
func (s *RatingService) Submit(ctx context.Context, req SubmitRatingRequest, evidence VoterEvidence) (VoterEvidence, error) {
	req.normalize()
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordVote(VoteInvalid)
		return evidence, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("Invalid input: teacher_id is required and rating must be between %d and %d", models.MinRating, models.MaxRating))
	}

	unlock := s.writes.lock()
	defer unlock()

	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, repository.ErrTeacherNotFound) {
			s.metrics.RecordVote(VoteUnknownTeacher)
			return evidence, appErrors.Clone(appErrors.ErrNotFound, "Teacher not found")
		}
		return evidence, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if evidence.Has(req.TeacherID) {
		s.metrics.RecordVote(VoteAlreadyVoted)
		return evidence, appErrors.Clone(appErrors.ErrAlreadyVoted, appErrors.ErrAlreadyVoted.Message)
	}

	rating, err := s.repo.Add(ctx, models.Rating{TeacherID: req.TeacherID, Rating: int(req.Rating), Comment: req.Comment})
	if err != nil {
		return evidence, s.mapError(err)
	}
	s.cache.Invalidate(ctx, teacherListCachePattern)
	s.metrics.RecordVote(VoteAccepted)
	s.logger.Info("rating accepted", zap.String("teacher_id", rating.TeacherID), zap.String("rating_id", rating.ID), zap.Int("rating", rating.Rating))
	return evidence.With(req.TeacherID), nil
}

// ListAll returns every rating in submission order.
func (s *RatingService) ListAll(ctx context.Context) []models.Rating {
	return s.repo.All(ctx)
}

// Update edits one rating. An empty ratingID addresses the teacher's only rating.
func (s *RatingService) Update(ctx context.Context, teacherID, ratingID string, req UpdateRatingRequest) (*models.Rating, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage("invalid rating payload", err))
	}
	comment := models.CleanText(req.Comment)
	if comment == "" {
		comment = models.CleanText(req.Review)
	}
	rating, err := s.repo.Update(ctx, teacherID, ratingID, int(req.Rating), comment)
	if err != nil {
		return nil, s.mapError(err)
	}
	s.cache.Invalidate(ctx, teacherListCachePattern)
	s.metrics.RecordAdminMutation("rating", "update")
	return &rating, nil
}

// Remove deletes one rating, or all of a teacher's ratings when ratingID is empty.
func (s *RatingService) Remove(ctx context.Context, teacherID, ratingID string) (int, error) {
	removed, err := s.repo.Remove(ctx, teacherID, ratingID)
	if err != nil {
		return 0, s.mapError(err)
	}
	s.cache.Invalidate(ctx, teacherListCachePattern)
	s.metrics.RecordAdminMutation("rating", "delete")
	s.logger.Info("ratings removed", zap.String("teacher_id", teacherID), zap.String("rating_id", ratingID), zap.Int("removed", removed))
	return removed, nil
}

func (s *RatingService) mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrRatingNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "Rating not found")
	case errors.Is(err, repository.ErrAmbiguousRating):
		return appErrors.Clone(appErrors.ErrAmbiguousRating, "teacher has several ratings; address one by id")
	case errors.Is(err, repository.ErrInvalidRating):
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating))
	case repository.IsPersistence(err):
		return persistenceFailure(s.logger, s.metrics, "ratings", err)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "rating operation failed")
	}
}
