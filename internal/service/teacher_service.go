package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/internal/repository"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
)

// Listing page sizes.
const (
	DefaultPerPage = 8
	MaxPerPage     = 100
)

const teacherListCachePattern = "teachers:list:*"

type teacherRepository interface {
	All(ctx context.Context) []models.Teacher
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher models.Teacher) error
	Update(ctx context.Context, teacher models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type teacherRatingRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) []models.Rating
	Stats(ctx context.Context, teacherID string) models.RatingStats
	StatsAll(ctx context.Context) map[string]models.RatingStats
	RemoveAllFor(ctx context.Context, teacherID string) (int, error)
	RemoveOrphans(ctx context.Context, known func(teacherID string) bool) (int, error)
}

// CreateTeacherRequest represents payload for creating teachers.
type CreateTeacherRequest struct {
	ID          string                 `json:"id" validate:"required,max=64,excludesall=/"`
	Name        string                 `json:"name" validate:"required,max=200"`
	Description string                 `json:"description" validate:"required,max=2000"`
	Bio         string                 `json:"bio" validate:"required,max=10000"`
	Classes     models.StringList      `json:"classes" validate:"required,min=1,dive,max=200"`
	Tags        models.StringList      `json:"tags" validate:"required,min=1,dive,max=100"`
	RoomNumber  string                 `json:"room_number" validate:"required,max=50"`
	Schedule    []models.ScheduleBlock `json:"schedule" validate:"max=4"`
}

func (r *CreateTeacherRequest) normalize() {
	r.ID = models.CleanText(r.ID)
	r.Name = models.CleanText(r.Name)
	r.Description = models.CleanText(r.Description)
	r.Bio = models.CleanText(r.Bio)
	r.RoomNumber = models.CleanText(r.RoomNumber)
	r.Classes = models.NormalizeList(r.Classes)
	r.Tags = models.NormalizeList(r.Tags)
}

// UpdateTeacherRequest replaces any provided field; the id is immutable.
type UpdateTeacherRequest struct {
	ID          *string                 `json:"id"`
	Name        *string                 `json:"name" validate:"omitempty,max=200"`
	Description *string                 `json:"description" validate:"omitempty,max=2000"`
	Bio         *string                 `json:"bio" validate:"omitempty,max=10000"`
	Classes     *models.StringList      `json:"classes"`
	Tags        *models.StringList      `json:"tags"`
	RoomNumber  *string                 `json:"room_number" validate:"omitempty,max=50"`
	Schedule    *[]models.ScheduleBlock `json:"schedule"`
}

// TeacherService orchestrates teacher operations and the rating cascade.
type TeacherService struct {
	repo      teacherRepository
	ratings   teacherRatingRepository
	cache     *CacheService
	metrics   *MetricsService
	writes    *StoreLock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService. cache and metrics may be nil;
// writes must be the lock given to the RatingService over the same stores.
func NewTeacherService(repo teacherRepository, ratings teacherRatingRepository, cache *CacheService, metrics *MetricsService, writes *StoreLock, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if writes == nil {
		writes = NewStoreLock()
	}
	return &TeacherService{repo: repo, ratings: ratings, cache: cache, metrics: metrics, writes: writes, validator: validate, logger: logger}
}

// List filters, sorts and paginates teachers. Total counts matches before paging.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) (*models.TeacherPage, error) {
	filter = normalizeFilter(filter)

	cacheKey := listCacheKey(filter)
	var cached models.TeacherPage
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	stats := s.ratings.StatsAll(ctx)
	needle := strings.ToLower(filter.Search)
	matched := make([]models.TeacherSummary, 0)
	for _, t := range s.repo.All(ctx) {
		if needle != "" && !matchesSearch(t, needle) {
			continue
		}
		matched = append(matched, models.TeacherSummary{Teacher: t, RatingStats: stats[t.ID]})
	}

	sortSummaries(matched, filter.SortBy, filter.Direction)

	page := &models.TeacherPage{Teachers: paginate(matched, filter.Page, filter.PerPage), Total: len(matched)}
	s.cache.Set(ctx, cacheKey, page)
	return page, nil
}

func normalizeFilter(filter models.TeacherFilter) models.TeacherFilter {
	filter.Search = strings.TrimSpace(filter.Search)
	switch strings.ToLower(strings.TrimSpace(filter.SortBy)) {
	case models.SortAlphabetical:
		filter.SortBy = models.SortAlphabetical
	case models.SortRatings:
		filter.SortBy = models.SortRatings
	default:
		filter.SortBy = models.SortDefault
	}
	if strings.EqualFold(strings.TrimSpace(filter.Direction), models.SortDesc) {
		filter.Direction = models.SortDesc
	} else {
		filter.Direction = models.SortAsc
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = DefaultPerPage
	}
	if filter.PerPage > MaxPerPage {
		filter.PerPage = MaxPerPage
	}
	return filter
}

func listCacheKey(filter models.TeacherFilter) string {
	return fmt.Sprintf("teachers:list:%s:%s:%d:%d:%s",
		filter.SortBy, filter.Direction, filter.Page, filter.PerPage, url.QueryEscape(strings.ToLower(filter.Search)))
}

func matchesSearch(t models.Teacher, needle string) bool {
	if strings.Contains(strings.ToLower(t.Name), needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// sortSummaries orders in place. Ties keep store order in either direction.
func sortSummaries(items []models.TeacherSummary, sortBy, direction string) {
	sign := 1
	if direction == models.SortDesc {
		sign = -1
	}
	switch sortBy {
	case models.SortAlphabetical:
		collator := collate.New(language.English, collate.IgnoreCase, collate.Loose)
		sort.SliceStable(items, func(i, j int) bool {
			return sign*collator.CompareString(items[i].Name, items[j].Name) < 0
		})
	case models.SortRatings:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].AvgOrZero(), items[j].AvgOrZero()
			if sign > 0 {
				return a < b
			}
			return a > b
		})
	default:
		if sign < 0 {
			for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
				items[i], items[j] = items[j], items[i]
			}
		}
	}
}

func paginate(items []models.TeacherSummary, page, perPage int) []models.TeacherSummary {
	// compare page counts first; (page-1)*perPage can overflow
	pages := (len(items) + perPage - 1) / perPage
	if page-1 >= pages {
		return []models.TeacherSummary{}
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Get returns a teacher with its ratings and aggregate.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return &models.TeacherDetail{
		Teacher:     *teacher,
		RatingStats: s.ratings.Stats(ctx, id),
		Ratings:     s.ratings.ListByTeacher(ctx, id),
	}, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	req.normalize()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage("invalid teacher payload", err))
	}

	teacher := models.Teacher{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Bio:         req.Bio,
		Classes:     req.Classes,
		Tags:        req.Tags,
		RoomNumber:  req.RoomNumber,
		Schedule:    req.Schedule,
	}
	teacher.Normalize()

	unlock := s.writes.lock()
	defer unlock()
	if _, err := s.repo.FindByID(ctx, teacher.ID); err == nil {
		return nil, s.mapError(repository.ErrDuplicateTeacherID, teacher.ID)
	}
	// a new teacher must not inherit ratings left behind under its id
	if stale, err := s.ratings.RemoveAllFor(ctx, teacher.ID); err != nil {
		return nil, persistenceFailure(s.logger, s.metrics, "ratings", err)
	} else if stale > 0 {
		s.logger.Warn("removed stale ratings before create", zap.String("teacher_id", teacher.ID), zap.Int("count", stale))
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, s.mapError(err, teacher.ID)
	}
	s.afterMutation(ctx, "create")
	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID))
	created := teacher.Clone()
	return &created, nil
}

// Update applies the provided fields to an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage("invalid teacher payload", err))
	}
	if req.ID != nil && strings.TrimSpace(*req.ID) != id {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id cannot be changed")
	}
	if req.Schedule != nil && len(*req.Schedule) > models.MaxScheduleBlocks {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("schedule allows at most %d blocks", models.MaxScheduleBlocks))
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	teacher := *current
	applyString(&teacher.Name, req.Name)
	applyString(&teacher.Description, req.Description)
	applyString(&teacher.Bio, req.Bio)
	applyString(&teacher.RoomNumber, req.RoomNumber)
	if req.Classes != nil {
		teacher.Classes = *req.Classes
	}
	if req.Tags != nil {
		teacher.Tags = *req.Tags
	}
	if req.Schedule != nil {
		teacher.Schedule = *req.Schedule
	}
	teacher.Normalize()
	if missing := teacher.MissingFields(); len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
	}

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, s.mapError(err, id)
	}
	s.afterMutation(ctx, "update")
	s.logger.Info("teacher updated", zap.String("teacher_id", id))
	return &teacher, nil
}

// Delete removes a teacher and every rating attached to it.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	unlock := s.writes.lock()
	defer unlock()
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}
	removed, err := s.ratings.RemoveAllFor(ctx, id)
	if err != nil {
		s.afterMutation(ctx, "delete")
		s.logger.Error("teacher deleted but rating cascade failed", zap.String("teacher_id", id), zap.Error(err))
		return persistenceFailure(s.logger, s.metrics, "ratings", err)
	}
	s.afterMutation(ctx, "delete")
	s.logger.Info("teacher deleted", zap.String("teacher_id", id), zap.Int("ratings_removed", removed))
	return nil
}

// PruneOrphanRatings removes ratings whose teacher is not stored, such as
// those left by a cascade that failed to persist.
func (s *TeacherService) PruneOrphanRatings(ctx context.Context) (int, error) {
	unlock := s.writes.lock()
	defer unlock()
	known := make(map[string]struct{})
	for _, t := range s.repo.All(ctx) {
		known[t.ID] = struct{}{}
	}
	removed, err := s.ratings.RemoveOrphans(ctx, func(teacherID string) bool {
		_, ok := known[teacherID]
		return ok
	})
	if err != nil {
		return 0, persistenceFailure(s.logger, s.metrics, "ratings", err)
	}
	if removed > 0 {
		s.cache.Invalidate(ctx, teacherListCachePattern)
		s.logger.Warn("orphan ratings removed", zap.Int("count", removed))
	}
	return removed, nil
}

// Count returns how many teachers are stored.
func (s *TeacherService) Count(ctx context.Context) int {
	return len(s.repo.All(ctx))
}

func (s *TeacherService) afterMutation(ctx context.Context, action string) {
	s.cache.Invalidate(ctx, teacherListCachePattern)
	s.metrics.RecordAdminMutation("teacher", action)
	s.metrics.SetTeacherCount(s.Count(ctx))
}

func (s *TeacherService) mapError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrTeacherNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "Teacher not found")
	case errors.Is(err, repository.ErrDuplicateTeacherID):
		return appErrors.Clone(appErrors.ErrDuplicateID, fmt.Sprintf("teacher %q already exists", id))
	case repository.IsPersistence(err):
		return persistenceFailure(s.logger, s.metrics, "teachers", err)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "teacher operation failed")
	}
}

func applyString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func persistenceFailure(logger *zap.Logger, metrics *MetricsService, store string, err error) error {
	logger.Error("persistence failed", zap.String("store", store), zap.Error(err))
	metrics.RecordPersistenceFailure(store)
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
}

func validationMessage(prefix string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return prefix
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
	}
	return prefix + ": " + strings.Join(fields, ", ")
}
