package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/pkg/storage"
)

var ratingColumns = []string{"id", "teacher_id", "rating", "comment", "created_at"}

// RatingRepository holds submitted ratings. It is durable only when a file
// store is supplied; without one ratings are lost on restart.
type RatingRepository struct {
	store  fileStore
	file   string
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	ratings []models.Rating
}

// NewRatingRepository constructs the repository. store may be nil.
func NewRatingRepository(store fileStore, file string, logger *zap.Logger) *RatingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingRepository{store: store, file: file, logger: logger, now: time.Now}
}

// Durable reports whether ratings survive a restart.
func (r *RatingRepository) Durable() bool {
	return r.store != nil
}

// Load reads persisted ratings. It is a no-op for in-memory repositories.
func (r *RatingRepository) Load(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	data, err := r.store.Read(r.file)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	ratings := make([]models.Rating, 0)
	seen := make(map[string]struct{})
	err = readCSV(data, ratingColumns, r.logger, func(row csvRow) {
		score, convErr := strconv.Atoi(row.get("rating"))
		rating := models.Rating{
			ID:        row.get("id"),
			TeacherID: row.get("teacher_id"),
			Rating:    score,
			Comment:   row.get("comment"),
		}
		if convErr != nil || rating.TeacherID == "" || !models.ValidScore(score) {
			r.logger.Warn("skipping invalid rating row", zap.Int("line", row.line), zap.String("teacher_id", rating.TeacherID))
			return
		}
		if rating.ID == "" {
			rating.ID = uuid.NewString()
		}
		if _, dup := seen[rating.ID]; dup {
			r.logger.Warn("skipping duplicate rating id", zap.Int("line", row.line), zap.String("id", rating.ID))
			return
		}
		seen[rating.ID] = struct{}{}
		if ts, tsErr := time.Parse(time.RFC3339Nano, row.get("created_at")); tsErr == nil {
			rating.CreatedAt = ts
		}
		ratings = append(ratings, rating)
	})
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.ratings = ratings
	r.mu.Unlock()
	return len(ratings), nil
}

func (r *RatingRepository) persist(ratings []models.Rating) error {
	if r.store == nil {
		return nil
	}
	rows := make([][]string, 0, len(ratings))
	for _, rt := range ratings {
		rows = append(rows, []string{
			rt.ID,
			rt.TeacherID,
			strconv.Itoa(rt.Rating),
			rt.Comment,
			rt.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	data, err := writeCSV(ratingColumns, rows)
	if err != nil {
		return &PersistenceError{Op: "encode ratings", Path: r.file, Err: err}
	}
	if err := r.store.WriteAtomic(r.file, data); err != nil {
		return &PersistenceError{Op: "save ratings", Path: r.file, Err: err}
	}
	return nil
}

// Add stores a new rating. It does not know about voters; duplicate-vote
// checks belong to the caller.
func (r *RatingRepository) Add(ctx context.Context, rating models.Rating) (models.Rating, error) {
	rating.TeacherID = strings.TrimSpace(rating.TeacherID)
	rating.Comment = models.CleanText(rating.Comment)
	if rating.TeacherID == "" || !models.ValidScore(rating.Rating) {
		return models.Rating{}, ErrInvalidRating
	}
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]models.Rating, len(r.ratings), len(r.ratings)+1)
	copy(next, r.ratings)
	next = append(next, rating)
	if err := r.persist(next); err != nil {
		return models.Rating{}, err
	}
	r.ratings = next
	return rating, nil
}

// All returns every rating in submission order.
func (r *RatingRepository) All(ctx context.Context) []models.Rating {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Rating{}, r.ratings...)
}

// ListByTeacher returns the ratings for one teacher in submission order.
func (r *RatingRepository) ListByTeacher(ctx context.Context, teacherID string) []models.Rating {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Rating, 0)
	for _, rt := range r.ratings {
		if rt.TeacherID == teacherID {
			out = append(out, rt)
		}
	}
	return out
}

// Update changes the score and comment of one rating. An empty ratingID is
// accepted only when the teacher has exactly one rating.
func (r *RatingRepository) Update(ctx context.Context, teacherID, ratingID string, score int, comment string) (models.Rating, error) {
	if !models.ValidScore(score) {
		return models.Rating{}, ErrInvalidRating
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.locate(teacherID, ratingID)
	if err != nil {
		return models.Rating{}, err
	}
	next := append([]models.Rating{}, r.ratings...)
	next[idx].Rating = score
	next[idx].Comment = models.CleanText(comment)
	if err := r.persist(next); err != nil {
		return models.Rating{}, err
	}
	r.ratings = next
	return next[idx], nil
}

// Remove deletes one rating when ratingID is set, otherwise every rating of
// the teacher. It returns how many were removed.
func (r *RatingRepository) Remove(ctx context.Context, teacherID, ratingID string) (int, error) {
	removed, err := r.removeWhere(func(rt models.Rating) bool {
		return rt.TeacherID == teacherID && (ratingID == "" || rt.ID == ratingID)
	})
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, ErrRatingNotFound
	}
	return removed, nil
}

// RemoveAllFor cascades a teacher deletion. Zero matches is not an error.
func (r *RatingRepository) RemoveAllFor(ctx context.Context, teacherID string) (int, error) {
	return r.removeWhere(func(rt models.Rating) bool { return rt.TeacherID == teacherID })
}

// RemoveOrphans drops ratings whose teacher is not known. It returns how many
// were removed.
func (r *RatingRepository) RemoveOrphans(ctx context.Context, known func(teacherID string) bool) (int, error) {
	return r.removeWhere(func(rt models.Rating) bool { return !known(rt.TeacherID) })
}

func (r *RatingRepository) removeWhere(match func(models.Rating) bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]models.Rating, 0, len(r.ratings))
	for _, rt := range r.ratings {
		if !match(rt) {
			next = append(next, rt)
		}
	}
	removed := len(r.ratings) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := r.persist(next); err != nil {
		return 0, err
	}
	r.ratings = next
	return removed, nil
}

func (r *RatingRepository) locate(teacherID, ratingID string) (int, error) {
	found := -1
	for i, rt := range r.ratings {
		if rt.TeacherID != teacherID {
			continue
		}
		if ratingID != "" {
			if rt.ID == ratingID {
				return i, nil
			}
			continue
		}
		if found >= 0 {
			return -1, ErrAmbiguousRating
		}
		found = i
	}
	if found < 0 {
		return -1, ErrRatingNotFound
	}
	return found, nil
}

// Stats aggregates the ratings of one teacher.
func (r *RatingRepository) Stats(ctx context.Context, teacherID string) models.RatingStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scores := make([]int, 0)
	for _, rt := range r.ratings {
		if rt.TeacherID == teacherID {
			scores = append(scores, rt.Rating)
		}
	}
	return models.ComputeStats(scores)
}

// StatsAll aggregates ratings for every teacher that has at least one.
func (r *RatingRepository) StatsAll(ctx context.Context) map[string]models.RatingStats {
	r.mu.RLock()
	byTeacher := make(map[string][]int)
	for _, rt := range r.ratings {
		byTeacher[rt.TeacherID] = append(byTeacher[rt.TeacherID], rt.Rating)
	}
	r.mu.RUnlock()

	out := make(map[string]models.RatingStats, len(byTeacher))
	for id, scores := range byTeacher {
		out[id] = models.ComputeStats(scores)
	}
	return out
}

// AverageFor returns the mean score of a teacher, nil when unrated.
func (r *RatingRepository) AverageFor(ctx context.Context, teacherID string) *float64 {
	return r.Stats(ctx, teacherID).AvgRating
}
