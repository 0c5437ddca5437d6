package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Rating is a single visitor score for a teacher.
type Rating struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidScore reports whether score is inside the accepted star range.
func ValidScore(score int) bool {
	return score >= MinRating && score <= MaxRating
}

// RatingStats is the aggregate computed from a teacher's ratings on every read.
type RatingStats struct {
	AvgRating   *float64 `json:"avg_rating"`
	RatingCount int      `json:"rating_count"`
}

// ComputeStats averages the given scores; AvgRating stays nil for an empty set.
func ComputeStats(scores []int) RatingStats {
	if len(scores) == 0 {
		return RatingStats{}
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := float64(sum) / float64(len(scores))
	return RatingStats{AvgRating: &avg, RatingCount: len(scores)}
}

// AvgOrZero returns the mean or 0 for unrated teachers.
func (s RatingStats) AvgOrZero() float64 {
	if s.AvgRating == nil {
		return 0
	}
	return *s.AvgRating
}

// RoundStars rounds an average to the nearest half star for display.
func RoundStars(avg float64) float64 {
	return math.Round(avg*2) / 2
}

// Score is a star value that decodes from a JSON number or a numeric string,
// since form-driven clients send either.
type Score int

// UnmarshalJSON accepts `4` and `"4"`.
func (s *Score) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = 0
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("rating must be a whole number: %w", err)
		}
		*s = Score(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rating must be a whole number: %w", err)
	}
	*s = Score(v)
	return nil
}
