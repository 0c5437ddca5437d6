package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxScheduleBlocks is the number of class blocks a teacher profile can list.
const MaxScheduleBlocks = 4

// DefaultGrade fills schedule blocks that were saved without a grade.
const DefaultGrade = "N/A"

// Teacher represents a profile visitors can browse and rate.
type Teacher struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Bio         string          `json:"bio"`
	Classes     StringList      `json:"classes"`
	Tags        StringList      `json:"tags"`
	RoomNumber  string          `json:"room_number"`
	Schedule    []ScheduleBlock `json:"schedule"`
}

// ScheduleBlock is one period of a teacher's day.
type ScheduleBlock struct {
	Block   string `json:"block"`
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (t Teacher) Clone() Teacher {
	cp := t
	cp.Classes = append(StringList(nil), t.Classes...)
	cp.Tags = append(StringList(nil), t.Tags...)
	cp.Schedule = append([]ScheduleBlock(nil), t.Schedule...)
	if cp.Classes == nil {
		cp.Classes = StringList{}
	}
	if cp.Tags == nil {
		cp.Tags = StringList{}
	}
	if cp.Schedule == nil {
		cp.Schedule = []ScheduleBlock{}
	}
	return cp
}

// MissingFields lists the required fields that are empty after trimming.
func (t Teacher) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("id", t.ID)
	check("name", t.Name)
	check("description", t.Description)
	check("bio", t.Bio)
	if len(NormalizeList(t.Classes)) == 0 {
		missing = append(missing, "classes")
	}
	if len(NormalizeList(t.Tags)) == 0 {
		missing = append(missing, "tags")
	}
	check("room_number", t.RoomNumber)
	return missing
}

// Normalize trims free-text fields, cleans list entries and fills schedule defaults.
func (t *Teacher) Normalize() {
	t.ID = CleanText(t.ID)
	t.Name = CleanText(t.Name)
	t.Description = CleanText(t.Description)
	t.Bio = CleanText(t.Bio)
	t.RoomNumber = CleanText(t.RoomNumber)
	t.Classes = NormalizeList(t.Classes)
	t.Tags = NormalizeList(t.Tags)
	t.Schedule = NormalizeSchedule(t.Schedule)
}

// CleanText trims s and folds CRLF line breaks to LF, which is what the CSV
// reader hands back for a quoted field.
func CleanText(s string) string {
	for strings.Contains(s, "\r\n") {
		s = strings.ReplaceAll(s, "\r\n", "\n")
	}
	return strings.TrimSpace(s)
}

// NormalizeSchedule drops empty blocks, caps the list and fills labels and grades.
func NormalizeSchedule(blocks []ScheduleBlock) []ScheduleBlock {
	out := make([]ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		b.Subject = CleanText(b.Subject)
		b.Grade = CleanText(b.Grade)
		b.Block = CleanText(b.Block)
		if b.Subject == "" && (b.Grade == "" || b.Grade == DefaultGrade) {
			continue
		}
		if len(out) == MaxScheduleBlocks {
			break
		}
		if b.Block == "" {
			b.Block = fmt.Sprintf("Block %d", len(out)+1)
		}
		if b.Grade == "" {
			b.Grade = DefaultGrade
		}
		out = append(out, b)
	}
	return out
}

// StringList is an ordered list of labels. It decodes from either a JSON array
// or a single comma-separated string, the way the admin form submits it.
type StringList []string

// UnmarshalJSON accepts `["a","b"]` and `"a, b"`.
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*l = SplitList(raw)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected array or comma-separated string: %w", err)
	}
	*l = NormalizeList(items)
	return nil
}

// SplitList splits comma-separated input, trimming entries and dropping empties.
func SplitList(raw string) StringList {
	return NormalizeList(strings.Split(raw, ","))
}

// NormalizeList trims entries and drops empty ones, never returning nil.
func NormalizeList(items []string) StringList {
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if trimmed := CleanText(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// TeacherSummary is a teacher annotated with its rating aggregate.
type TeacherSummary struct {
	Teacher
	RatingStats
}

// TeacherDetail adds the individual ratings to the summary.
type TeacherDetail struct {
	Teacher
	RatingStats
	Ratings []Rating `json:"ratings"`
}

// Sort keys accepted by teacher listings.
const (
	SortDefault      = "default"
	SortAlphabetical = "alphabetical"
	SortRatings      = "ratings"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	SortBy    string
	Direction string
	Page      int
	PerPage   int
}

// TeacherPage is one page of a filtered listing plus the total match count.
type TeacherPage struct {
	Teachers []TeacherSummary `json:"teachers"`
	Total    int              `json:"total"`
}
