package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/pkg/storage"
)

var teacherColumns = []string{"id", "name", "description", "bio", "classes", "tags", "room_number", "schedule"}

// TeacherRepository keeps the teacher table in memory and mirrors every
// mutation to a CSV file. Reads take a shared lock; a mutation holds the
// exclusive lock across the file rewrite so saves never interleave.
type TeacherRepository struct {
	store  fileStore
	file   string
	logger *zap.Logger

	mu       sync.RWMutex
	teachers []models.Teacher
}

// NewTeacherRepository constructs a repository backed by file inside store.
func NewTeacherRepository(store fileStore, file string, logger *zap.Logger) *TeacherRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherRepository{store: store, file: file, logger: logger}
}

// Load replaces the in-memory table with the file contents and returns how
// many teachers were accepted. A missing file yields an empty table.
func (r *TeacherRepository) Load(ctx context.Context) (int, error) {
	data, err := r.store.Read(r.file)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			r.logger.Info("teacher file not found, starting empty", zap.String("file", r.file))
			r.mu.Lock()
			r.teachers = nil
			r.mu.Unlock()
			return 0, nil
		}
		return 0, err
	}

	teachers := make([]models.Teacher, 0)
	seen := make(map[string]struct{})
	err = readCSV(data, teacherColumns, r.logger, func(row csvRow) {
		teacher, ok := r.decodeTeacher(row)
		if !ok {
			return
		}
		if _, dup := seen[teacher.ID]; dup {
			r.logger.Warn("skipping duplicate teacher id", zap.Int("line", row.line), zap.String("id", teacher.ID))
			return
		}
		seen[teacher.ID] = struct{}{}
		teachers = append(teachers, teacher)
	})
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.teachers = teachers
	r.mu.Unlock()
	return len(teachers), nil
}

func (r *TeacherRepository) decodeTeacher(row csvRow) (models.Teacher, bool) {
	teacher := models.Teacher{
		ID:          row.get("id"),
		Name:        row.get("name"),
		Description: row.get("description"),
		Bio:         row.get("bio"),
		Classes:     decodeList(row.get("classes")),
		Tags:        decodeList(row.get("tags")),
		RoomNumber:  row.get("room_number"),
	}
	if missing := teacher.MissingFields(); len(missing) > 0 {
		r.logger.Warn("skipping incomplete teacher row",
			zap.Int("line", row.line),
			zap.String("id", teacher.ID),
			zap.String("missing", strings.Join(missing, ",")))
		return models.Teacher{}, false
	}

	schedule, err := decodeSchedule(row.get("schedule"))
	if err != nil {
		r.logger.Warn("invalid schedule, using empty schedule",
			zap.Int("line", row.line), zap.String("id", teacher.ID), zap.Error(err))
	}
	teacher.Schedule = schedule
	return teacher, true
}

// Save rewrites the file from the current in-memory table.
func (r *TeacherRepository) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persist(r.teachers)
}

func (r *TeacherRepository) persist(teachers []models.Teacher) error {
	rows := make([][]string, 0, len(teachers))
	for _, t := range teachers {
		rows = append(rows, []string{
			t.ID,
			t.Name,
			t.Description,
			t.Bio,
			encodeList(t.Classes),
			encodeList(t.Tags),
			t.RoomNumber,
			encodeSchedule(t.Schedule),
		})
	}
	data, err := writeCSV(teacherColumns, rows)
	if err != nil {
		return &PersistenceError{Op: "encode teachers", Path: r.file, Err: err}
	}
	if err := r.store.WriteAtomic(r.file, data); err != nil {
		return &PersistenceError{Op: "save teachers", Path: r.file, Err: err}
	}
	return nil
}

// All returns copies of every teacher in store order.
func (r *TeacherRepository) All(ctx context.Context) []models.Teacher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Teacher, len(r.teachers))
	for i, t := range r.teachers {
		out[i] = t.Clone()
	}
	return out
}

// FindByID returns a copy of the teacher with id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, ErrTeacherNotFound
	}
	teacher := r.teachers[idx].Clone()
	return &teacher, nil
}

// Exists reports whether a teacher with id is stored.
func (r *TeacherRepository) Exists(ctx context.Context, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// Create appends the teacher and persists the table. The stored copy is
// normalised so it matches what a reload would produce.
func (r *TeacherRepository) Create(ctx context.Context, teacher models.Teacher) error {
	teacher = teacher.Clone()
	teacher.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(teacher.ID) >= 0 {
		return ErrDuplicateTeacherID
	}
	next := make([]models.Teacher, len(r.teachers), len(r.teachers)+1)
	copy(next, r.teachers)
	next = append(next, teacher)
	if err := r.persist(next); err != nil {
		return err
	}
	r.teachers = next
	return nil
}

// Update replaces the stored teacher with the same id, keeping its position.
func (r *TeacherRepository) Update(ctx context.Context, teacher models.Teacher) error {
	teacher = teacher.Clone()
	teacher.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(teacher.ID)
	if idx < 0 {
		return ErrTeacherNotFound
	}
	next := make([]models.Teacher, len(r.teachers))
	copy(next, r.teachers)
	next[idx] = teacher
	if err := r.persist(next); err != nil {
		return err
	}
	r.teachers = next
	return nil
}

// Delete removes the teacher with id and persists the table.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return ErrTeacherNotFound
	}
	next := make([]models.Teacher, 0, len(r.teachers)-1)
	next = append(next, r.teachers[:idx]...)
	next = append(next, r.teachers[idx+1:]...)
	if err := r.persist(next); err != nil {
		return err
	}
	r.teachers = next
	return nil
}

func (r *TeacherRepository) indexOf(id string) int {
	for i := range r.teachers {
		if r.teachers[i].ID == id {
			return i
		}
	}
	return -1
}
