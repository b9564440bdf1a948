package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherRepository reads teachers and the subjects they are qualified for.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListActive returns active teachers ordered by name.
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, active FROM teachers WHERE active = TRUE ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// ListQualifications returns teacher/subject qualification pairs for active teachers.
func (r *TeacherRepository) ListQualifications(ctx context.Context) ([]models.TeacherSubject, error) {
	const query = `
SELECT ts.teacher_id, ts.subject_id
FROM teacher_subjects ts
JOIN teachers t ON t.id = ts.teacher_id
WHERE t.active = TRUE
ORDER BY ts.teacher_id ASC, ts.subject_id ASC`
	var links []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list teacher qualifications: %w", err)
	}
	return links, nil
}
