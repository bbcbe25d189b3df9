package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/classroom-api/internal/models"
)

const studentColumns = "id, email, suspended, created_at, updated_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	base
}

// NewStudentRepository constructs a StudentRepository. observer may be nil.
func NewStudentRepository(db *sqlx.DB, observer QueryObserver) *StudentRepository {
	return &StudentRepository{base: base{db: db, observer: observer}}
}

// FindOrCreate inserts a non-suspended student for email unless one exists.
// An existing student keeps its suspension state.
func (r *StudentRepository) FindOrCreate(ctx context.Context, email string) (*models.Student, bool, error) {
	defer r.track("students.find_or_create", time.Now())

	now := time.Now().UTC()
	const query = `INSERT INTO students (id, email, suspended, created_at, updated_at) VALUES ($1, $2, FALSE, $3, $4)
ON CONFLICT (email) DO NOTHING RETURNING ` + studentColumns
	var student models.Student
	err := sqlx.GetContext(ctx, r.ext(ctx), &student, query, uuid.NewString(), email, now, now)
	if err == nil {
		return &student, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert student: %w", err)
	}

	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("reload student: %w", err)
	}
	return existing, false, nil
}

// FindByEmail fetches a student by email. It returns sql.ErrNoRows when absent.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	defer r.track("students.find_by_email", time.Now())

	const query = `SELECT ` + studentColumns + ` FROM students WHERE email = $1`
	var student models.Student
	if err := sqlx.GetContext(ctx, r.ext(ctx), &student, query, email); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindActiveByEmails returns the non-suspended students among emails.
func (r *StudentRepository) FindActiveByEmails(ctx context.Context, emails []string) ([]models.Student, error) {
	if len(emails) == 0 {
		return []models.Student{}, nil
	}
	defer r.track("students.find_active_by_emails", time.Now())

	const query = `SELECT ` + studentColumns + ` FROM students WHERE email = ANY($1) AND suspended = FALSE ORDER BY email`
	students := []models.Student{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &students, query, pq.Array(emails)); err != nil {
		return nil, fmt.Errorf("find active students by email: %w", err)
	}
	return students, nil
}

// FindActiveByTeacher returns the non-suspended students registered to teacherID.
func (r *StudentRepository) FindActiveByTeacher(ctx context.Context, teacherID string) ([]models.Student, error) {
	defer r.track("students.find_active_by_teacher", time.Now())

	const query = `SELECT s.id, s.email, s.suspended, s.created_at, s.updated_at
FROM students s
JOIN registrations r ON r.student_id = s.id
WHERE r.teacher_id = $1 AND s.suspended = FALSE
ORDER BY s.email`
	students := []models.Student{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &students, query, teacherID); err != nil {
		return nil, fmt.Errorf("find active students by teacher: %w", err)
	}
	return students, nil
}

// FindRegisteredToAll returns the students holding a registration to every
// teacher in teacherIDs. The IDs must be distinct.
func (r *StudentRepository) FindRegisteredToAll(ctx context.Context, teacherIDs []string) ([]models.Student, error) {
	if len(teacherIDs) == 0 {
		return []models.Student{}, nil
	}
	defer r.track("students.find_registered_to_all", time.Now())

	const query = `SELECT s.id, s.email, s.suspended, s.created_at, s.updated_at
FROM students s
JOIN registrations r ON r.student_id = s.id
WHERE r.teacher_id = ANY($1)
GROUP BY s.id, s.email, s.suspended, s.created_at, s.updated_at
HAVING COUNT(DISTINCT r.teacher_id) = $2
ORDER BY s.email`
	students := []models.Student{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &students, query, pq.Array(teacherIDs), len(teacherIDs)); err != nil {
		return nil, fmt.Errorf("find common students: %w", err)
	}
	return students, nil
}

// Update persists the mutable fields of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	defer r.track("students.update", time.Now())

	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET suspended = :suspended, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.ext(ctx), query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}
