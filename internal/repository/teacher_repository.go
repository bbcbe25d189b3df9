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

const teacherColumns = "id, email, created_at, updated_at"

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	base
}

// NewTeacherRepository constructs a TeacherRepository. observer may be nil.
func NewTeacherRepository(db *sqlx.DB, observer QueryObserver) *TeacherRepository {
	return &TeacherRepository{base: base{db: db, observer: observer}}
}

// FindOrCreate inserts a teacher for email unless one exists and reports
// whether a row was created. The insert relies on the unique email index;
// on conflict the existing row is re-read.
func (r *TeacherRepository) FindOrCreate(ctx context.Context, email string) (*models.Teacher, bool, error) {
	defer r.track("teachers.find_or_create", time.Now())

	now := time.Now().UTC()
	const query = `INSERT INTO teachers (id, email, created_at, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO NOTHING RETURNING ` + teacherColumns
	var teacher models.Teacher
	err := sqlx.GetContext(ctx, r.ext(ctx), &teacher, query, uuid.NewString(), email, now, now)
	if err == nil {
		return &teacher, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert teacher: %w", err)
	}

	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("reload teacher: %w", err)
	}
	return existing, false, nil
}

// FindByEmail fetches a teacher by email. It returns sql.ErrNoRows when absent.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	defer r.track("teachers.find_by_email", time.Now())

	const query = `SELECT ` + teacherColumns + ` FROM teachers WHERE email = $1`
	var teacher models.Teacher
	if err := sqlx.GetContext(ctx, r.ext(ctx), &teacher, query, email); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByEmails returns the teachers whose email is in emails, ordered by email.
func (r *TeacherRepository) FindByEmails(ctx context.Context, emails []string) ([]models.Teacher, error) {
	if len(emails) == 0 {
		return []models.Teacher{}, nil
	}
	defer r.track("teachers.find_by_emails", time.Now())

	const query = `SELECT ` + teacherColumns + ` FROM teachers WHERE email = ANY($1) ORDER BY email`
	teachers := []models.Teacher{}
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &teachers, query, pq.Array(emails)); err != nil {
		return nil, fmt.Errorf("find teachers by email: %w", err)
	}
	return teachers, nil
}
