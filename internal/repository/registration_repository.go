package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classroom-api/internal/models"
)

const registrationColumns = "id, teacher_id, student_id, created_at, updated_at"

// RegistrationRepository manages teacher to student links.
type RegistrationRepository struct {
	base
}

// NewRegistrationRepository constructs a RegistrationRepository. observer may be nil.
func NewRegistrationRepository(db *sqlx.DB, observer QueryObserver) *RegistrationRepository {
	return &RegistrationRepository{base: base{db: db, observer: observer}}
}

// FindOrCreate links teacherID to studentID unless the pair is already linked.
func (r *RegistrationRepository) FindOrCreate(ctx context.Context, teacherID, studentID string) (*models.Registration, bool, error) {
	defer r.track("registrations.find_or_create", time.Now())

	now := time.Now().UTC()
	const query = `INSERT INTO registrations (id, teacher_id, student_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (teacher_id, student_id) DO NOTHING RETURNING ` + registrationColumns
	var registration models.Registration
	err := sqlx.GetContext(ctx, r.ext(ctx), &registration, query, uuid.NewString(), teacherID, studentID, now, now)
	if err == nil {
		return &registration, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert registration: %w", err)
	}

	existing, err := r.Find(ctx, teacherID, studentID)
	if err != nil {
		return nil, false, fmt.Errorf("reload registration: %w", err)
	}
	return existing, false, nil
}

// Find fetches the registration for a pair. It returns sql.ErrNoRows when absent.
func (r *RegistrationRepository) Find(ctx context.Context, teacherID, studentID string) (*models.Registration, error) {
	defer r.track("registrations.find", time.Now())

	const query = `SELECT ` + registrationColumns + ` FROM registrations WHERE teacher_id = $1 AND student_id = $2`
	var registration models.Registration
	if err := sqlx.GetContext(ctx, r.ext(ctx), &registration, query, teacherID, studentID); err != nil {
		return nil, err
	}
	return &registration, nil
}
