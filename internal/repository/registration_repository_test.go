package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registrationCols = []string{"id", "teacher_id", "student_id", "created_at", "updated_at"}

func TestRegistrationRepositoryFindOrCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db, nil)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (teacher_id, student_id) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "t1", "s1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(registrationCols).AddRow("r1", "t1", "s1", now, now))

	reg, created, err := repo.FindOrCreate(context.Background(), "t1", "s1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "r1", reg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryFindOrCreateExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db, nil)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO registrations").
		WillReturnRows(sqlmock.NewRows(registrationCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM registrations WHERE teacher_id = $1 AND student_id = $2")).
		WithArgs("t1", "s1").
		WillReturnRows(sqlmock.NewRows(registrationCols).AddRow("r-old", "t1", "s1", now, now))

	reg, created, err := repo.FindOrCreate(context.Background(), "t1", "s1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "r-old", reg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
