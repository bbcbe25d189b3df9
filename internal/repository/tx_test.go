package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactorCommitsAndSharesTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	tx := NewTransactor(db)
	teachers := NewTeacherRepository(db, nil)
	students := NewStudentRepository(db, nil)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO teachers").
		WillReturnRows(sqlmock.NewRows(teacherCols).AddRow("t1", "teacherken@gmail.com", now, now))
	mock.ExpectQuery("INSERT INTO students").
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow("s1", "studentjon@gmail.com", false, now, now))
	mock.ExpectCommit()

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, _, err := teachers.FindOrCreate(ctx, "teacherken@gmail.com"); err != nil {
			return err
		}
		_, _, err := students.FindOrCreate(ctx, "studentjon@gmail.com")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	tx := NewTransactor(db)
	students := NewStudentRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO students").WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		_, _, err := students.FindOrCreate(ctx, "studentjon@gmail.com")
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorRollsBackOnPanic(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	tx := NewTransactor(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tx.WithinTx(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorNestedReusesOuter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	tx := NewTransactor(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return tx.WithinTx(ctx, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorBeginFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	tx := NewTransactor(db)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	called := false
	err := tx.WithinTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "begin transaction")
}
