package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/result-api/internal/models"
)

func newParameterMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEvaluationParameterRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newParameterMock(t)
	defer cleanup()
	repo := NewEvaluationParameterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "deleted_at", "created_at", "updated_at"}).
		AddRow("par-att", "ATT", "Attendance", nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM evaluation_parameters WHERE deleted_at IS NULL").
		WithArgs("%att%").
		WillReturnRows(rows)

	parameters, err := repo.List(context.Background(), "Att")
	require.NoError(t, err)
	require.Len(t, parameters, 1)
	assert.Equal(t, "ATT", parameters[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationParameterRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newParameterMock(t)
	defer cleanup()
	repo := NewEvaluationParameterRepository(db)

	mock.ExpectQuery("SELECT 1 FROM evaluation_parameters").
		WithArgs("ATT").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByCode(context.Background(), "ATT", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM evaluation_parameters").
		WithArgs("NEW").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByCode(context.Background(), "NEW", "")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationParameterRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newParameterMock(t)
	defer cleanup()
	repo := NewEvaluationParameterRepository(db)

	mock.ExpectExec("INSERT INTO evaluation_parameters").
		WithArgs(sqlmock.AnyArg(), "ATT", "Attendance", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	parameter := &models.EvaluationParameter{Code: "ATT", Name: "Attendance"}
	err := repo.Create(context.Background(), parameter)
	require.NoError(t, err)
	assert.NotEmpty(t, parameter.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationParameterRepositorySoftDeleteMissing(t *testing.T) {
	db, mock, cleanup := newParameterMock(t)
	defer cleanup()
	repo := NewEvaluationParameterRepository(db)

	mock.ExpectExec("UPDATE evaluation_parameters SET deleted_at").
		WithArgs("par-gone", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), "par-gone")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
