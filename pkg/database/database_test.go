package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

func TestClassify(t *testing.T) {
	unique := &pgconn.PgError{Code: UniqueViolation, ConstraintName: "event_attendees_event_user_key"}
	tests := []struct {
		name string
		err  error
		want apperr.Code
	}{
		{"nil", nil, ""},
		{"unique", unique, apperr.CodeConstraintViolation},
		{"foreign key", &pgconn.PgError{Code: ForeignKeyViolation}, apperr.CodeConstraintViolation},
		{"check", &pgconn.PgError{Code: CheckViolation}, apperr.CodeConstraintViolation},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), apperr.CodePersistenceUnavailable},
		{"already coded", apperr.ErrEventFull, apperr.CodeEventFull},
		{"no rows", pgx.ErrNoRows, apperr.CodeUnknown},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, apperr.CodeUnknown},
		{"plain", errors.New("boom"), apperr.CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.want, apperr.CodeOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestConstraintHelpers(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: UniqueViolation, ConstraintName: "event_checkins_one_open_session"})
	assert.True(t, IsUniqueViolation(unique, ""))
	assert.True(t, IsUniqueViolation(unique, "event_checkins_one_open_session"))
	assert.False(t, IsUniqueViolation(unique, "other"))
	assert.False(t, IsForeignKeyViolation(unique))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: ForeignKeyViolation}))
}

func TestMigrationNamesOrdered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_schema.sql", names[0])
	assert.IsIncreasing(t, names)
}

func TestMigrateRunsEachFile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	names, err := MigrationNames()
	require.NoError(t, err)
	for range names {
		mock.ExpectExec(".+").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
	require.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(".+").WillReturnError(errors.New("syntax error"))
	err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_schema.sql")
}
