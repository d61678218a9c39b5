package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "regions", []string{"code"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"regions"}, []string{"code", "point_count"}).WillReturnResult(2)

	rows := [][]any{{"11000", 2}, {"60200", 1}}
	n, err := CopyFrom(context.Background(), mock, "regions", []string{"code", "point_count"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"regions"}, []string{"code"}).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "regions", []string{"code"}, [][]any{{"11000"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO regions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"psc", "regions"}, []string{"code"}).WillReturnResult(1)

	n, err := CopyFromSchema(context.Background(), mock, "psc", "regions", []string{"code"}, [][]any{{"11000"}})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"psc", "regions"}, []string{"code"}).WillReturnError(fmt.Errorf("permission denied"))

	_, err = CopyFromSchema(context.Background(), mock, "psc", "regions", []string{"code"}, [][]any{{"11000"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO psc.regions")
	assert.NoError(t, mock.ExpectationsWereMet())
}
