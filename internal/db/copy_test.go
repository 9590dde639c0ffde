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
	n, err := CopyFrom(context.TODO(), nil, "indicators_derived", []string{"stock_code", "report_period"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"indicators_derived"}, []string{"stock_code", "report_period", "indicators"}).
		WillReturnResult(2)

	rows := [][]any{
		{"600519", "2022-12-31", `{"roe":30.2}`},
		{"600519", "2023-12-31", `{"roe":31.8}`},
	}
	n, err := CopyFrom(context.Background(), mock, "indicators_derived", []string{"stock_code", "report_period", "indicators"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"indicators_derived"}, []string{"stock_code", "report_period"}).
		WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "indicators_derived", []string{"stock_code", "report_period"}, [][]any{{"600519", "2023-12-31"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO indicators_derived")
	assert.NoError(t, mock.ExpectationsWereMet())
}
