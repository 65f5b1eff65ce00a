package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield-hms/roster-api/internal/models"
)

func newSwapMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSwapRequestRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSwapMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	mock.ExpectExec("INSERT INTO shift_swap_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.ShiftSwapRequest{
		OriginalShiftID:   "shift-1",
		RequestingStaffID: "staff-a",
		Status:            models.SwapStatusPending,
		Reason:            "childcare",
		ExpiresAt:         time.Date(2026, time.January, 18, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), request))
	assert.NotEmpty(t, request.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newSwapMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	mock.ExpectExec("UPDATE shift_swap_requests SET status").
		WithArgs("swap-1", models.SwapStatusApproved, sqlmock.AnyArg(), models.SwapStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.UpdateStatus(context.Background(), nil, "swap-1", models.SwapStatusApproved)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A request already resolved concurrently matches zero rows.
	mock.ExpectExec("UPDATE shift_swap_requests SET status").
		WithArgs("swap-1", models.SwapStatusApproved, sqlmock.AnyArg(), models.SwapStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err = repo.UpdateStatus(context.Background(), nil, "swap-1", models.SwapStatusApproved)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryListExpiredPending(t *testing.T) {
	db, mock, cleanup := newSwapMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	now := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -5)
	rows := sqlmock.NewRows([]string{"id", "original_shift_id", "proposed_shift_id", "requesting_staff_id", "requested_staff_id", "status", "reason", "expires_at", "constraints", "created_at", "updated_at"}).
		AddRow("swap-1", "shift-1", nil, "staff-a", nil, "PENDING", "childcare", now.AddDate(0, 0, -1), []byte(`{}`), created, created)
	mock.ExpectQuery("SELECT (.+) FROM shift_swap_requests WHERE status").
		WithArgs(models.SwapStatusPending, now).
		WillReturnRows(rows)

	requests, err := repo.ListExpiredPending(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "swap-1", requests[0].ID)
	assert.True(t, requests[0].Expired(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}
