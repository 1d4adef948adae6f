package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/textpilot/bulksms-backend/internal/errors"
	"github.com/textpilot/bulksms-backend/internal/model"
)

func newMockStore(t *testing.T) (*PostgresCampaignStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresCampaignStore{DB: db}, mock
}

func TestMarkSendingTransitionsDraft(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE campaigns SET status=\$1 WHERE id=\$2 AND status IN \(\$3, \$4\)`).
		WithArgs(model.StatusSending, "c1", model.StatusDraft, model.StatusScheduled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.MarkSending(context.Background(), "c1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSendingRejectsTerminalCampaign(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE campaigns SET status=`).
		WithArgs(model.StatusSending, "c1", model.StatusDraft, model.StatusScheduled).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM campaigns WHERE id=\$1`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))

	err := s.MarkSending(context.Background(), "c1")
	var dispatched *appErrors.AlreadyDispatchedError
	require.ErrorAs(t, err, &dispatched)
	assert.Equal(t, "c1", dispatched.CampaignID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSendingMissingCampaign(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE campaigns SET status=`).
		WithArgs(model.StatusSending, "nope", model.StatusDraft, model.StatusScheduled).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM campaigns WHERE id=\$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := s.MarkSending(context.Background(), "nope")
	var notFound *appErrors.ErrCampaignNotFound
	require.ErrorAs(t, err, &notFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeWritesStatsAndOutcomesInOneTx(t *testing.T) {
	s, mock := newMockStore(t)
	sentAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	outcomes := []model.RecipientOutcome{
		{Phone: "911", Status: model.OutcomeSent},
		{Phone: "912", Status: model.OutcomeFailed, ErrorDetail: "Invalid number"},
	}
	stats := model.CampaignStats{Total: 2, Sent: 1, Failed: 1}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE campaigns SET status=\$1, total=\$2, sent=\$3, failed=\$4, sent_at=\$5 WHERE id=\$6`).
		WithArgs(model.StatusCompleted, 2, 1, 1, sentAt, "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO campaign_recipients`).
		WithArgs("c1", "911", model.OutcomeSent, "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO campaign_recipients`).
		WithArgs("c1", "912", model.OutcomeFailed, "Invalid number", "").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Finalize(context.Background(), "c1", model.StatusCompleted, stats, outcomes, sentAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeRollsBackOnInsertFailure(t *testing.T) {
	s, mock := newMockStore(t)
	sentAt := time.Now()
	outcomes := []model.RecipientOutcome{{Phone: "911", Status: model.OutcomeSent}}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE campaigns SET status=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO campaign_recipients`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.Finalize(context.Background(), "c1", model.StatusCompleted, model.CampaignStats{Total: 1, Sent: 1}, outcomes, sentAt)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, provider, status`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetByID(context.Background(), "ghost")
	var notFound *appErrors.ErrCampaignNotFound
	require.ErrorAs(t, err, &notFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersByProviderAndStatus(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "name", "provider", "status", "message", "scheduled_at", "total", "sent", "failed", "created_at", "sent_at"}).
		AddRow("c1", "Diwali blast", "msg91", "completed", "Hi", nil, 10, 9, 1, now, now)

	mock.ExpectQuery(`SELECT .+ FROM campaigns WHERE 1=1 AND provider=\$1 AND status=\$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("msg91", "completed", 20, 0).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM campaigns WHERE 1=1 AND provider=\$1 AND status=\$2`).
		WithArgs("msg91", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	campaigns, total, err := s.List(context.Background(), 0, 20, "msg91", "completed")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Diwali blast", campaigns[0].Name)
	assert.Equal(t, 9, campaigns[0].Stats.Sent)
}
