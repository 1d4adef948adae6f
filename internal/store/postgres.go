package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/textpilot/bulksms-backend/internal/errors"
	"github.com/textpilot/bulksms-backend/internal/model"
)

// PostgresCampaignStore persists campaigns and their per-recipient outcomes
// in two tables: campaigns and campaign_recipients.
type PostgresCampaignStore struct {
	DB *sql.DB
}

func (s *PostgresCampaignStore) Create(ctx context.Context, c *model.Campaign) error {
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	query := `
        INSERT INTO campaigns (id, name, provider, status, message, scheduled_at, total, sent, failed, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := s.DB.ExecContext(ctx, query,
		c.ID, c.Name, c.Provider, c.Status, c.Message, c.ScheduledAt,
		c.Stats.Total, c.Stats.Sent, c.Stats.Failed, c.CreatedAt,
	)
	return err
}

func (s *PostgresCampaignStore) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := `
        SELECT id, name, provider, status, message, scheduled_at, total, sent, failed, created_at, sent_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Provider, &c.Status, &c.Message, &c.ScheduledAt,
		&c.Stats.Total, &c.Stats.Sent, &c.Stats.Failed, &c.CreatedAt, &c.SentAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT phone, status, error_detail, link FROM campaign_recipients WHERE campaign_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.RecipientOutcome
		if err := rows.Scan(&o.Phone, &o.Status, &o.ErrorDetail, &o.Link); err != nil {
			return nil, err
		}
		c.Recipients = append(c.Recipients, o)
	}
	return &c, rows.Err()
}

func (s *PostgresCampaignStore) List(ctx context.Context, offset, limit int, provider, status string) ([]model.Campaign, int, error) {
	campaigns := []model.Campaign{}
	query := `SELECT id, name, provider, status, message, scheduled_at, total, sent, failed, created_at, sent_at FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if provider != "" {
		query += fmt.Sprintf(" AND provider=$%d", argPos)
		args = append(args, provider)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Provider, &c.Status, &c.Message, &c.ScheduledAt,
			&c.Stats.Total, &c.Stats.Sent, &c.Stats.Failed, &c.CreatedAt, &c.SentAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	argPosCount := 1
	if provider != "" {
		countQuery += fmt.Sprintf(" AND provider=$%d", argPosCount)
		argsCount = append(argsCount, provider)
		argPosCount++
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// MarkSending is the compare-and-swap status transition: only draft and
// scheduled campaigns may enter sending, and only once.
func (s *PostgresCampaignStore) MarkSending(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE campaigns SET status=$1 WHERE id=$2 AND status IN ($3, $4)`,
		model.StatusSending, id, model.StatusDraft, model.StatusScheduled,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Nothing transitioned: either the campaign is gone or it already
	// dispatched.
	var status string
	err = s.DB.QueryRowContext(ctx, `SELECT status FROM campaigns WHERE id=$1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return appErrors.NewCampaignNotFound(id)
	}
	if err != nil {
		return err
	}
	return appErrors.NewAlreadyDispatched(id)
}

func (s *PostgresCampaignStore) Finalize(ctx context.Context, id string, status model.CampaignStatus, stats model.CampaignStats, outcomes []model.RecipientOutcome, sentAt time.Time) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE campaigns SET status=$1, total=$2, sent=$3, failed=$4, sent_at=$5 WHERE id=$6`,
		status, stats.Total, stats.Sent, stats.Failed, sentAt, id,
	)
	if err != nil {
		return err
	}

	for _, o := range outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO campaign_recipients (campaign_id, phone, status, error_detail, link) VALUES ($1, $2, $3, $4, $5)`,
			id, o.Phone, o.Status, o.ErrorDetail, o.Link,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *PostgresCampaignStore) Delete(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_recipients WHERE campaign_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return tx.Commit()
}

var _ CampaignStore = (*PostgresCampaignStore)(nil)
