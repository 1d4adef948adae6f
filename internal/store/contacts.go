package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/textpilot/bulksms-backend/internal/model"
)

// PostgresContactStore reads recipients out of the contacts table. Extra
// personalization fields live in a jsonb column keyed by field name.
type PostgresContactStore struct {
	DB *sql.DB
}

func (s *PostgresContactStore) GetRecipients(ctx context.Context, listID string) ([]model.Recipient, error) {
	query := `
        SELECT phone, name, extra_fields
        FROM contacts
        WHERE list_id = $1
        ORDER BY id
    `
	rows, err := s.DB.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		var r model.Recipient
		var extra []byte
		if err := rows.Scan(&r.Phone, &r.Name, &extra); err != nil {
			return nil, err
		}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &r.ExtraFields); err != nil {
				return nil, err
			}
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

var _ ContactStore = (*PostgresContactStore)(nil)
