package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/textpilot/bulksms-backend/internal/model"
)

// PostgresTemplateStore reads provider templates synced into the templates
// table. Templates are immutable once fetched.
type PostgresTemplateStore struct {
	DB *sql.DB
}

func (s *PostgresTemplateStore) GetTemplates(ctx context.Context, provider model.Provider) ([]model.Template, error) {
	query := `
        SELECT id, provider, name, raw_text, regulatory_id, variable_count
        FROM templates
        WHERE provider = $1
        ORDER BY name
    `
	rows, err := s.DB.QueryContext(ctx, query, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Provider, &t.Name, &t.RawText, &t.RegulatoryID, &t.VariableCount); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *PostgresTemplateStore) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	query := `
        SELECT id, provider, name, raw_text, regulatory_id, variable_count
        FROM templates
        WHERE id = $1
    `
	var t model.Template
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Provider, &t.Name, &t.RawText, &t.RegulatoryID, &t.VariableCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("template %s not found", id)
		}
		return nil, err
	}
	return &t, nil
}

var _ TemplateStore = (*PostgresTemplateStore)(nil)
