// Package store persists campaign records and exposes the contact and
// template lookups the dispatch engine consumes.
package store

import (
	"context"
	"time"

	"github.com/textpilot/bulksms-backend/internal/model"
)

// CampaignStore is the campaign record store. The dispatch orchestrator is
// the sole writer of stats and status; the store only appends and reads.
type CampaignStore interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	List(ctx context.Context, offset, limit int, provider, status string) ([]model.Campaign, int, error)
	// MarkSending atomically moves a draft or scheduled campaign into
	// sending. Any other starting status yields AlreadyDispatchedError,
	// which is what makes dispatch idempotent per campaign id.
	MarkSending(ctx context.Context, id string) error
	// Finalize writes the terminal status, stats and per-recipient
	// outcomes in one shot. Outcomes are append-only.
	Finalize(ctx context.Context, id string, status model.CampaignStatus, stats model.CampaignStats, outcomes []model.RecipientOutcome, sentAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// ContactStore supplies recipients; implemented elsewhere, consumed here.
type ContactStore interface {
	GetRecipients(ctx context.Context, listID string) ([]model.Recipient, error)
}

// TemplateStore supplies provider templates; consumed, not owned, by the
// dispatch core.
type TemplateStore interface {
	GetTemplates(ctx context.Context, provider model.Provider) ([]model.Template, error)
	GetTemplate(ctx context.Context, id string) (*model.Template, error)
}
