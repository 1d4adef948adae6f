package model

import "time"

// Provider identifies the upstream transport a campaign goes out on.
type Provider string

const (
	ProviderMSG91     Provider = "msg91"     // templated gateway, native batch sends
	ProviderTextlocal Provider = "textlocal" // templated gateway, native batch sends
	ProviderFast2SMS  Provider = "fast2sms"  // free-form quick route, per-recipient sends
	ProviderWhatsApp  Provider = "whatsapp"  // wa.me link builder, no transport
)

// ComplianceMode selects between regulator-approved template sends and
// free-form text.
type ComplianceMode string

const (
	ComplianceDLT   ComplianceMode = "dlt"
	ComplianceQuick ComplianceMode = "quick"
)

type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusScheduled CampaignStatus = "scheduled"
	StatusSending   CampaignStatus = "sending"
	StatusCompleted CampaignStatus = "completed"
	StatusFailed    CampaignStatus = "failed"
)

// Terminal reports whether a campaign in this status can never be
// dispatched again.
func (s CampaignStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CampaignRequest is what callers hand to the dispatch engine. Exactly one
// of Template / RawMessage carries the message body.
type CampaignRequest struct {
	Name         string            `json:"name"`
	Provider     Provider          `json:"provider"`
	Compliance   ComplianceMode    `json:"compliance"`
	Template     *Template         `json:"template,omitempty"`
	RawMessage   string            `json:"raw_message,omitempty"`
	RegulatoryID string            `json:"regulatory_id,omitempty"`
	Mappings     []VariableMapping `json:"mappings,omitempty"`
	Recipients   []Recipient       `json:"recipients"`
	ScheduledAt  *time.Time        `json:"scheduled_at,omitempty"`
}

// MessageText returns the template body when a template is selected,
// otherwise the raw free-form message.
func (r CampaignRequest) MessageText() string {
	if r.Template != nil {
		return r.Template.RawText
	}
	return r.RawMessage
}

type CampaignStats struct {
	Total  int `db:"total" json:"total"`
	Sent   int `db:"sent" json:"sent"`
	Failed int `db:"failed" json:"failed"`
}

type Campaign struct {
	ID          string             `db:"id" json:"id"`
	Name        string             `db:"name" json:"name"`
	Provider    Provider           `db:"provider" json:"provider"`
	Status      CampaignStatus     `db:"status" json:"status"`
	Message     string             `db:"message" json:"message"`
	Recipients  []RecipientOutcome `json:"recipients,omitempty"`
	Stats       CampaignStats      `json:"stats"`
	ScheduledAt *time.Time         `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	SentAt      *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
}
