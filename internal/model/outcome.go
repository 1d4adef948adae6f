package model

type OutcomeStatus string

const (
	OutcomeSent   OutcomeStatus = "sent"
	OutcomeFailed OutcomeStatus = "failed"
)

// RecipientOutcome is the per-recipient result of one dispatch pass,
// written once and never mutated. For the link-based channel "sent" means
// the link was constructed, not that anything was delivered; Link carries
// the generated URI in that case.
type RecipientOutcome struct {
	Phone       string        `db:"phone" json:"phone"`
	Status      OutcomeStatus `db:"status" json:"status"`
	ErrorDetail string        `db:"error_detail" json:"error_detail,omitempty"`
	Link        string        `db:"link" json:"link,omitempty"`
}
