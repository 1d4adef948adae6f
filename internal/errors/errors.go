// internal/errors/errors.go
package appErrors

import "fmt"

// Validation failure codes, surfaced to callers so the UI can point at the
// field that needs fixing.
const (
	CodeEmptyName           = "empty_name"
	CodeEmptyMessage        = "empty_message"
	CodeTemplateRequired    = "template_required"
	CodeNoRecipients        = "no_recipients"
	CodeMissingRegulatoryID = "missing_regulatory_id"
	CodeUnmappedVariable    = "unmapped_variable"
	CodeUnknownProvider     = "unknown_provider"
)

// ValidationError means the campaign request is malformed; nothing was
// dispatched and no campaign record was created.
type ValidationError struct {
	Code     string
	Variable string // set for unmapped_variable
	Detail   string
}

func (e *ValidationError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("validation failed (%s): variable %q %s", e.Code, e.Variable, e.Detail)
	}
	return fmt.Sprintf("validation failed (%s): %s", e.Code, e.Detail)
}

func NewValidation(code, detail string) error {
	return &ValidationError{Code: code, Detail: detail}
}

func NewUnmappedVariable(name string) error {
	return &ValidationError{Code: CodeUnmappedVariable, Variable: name, Detail: "has no mapping"}
}

// ProviderBatchError means the upstream rejected the whole batch; every
// recipient in the campaign is marked failed with the same detail.
type ProviderBatchError struct {
	Provider string
	Detail   string
}

func (e *ProviderBatchError) Error() string {
	return fmt.Sprintf("provider %s rejected batch: %s", e.Provider, e.Detail)
}

func NewProviderBatch(provider, detail string) error {
	return &ProviderBatchError{Provider: provider, Detail: detail}
}

// AlreadyDispatchedError is a caller error: the campaign reached a terminal
// state and cannot be re-sent in place.
type AlreadyDispatchedError struct {
	CampaignID string
}

func (e *AlreadyDispatchedError) Error() string {
	return fmt.Sprintf("campaign %s already dispatched", e.CampaignID)
}

func NewAlreadyDispatched(id string) error {
	return &AlreadyDispatchedError{CampaignID: id}
}

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}
