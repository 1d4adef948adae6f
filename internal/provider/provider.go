// Package provider holds one adapter per upstream transport. Every adapter
// implements the same Send contract but documents its own batching and
// atomicity semantics: the templated gateways send one network call for the
// whole batch and fail it atomically, the free-form gateway sends each
// recipient independently, and the link channel performs no transport at
// all.
package provider

import (
	"context"
	"time"

	"github.com/textpilot/bulksms-backend/internal/model"
)

// Delivery is one recipient's share of a compiled campaign.
type Delivery struct {
	Recipient model.Recipient
	// Rendered is the final message text; for the free-form and link
	// channels these are the exact bytes sent, matching the preview.
	Rendered string
	// Variables carries resolved per-recipient variable values for
	// gateways that substitute server-side.
	Variables map[string]string
	// RenderWarning notes a degraded render (missing recipient field);
	// dispatch proceeds, and the warning joins the failure detail if the
	// provider rejects this recipient.
	RenderWarning string
}

// Batch is the provider-ready payload for one campaign.
type Batch struct {
	CampaignID   string
	TemplateID   string
	RegulatoryID string
	ScheduledAt  *time.Time
	Deliveries   []Delivery
}

// Options carries per-call settings. Credential is the opaque upstream
// credential supplied by the auth context; adapters fall back to their
// configured key when it is empty.
type Options struct {
	Credential string
}

type SendResult struct {
	Outcomes          []model.RecipientOutcome
	ProviderMessageID string
}

// Adapter is the common send contract. A non-nil error from Send means the
// entire batch failed; per-recipient failures are reported through the
// outcomes alone.
type Adapter interface {
	Name() model.Provider
	RequiresTemplate() bool
	SupportsScheduling() bool
	Send(ctx context.Context, batch Batch, opts Options) (SendResult, error)
}

// Registry resolves the adapter for a campaign's provider discriminant.
type Registry struct {
	adapters map[model.Provider]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[model.Provider]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(p model.Provider) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// failDetail joins a per-recipient failure detail with the delivery's
// render warning, so a degraded render surfaces on the rejection it may
// have caused.
func failDetail(d Delivery, detail string) string {
	if d.RenderWarning == "" {
		return detail
	}
	return detail + "; " + d.RenderWarning
}

// FailAll produces one synthetic failed outcome per recipient, all with the
// same detail. Used when the upstream rejects a batch as a whole.
func FailAll(batch Batch, detail string) []model.RecipientOutcome {
	outcomes := make([]model.RecipientOutcome, len(batch.Deliveries))
	for i, d := range batch.Deliveries {
		outcomes[i] = model.RecipientOutcome{
			Phone:       d.Recipient.Phone,
			Status:      model.OutcomeFailed,
			ErrorDetail: detail,
		}
	}
	return outcomes
}
