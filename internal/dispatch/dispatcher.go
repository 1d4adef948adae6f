// Package dispatch runs the single dispatch pass of a campaign: adapter
// invocation, outcome aggregation and the campaign status state machine.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/textpilot/bulksms-backend/internal/compiler"
	appErrors "github.com/textpilot/bulksms-backend/internal/errors"
	"github.com/textpilot/bulksms-backend/internal/events"
	"github.com/textpilot/bulksms-backend/internal/model"
	"github.com/textpilot/bulksms-backend/internal/provider"
	"github.com/textpilot/bulksms-backend/internal/segment"
	"github.com/textpilot/bulksms-backend/internal/store"
	"github.com/textpilot/bulksms-backend/internal/template"
)

type Dispatcher struct {
	Compiler *compiler.Compiler
	Registry *provider.Registry
	Store    store.CampaignStore
	Events   events.Publisher
	Log      *zap.Logger
	Segments segment.Limits
	Now      func() time.Time
}

func New(reg *provider.Registry, st store.CampaignStore, ev events.Publisher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Compiler: compiler.New(reg),
		Registry: reg,
		Store:    st,
		Events:   ev,
		Log:      log,
		Segments: segment.DefaultLimits(),
		Now:      time.Now,
	}
}

// Summary is what the caller gets back from one dispatch pass: counts plus
// the itemized failed-recipient list with reasons.
type Summary struct {
	CampaignID        string                   `json:"campaign_id"`
	Status            model.CampaignStatus     `json:"status"`
	Stats             model.CampaignStats      `json:"stats"`
	FailedRecipients  []model.RecipientOutcome `json:"failed_recipients,omitempty"`
	Warnings          []string                 `json:"warnings,omitempty"`
	ProviderMessageID string                   `json:"provider_message_id,omitempty"`
}

// CreateAndDispatch is the single entry point for callers: compile,
// persist the draft, dispatch, finalize. Validation failures surface before
// any record is created or any network call happens.
func (d *Dispatcher) CreateAndDispatch(ctx context.Context, req model.CampaignRequest, opts provider.Options) (*Summary, error) {
	compiled, err := d.Compiler.Compile(req)
	if err != nil {
		return nil, err
	}
	if err := d.Store.Create(ctx, &compiled.Campaign); err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, compiled, opts)
}

// Dispatch runs one pass for an already-persisted campaign. Re-invoking it
// for a terminal campaign id fails with AlreadyDispatchedError before any
// adapter call; campaigns are not re-sendable in place.
func (d *Dispatcher) Dispatch(ctx context.Context, compiled *compiler.Compiled, opts provider.Options) (*Summary, error) {
	campaign := compiled.Campaign

	adapter, ok := d.Registry.Get(campaign.Provider)
	if !ok {
		return nil, appErrors.NewValidation(appErrors.CodeUnknownProvider, fmt.Sprintf("no adapter for provider %q", campaign.Provider))
	}

	if err := d.Store.MarkSending(ctx, campaign.ID); err != nil {
		return nil, err
	}

	result, sendErr := d.invoke(ctx, adapter, compiled.Batch, opts)

	outcomes := result.Outcomes
	if sendErr != nil {
		var batchErr *appErrors.ProviderBatchError
		if !errors.As(sendErr, &batchErr) {
			// Unexpected adapter failure; treat it as a batch
			// rejection so the campaign still reaches a terminal
			// state.
			sendErr = appErrors.NewProviderBatch(string(adapter.Name()), sendErr.Error())
		}
		if len(outcomes) == 0 {
			outcomes = provider.FailAll(compiled.Batch, sendErr.Error())
		}
		d.Log.Error("provider rejected batch",
			zap.String("campaign_id", campaign.ID),
			zap.String("provider", string(campaign.Provider)),
			zap.Error(sendErr))
	}

	// Every recipient gets exactly one outcome, even if the adapter came
	// back short.
	if len(outcomes) < len(compiled.Batch.Deliveries) {
		for _, batchd := range compiled.Batch.Deliveries[len(outcomes):] {
			outcomes = append(outcomes, model.RecipientOutcome{
				Phone:       batchd.Recipient.Phone,
				Status:      model.OutcomeFailed,
				ErrorDetail: "no outcome reported by provider",
			})
		}
	}

	stats := model.CampaignStats{Total: len(compiled.Batch.Deliveries)}
	var failed []model.RecipientOutcome
	for _, o := range outcomes {
		if o.Status == model.OutcomeSent {
			stats.Sent++
		} else {
			stats.Failed++
			failed = append(failed, o)
		}
	}

	status := model.StatusFailed
	if stats.Sent > 0 {
		status = model.StatusCompleted
	}
	if sendErr == nil && compiled.Batch.ScheduledAt != nil {
		// The provider accepted a deferred send; the campaign is
		// recorded as scheduled, not completed. Confirming the actual
		// send is the provider's job, not ours.
		status = model.StatusScheduled
	}

	sentAt := d.Now()
	if err := d.Store.Finalize(ctx, campaign.ID, status, stats, outcomes, sentAt); err != nil {
		return nil, err
	}

	if err := d.Events.CampaignFinished(events.CampaignEvent{
		CampaignID: campaign.ID,
		Name:       campaign.Name,
		Provider:   campaign.Provider,
		Status:     status,
		Stats:      stats,
		SentAt:     sentAt,
	}); err != nil {
		d.Log.Warn("failed to publish campaign event", zap.String("campaign_id", campaign.ID), zap.Error(err))
	}

	d.Log.Info("campaign dispatched",
		zap.String("campaign_id", campaign.ID),
		zap.String("status", string(status)),
		zap.Int("sent", stats.Sent),
		zap.Int("failed", stats.Failed))

	return &Summary{
		CampaignID:        campaign.ID,
		Status:            status,
		Stats:             stats,
		FailedRecipients:  failed,
		Warnings:          compiled.Warnings,
		ProviderMessageID: result.ProviderMessageID,
	}, nil
}

// invoke calls the adapter with panic containment: a panicking adapter must
// not leave the campaign stuck in sending.
func (d *Dispatcher) invoke(ctx context.Context, adapter provider.Adapter, batch provider.Batch, opts provider.Options) (result provider.SendResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = appErrors.NewProviderBatch(string(adapter.Name()), fmt.Sprintf("adapter panic: %v", r))
		}
	}()
	return adapter.Send(ctx, batch, opts)
}

// TestSend pushes one rendered message to a single recipient through the
// regular adapter contract, bypassing campaign record creation entirely.
func (d *Dispatcher) TestSend(ctx context.Context, p model.Provider, message string, r model.Recipient, opts provider.Options) (model.RecipientOutcome, error) {
	adapter, ok := d.Registry.Get(p)
	if !ok {
		return model.RecipientOutcome{}, appErrors.NewValidation(appErrors.CodeUnknownProvider, fmt.Sprintf("no adapter for provider %q", p))
	}

	batch := provider.Batch{
		CampaignID: "test-send",
		Deliveries: []provider.Delivery{{Recipient: r, Rendered: message}},
	}
	result, err := d.invoke(ctx, adapter, batch, opts)
	if len(result.Outcomes) > 0 {
		return result.Outcomes[0], nil
	}
	detail := "no outcome reported by provider"
	if err != nil {
		detail = err.Error()
	}
	return model.RecipientOutcome{Phone: r.Phone, Status: model.OutcomeFailed, ErrorDetail: detail}, nil
}

// EstimateSegments is a pure computation over the rendered text; no network
// call, identical result for every provider.
func (d *Dispatcher) EstimateSegments(message string) segment.Estimate {
	return segment.For(message, d.Segments)
}

// Preview renders the message for one recipient with graceful fallbacks for
// missing fields. The returned warnings list placeholders left verbatim.
func (d *Dispatcher) Preview(p model.Provider, text string, mappings []model.VariableMapping, r model.Recipient) (string, []string) {
	return template.PatternFor(p).Render(text, mappings, r)
}
