// Package compiler validates a campaign request and produces the
// provider-ready batch, merging personalization per recipient.
package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/textpilot/bulksms-backend/internal/errors"
	"github.com/textpilot/bulksms-backend/internal/model"
	"github.com/textpilot/bulksms-backend/internal/provider"
	"github.com/textpilot/bulksms-backend/internal/template"
)

// Compiled is a validated campaign plus its provider payload. The campaign
// is still in draft; nothing has been persisted or sent.
type Compiled struct {
	Campaign model.Campaign
	Batch    provider.Batch
	Warnings []string
}

type Compiler struct {
	Registry *provider.Registry
	NewID    func() string
	Now      func() time.Time
}

func New(registry *provider.Registry) *Compiler {
	return &Compiler{
		Registry: registry,
		NewID:    uuid.NewString,
		Now:      time.Now,
	}
}

// Compile validates the request fail-fast (name, message, recipients,
// regulatory id, variable mappings — in that order) and renders the final
// message per recipient. Render degradations are collected as warnings and
// still dispatch; unmapped variables reject the whole campaign.
func (c *Compiler) Compile(req model.CampaignRequest) (*Compiled, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.NewValidation(appErrors.CodeEmptyName, "campaign name is required")
	}

	adapter, ok := c.Registry.Get(req.Provider)
	if !ok {
		return nil, appErrors.NewValidation(appErrors.CodeUnknownProvider, fmt.Sprintf("no adapter for provider %q", req.Provider))
	}
	if adapter.RequiresTemplate() && req.Template == nil {
		return nil, appErrors.NewValidation(appErrors.CodeTemplateRequired, fmt.Sprintf("provider %s only sends approved templates", req.Provider))
	}

	text := req.MessageText()
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.NewValidation(appErrors.CodeEmptyMessage, "message cannot be empty")
	}

	if len(req.Recipients) == 0 {
		return nil, appErrors.NewValidation(appErrors.CodeNoRecipients, "recipient list is empty")
	}

	regulatoryID := req.RegulatoryID
	if regulatoryID == "" && req.Template != nil {
		regulatoryID = req.Template.RegulatoryID
	}
	if req.Compliance == model.ComplianceDLT && strings.TrimSpace(regulatoryID) == "" {
		return nil, appErrors.NewValidation(appErrors.CodeMissingRegulatoryID, "DLT sends require a regulatory template id")
	}

	pattern := template.PatternFor(req.Provider)
	mapped := make(map[string]bool, len(req.Mappings))
	for _, m := range req.Mappings {
		mapped[m.Placeholder] = true
	}
	for _, name := range pattern.ExtractVariables(text) {
		if !mapped[name] {
			return nil, appErrors.NewUnmappedVariable(name)
		}
	}

	var warnings []string
	deliveries := make([]provider.Delivery, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		rendered, unknown := pattern.Render(text, req.Mappings, r)
		for _, name := range unknown {
			warnings = append(warnings, fmt.Sprintf("placeholder %q left verbatim", name))
		}

		values, missing := template.ResolveAll(req.Mappings, r)
		d := provider.Delivery{
			Recipient: r,
			Rendered:  rendered,
			Variables: values,
		}
		if len(missing) > 0 {
			d.RenderWarning = fmt.Sprintf("missing field(s): %s", strings.Join(missing, ", "))
			warnings = append(warnings, fmt.Sprintf("recipient %s %s", r.Phone, d.RenderWarning))
		}
		deliveries = append(deliveries, d)
	}

	campaign := model.Campaign{
		ID:          c.NewID(),
		Name:        req.Name,
		Provider:    req.Provider,
		Status:      model.StatusDraft,
		Message:     text,
		Stats:       model.CampaignStats{Total: len(req.Recipients)},
		ScheduledAt: req.ScheduledAt,
		CreatedAt:   c.Now(),
	}

	batch := provider.Batch{
		CampaignID:   campaign.ID,
		RegulatoryID: regulatoryID,
		Deliveries:   deliveries,
	}
	if req.Template != nil {
		batch.TemplateID = req.Template.ID
	}
	if req.ScheduledAt != nil && adapter.SupportsScheduling() {
		batch.ScheduledAt = req.ScheduledAt
	}

	return &Compiled{Campaign: campaign, Batch: batch, Warnings: warnings}, nil
}
