package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/textpilot/bulksms-backend/internal/errors"
	"github.com/textpilot/bulksms-backend/internal/model"
)

// Textlocal sends through the Textlocal bulk JSON API: one call carries an
// individual message per number, but the gateway accepts or rejects the
// whole payload atomically.
type Textlocal struct {
	baseURL string
	apiKey  string
	sender  string
	client  *http.Client
	log     *zap.Logger
}

func NewTextlocal(baseURL, apiKey, sender string, timeout time.Duration, log *zap.Logger) *Textlocal {
	if baseURL == "" {
		baseURL = "https://api.textlocal.in/bulk_json/"
	}
	return &Textlocal{
		baseURL: baseURL,
		apiKey:  apiKey,
		sender:  sender,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (a *Textlocal) Name() model.Provider     { return model.ProviderTextlocal }
func (a *Textlocal) RequiresTemplate() bool   { return true }
func (a *Textlocal) SupportsScheduling() bool { return true }

type textlocalMessage struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type textlocalPayload struct {
	APIKey       string             `json:"apikey"`
	Sender       string             `json:"sender,omitempty"`
	TemplateID   string             `json:"template_id"`
	RegulatoryID string             `json:"dlt_te_id"`
	ScheduleTime int64              `json:"schedule_time,omitempty"`
	Messages     []textlocalMessage `json:"messages"`
}

type textlocalResponse struct {
	Status  string `json:"status"`
	BatchID int64  `json:"batch_id"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (a *Textlocal) Send(ctx context.Context, batch Batch, opts Options) (SendResult, error) {
	if batch.TemplateID == "" {
		err := appErrors.NewProviderBatch(string(a.Name()), "missing provider template id")
		return SendResult{Outcomes: FailAll(batch, err.Error())}, err
	}
	if batch.RegulatoryID == "" {
		err := appErrors.NewProviderBatch(string(a.Name()), "missing DLT template id")
		return SendResult{Outcomes: FailAll(batch, err.Error())}, err
	}

	payload := textlocalPayload{
		APIKey:       a.credential(opts),
		Sender:       a.sender,
		TemplateID:   batch.TemplateID,
		RegulatoryID: batch.RegulatoryID,
	}
	if batch.ScheduledAt != nil {
		payload.ScheduleTime = batch.ScheduledAt.Unix()
	}
	for _, d := range batch.Deliveries {
		payload.Messages = append(payload.Messages, textlocalMessage{
			Number: d.Recipient.Phone,
			Text:   d.Rendered,
		})
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		berr := appErrors.NewProviderBatch(string(a.Name()), err.Error())
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		berr := appErrors.NewProviderBatch(string(a.Name()), fmt.Sprintf("gateway call failed: %v", err))
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}
	defer resp.Body.Close()

	var out textlocalResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		berr := appErrors.NewProviderBatch(string(a.Name()), fmt.Sprintf("unreadable gateway response: %v", err))
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}
	if resp.StatusCode != http.StatusOK || out.Status != "success" {
		detail := fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		if len(out.Errors) > 0 {
			detail = out.Errors[0].Message
		}
		berr := appErrors.NewProviderBatch(string(a.Name()), detail)
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}

	a.log.Info("textlocal batch accepted",
		zap.String("campaign_id", batch.CampaignID),
		zap.Int("recipients", len(batch.Deliveries)),
		zap.Int64("batch_id", out.BatchID))

	outcomes := make([]model.RecipientOutcome, len(batch.Deliveries))
	for i, d := range batch.Deliveries {
		outcomes[i] = model.RecipientOutcome{Phone: d.Recipient.Phone, Status: model.OutcomeSent}
	}
	return SendResult{Outcomes: outcomes, ProviderMessageID: fmt.Sprintf("%d", out.BatchID)}, nil
}

func (a *Textlocal) credential(opts Options) string {
	if opts.Credential != "" {
		return opts.Credential
	}
	return a.apiKey
}
