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

// MSG91 sends through the MSG91 flow API. The gateway takes the whole
// recipient array in one call and substitutes flow variables server-side,
// so a rejected call fails the entire batch.
type MSG91 struct {
	baseURL string
	authKey string
	client  *http.Client
	log     *zap.Logger
}

func NewMSG91(baseURL, authKey string, timeout time.Duration, log *zap.Logger) *MSG91 {
	if baseURL == "" {
		baseURL = "https://control.msg91.com/api/v5/flow/"
	}
	return &MSG91{
		baseURL: baseURL,
		authKey: authKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (a *MSG91) Name() model.Provider     { return model.ProviderMSG91 }
func (a *MSG91) RequiresTemplate() bool   { return true }
func (a *MSG91) SupportsScheduling() bool { return true }

type msg91Recipient map[string]string

type msg91Payload struct {
	FlowID       string           `json:"flow_id"`
	DLTTemplate  string           `json:"DLT_TE_ID,omitempty"`
	ScheduleTime string           `json:"schedule_time,omitempty"`
	Recipients   []msg91Recipient `json:"recipients"`
}

type msg91Response struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (a *MSG91) Send(ctx context.Context, batch Batch, opts Options) (SendResult, error) {
	// The gateway rejects flow sends without both ids, so fail the batch
	// up front without attempting a partial send.
	if batch.TemplateID == "" {
		err := appErrors.NewProviderBatch(string(a.Name()), "missing provider template id")
		return SendResult{Outcomes: FailAll(batch, err.Error())}, err
	}
	if batch.RegulatoryID == "" {
		err := appErrors.NewProviderBatch(string(a.Name()), "missing DLT template id")
		return SendResult{Outcomes: FailAll(batch, err.Error())}, err
	}

	payload := msg91Payload{
		FlowID:      batch.TemplateID,
		DLTTemplate: batch.RegulatoryID,
	}
	if batch.ScheduledAt != nil {
		payload.ScheduleTime = batch.ScheduledAt.UTC().Format("2006-01-02 15:04:05")
	}
	for _, d := range batch.Deliveries {
		rec := msg91Recipient{"mobiles": d.Recipient.Phone}
		for name, value := range d.Variables {
			rec[name] = value
		}
		payload.Recipients = append(payload.Recipients, rec)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		berr := appErrors.NewProviderBatch(string(a.Name()), err.Error())
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		berr := appErrors.NewProviderBatch(string(a.Name()), err.Error())
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authkey", a.credential(opts))

	resp, err := a.client.Do(req)
	if err != nil {
		berr := appErrors.NewProviderBatch(string(a.Name()), fmt.Sprintf("gateway call failed: %v", err))
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}
	defer resp.Body.Close()

	var out msg91Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		berr := appErrors.NewProviderBatch(string(a.Name()), fmt.Sprintf("unreadable gateway response: %v", err))
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}
	if resp.StatusCode != http.StatusOK || out.Type != "success" {
		detail := out.Message
		if detail == "" {
			detail = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		berr := appErrors.NewProviderBatch(string(a.Name()), detail)
		return SendResult{Outcomes: FailAll(batch, berr.Error())}, berr
	}

	a.log.Info("msg91 batch accepted",
		zap.String("campaign_id", batch.CampaignID),
		zap.Int("recipients", len(batch.Deliveries)),
		zap.String("request_id", out.Message))

	outcomes := make([]model.RecipientOutcome, len(batch.Deliveries))
	for i, d := range batch.Deliveries {
		outcomes[i] = model.RecipientOutcome{Phone: d.Recipient.Phone, Status: model.OutcomeSent}
	}
	return SendResult{Outcomes: outcomes, ProviderMessageID: out.Message}, nil
}

func (a *MSG91) credential(opts Options) string {
	if opts.Credential != "" {
		return opts.Credential
	}
	return a.authKey
}
