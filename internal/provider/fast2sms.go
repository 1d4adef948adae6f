package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/textpilot/bulksms-backend/internal/model"
)

// Fast2SMS sends free-form text on the quick route. Personalization may
// differ per recipient, so each recipient gets its own call through a
// bounded worker pool; one recipient's transport failure never aborts its
// siblings.
type Fast2SMS struct {
	baseURL     string
	apiKey      string
	concurrency int
	client      *http.Client
	log         *zap.Logger
}

func NewFast2SMS(baseURL, apiKey string, concurrency int, timeout time.Duration, log *zap.Logger) *Fast2SMS {
	if baseURL == "" {
		baseURL = "https://www.fast2sms.com/dev/bulkV2"
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Fast2SMS{
		baseURL:     baseURL,
		apiKey:      apiKey,
		concurrency: concurrency,
		client:      &http.Client{Timeout: timeout},
		log:         log,
	}
}

func (a *Fast2SMS) Name() model.Provider     { return model.ProviderFast2SMS }
func (a *Fast2SMS) RequiresTemplate() bool   { return false }
func (a *Fast2SMS) SupportsScheduling() bool { return false }

type fast2smsResponse struct {
	Return  bool   `json:"return"`
	Message any    `json:"message"`
	ReqID   string `json:"request_id"`
}

func (a *Fast2SMS) Send(ctx context.Context, batch Batch, opts Options) (SendResult, error) {
	outcomes := make([]model.RecipientOutcome, len(batch.Deliveries))

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)
	for i, d := range batch.Deliveries {
		// Cooperative cancellation between recipient sends, never
		// mid-call.
		if ctx.Err() != nil {
			outcomes[i] = model.RecipientOutcome{
				Phone:       d.Recipient.Phone,
				Status:      model.OutcomeFailed,
				ErrorDetail: "dispatch canceled",
			}
			continue
		}
		i, d := i, d
		g.Go(func() error {
			outcomes[i] = a.sendOne(ctx, d, opts)
			return nil
		})
	}
	_ = g.Wait()

	return SendResult{Outcomes: outcomes}, nil
}

func (a *Fast2SMS) sendOne(ctx context.Context, d Delivery, opts Options) model.RecipientOutcome {
	outcome := model.RecipientOutcome{Phone: d.Recipient.Phone}

	if ctx.Err() != nil {
		outcome.Status = model.OutcomeFailed
		outcome.ErrorDetail = "dispatch canceled"
		return outcome
	}

	form := url.Values{}
	form.Set("route", "q")
	form.Set("message", d.Rendered)
	form.Set("numbers", d.Recipient.Phone)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.ErrorDetail = failDetail(d, err.Error())
		return outcome
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("authorization", a.credential(opts))

	resp, err := a.client.Do(req)
	if err != nil {
		// Timeouts and transport errors become a failed outcome for
		// this recipient only.
		outcome.Status = model.OutcomeFailed
		outcome.ErrorDetail = failDetail(d, fmt.Sprintf("send failed: %v", err))
		return outcome
	}
	defer resp.Body.Close()

	var out fast2smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.ErrorDetail = failDetail(d, fmt.Sprintf("unreadable gateway response: %v", err))
		return outcome
	}
	if resp.StatusCode != http.StatusOK || !out.Return {
		outcome.Status = model.OutcomeFailed
		outcome.ErrorDetail = failDetail(d, gatewayMessage(out.Message, resp.StatusCode))
		a.log.Warn("fast2sms send rejected",
			zap.String("phone", d.Recipient.Phone),
			zap.String("detail", outcome.ErrorDetail))
		return outcome
	}

	outcome.Status = model.OutcomeSent
	return outcome
}

func (a *Fast2SMS) credential(opts Options) string {
	if opts.Credential != "" {
		return opts.Credential
	}
	return a.apiKey
}

// gatewayMessage flattens fast2sms's message field, which is a string on
// some errors and an array of strings on others.
func gatewayMessage(msg any, status int) string {
	switch m := msg.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return fmt.Sprintf("gateway returned status %d", status)
}
