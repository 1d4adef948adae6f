package provider

import (
	"context"
	"net/url"
	"strings"

	"github.com/textpilot/bulksms-backend/internal/model"
)

// WALink is the WhatsApp click-to-chat channel. It performs no network
// transport: it deterministically builds a wa.me URI per recipient with the
// rendered message URL-encoded into it. A "sent" outcome here means the
// link was constructed and is ready to open, not that anything was
// delivered.
type WALink struct{}

func NewWALink() *WALink { return &WALink{} }

func (a *WALink) Name() model.Provider     { return model.ProviderWhatsApp }
func (a *WALink) RequiresTemplate() bool   { return false }
func (a *WALink) SupportsScheduling() bool { return false }

func (a *WALink) Send(ctx context.Context, batch Batch, _ Options) (SendResult, error) {
	outcomes := make([]model.RecipientOutcome, len(batch.Deliveries))
	for i, d := range batch.Deliveries {
		if ctx.Err() != nil {
			outcomes[i] = model.RecipientOutcome{
				Phone:       d.Recipient.Phone,
				Status:      model.OutcomeFailed,
				ErrorDetail: "dispatch canceled",
			}
			continue
		}

		phone := digitsOnly(d.Recipient.Phone)
		if phone == "" {
			outcomes[i] = model.RecipientOutcome{
				Phone:       d.Recipient.Phone,
				Status:      model.OutcomeFailed,
				ErrorDetail: failDetail(d, "phone has no digits"),
			}
			continue
		}

		outcomes[i] = model.RecipientOutcome{
			Phone:  d.Recipient.Phone,
			Status: model.OutcomeSent,
			Link:   "https://wa.me/" + phone + "?text=" + encodeText(d.Rendered),
		}
	}
	return SendResult{Outcomes: outcomes}, nil
}

func digitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// encodeText percent-encodes the message for the wa.me query string.
// QueryEscape's "+" for spaces renders literally in WhatsApp, so spaces use
// %20.
func encodeText(msg string) string {
	return strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
