package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textpilot/bulksms-backend/internal/model"
)

func TestWALinkBuildsDeterministicLinks(t *testing.T) {
	adapter := NewWALink()
	batch := Batch{
		CampaignID: "c1",
		Deliveries: []Delivery{
			{Recipient: model.Recipient{Phone: "+91 98765 43210"}, Rendered: "Hi Asha, 50% off & more!"},
			{Recipient: model.Recipient{Phone: "919812345678"}, Rendered: "Hi Ravi"},
		},
	}

	result, err := adapter.Send(context.Background(), batch, Options{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	// "sent" means the link was constructed, not delivered.
	assert.Equal(t, model.OutcomeSent, result.Outcomes[0].Status)
	assert.Equal(t, "https://wa.me/919876543210?text=Hi%20Asha%2C%2050%25%20off%20%26%20more%21", result.Outcomes[0].Link)
	assert.Equal(t, "https://wa.me/919812345678?text=Hi%20Ravi", result.Outcomes[1].Link)

	// Same inputs, same links.
	again, err := adapter.Send(context.Background(), batch, Options{})
	require.NoError(t, err)
	assert.Equal(t, result.Outcomes, again.Outcomes)
}

func TestWALinkRejectsDigitlessPhone(t *testing.T) {
	adapter := NewWALink()
	batch := Batch{
		Deliveries: []Delivery{
			{Recipient: model.Recipient{Phone: "n/a"}, Rendered: "hello"},
			{Recipient: model.Recipient{Phone: "919812345678"}, Rendered: "hello"},
		},
	}

	result, err := adapter.Send(context.Background(), batch, Options{})
	require.NoError(t, err)

	// One bad phone does not fail its sibling.
	assert.Equal(t, model.OutcomeFailed, result.Outcomes[0].Status)
	assert.Equal(t, "phone has no digits", result.Outcomes[0].ErrorDetail)
	assert.Equal(t, model.OutcomeSent, result.Outcomes[1].Status)
}

func TestWALinkRenderWarningSurfacesOnRejectionOnly(t *testing.T) {
	adapter := NewWALink()
	batch := Batch{
		Deliveries: []Delivery{
			{Recipient: model.Recipient{Phone: "n/a"}, Rendered: "hello [city]", RenderWarning: "missing field(s): city"},
			{Recipient: model.Recipient{Phone: "919812345678"}, Rendered: "hello [city]", RenderWarning: "missing field(s): city"},
		},
	}

	result, err := adapter.Send(context.Background(), batch, Options{})
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeFailed, result.Outcomes[0].Status)
	assert.Equal(t, "phone has no digits; missing field(s): city", result.Outcomes[0].ErrorDetail)

	assert.Equal(t, model.OutcomeSent, result.Outcomes[1].Status)
	assert.Empty(t, result.Outcomes[1].ErrorDetail)
}

func TestWALinkCanceledContext(t *testing.T) {
	adapter := NewWALink()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := adapter.Send(ctx, Batch{
		Deliveries: []Delivery{{Recipient: model.Recipient{Phone: "911"}, Rendered: "x"}},
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailed, result.Outcomes[0].Status)
	assert.Equal(t, "dispatch canceled", result.Outcomes[0].ErrorDetail)
}
