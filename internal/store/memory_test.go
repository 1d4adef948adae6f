package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textpilot/bulksms-backend/internal/model"
)

func TestMemoryListOrdersNewestFirst(t *testing.T) {
	s := NewMemoryCampaignStore()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, s.Create(context.Background(), &model.Campaign{
			ID:        id,
			Name:      "Campaign " + id,
			Provider:  model.ProviderFast2SMS,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	campaigns, total, err := s.List(context.Background(), 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, campaigns, 3)
	assert.Equal(t, "c3", campaigns[0].ID)
	assert.Equal(t, "c2", campaigns[1].ID)
	assert.Equal(t, "c1", campaigns[2].ID)

	// Stable across calls despite map-backed storage.
	again, _, err := s.List(context.Background(), 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, campaigns, again)

	// Paging walks the same order.
	page, _, err := s.List(context.Background(), 1, 1, "", "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c2", page[0].ID)
}
