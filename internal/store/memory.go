package store

import (
	"context"
	"sort"
	"sync"
	"time"

	appErrors "github.com/textpilot/bulksms-backend/internal/errors"
	"github.com/textpilot/bulksms-backend/internal/model"
)

// MemoryCampaignStore keeps campaigns in a map behind a mutex. It backs
// tests and single-node setups without Postgres; the MarkSending CAS
// semantics match the Postgres implementation.
type MemoryCampaignStore struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
}

func NewMemoryCampaignStore() *MemoryCampaignStore {
	return &MemoryCampaignStore{campaigns: make(map[string]*model.Campaign)}
}

func (s *MemoryCampaignStore) Create(_ context.Context, c *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *MemoryCampaignStore) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	cp.Recipients = append([]model.RecipientOutcome(nil), c.Recipients...)
	return &cp, nil
}

func (s *MemoryCampaignStore) List(_ context.Context, offset, limit int, provider, status string) ([]model.Campaign, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []model.Campaign{}
	for _, c := range s.campaigns {
		if provider != "" && string(c.Provider) != provider {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		matched = append(matched, *c)
	}
	// Newest first, same as the Postgres ORDER BY; map iteration order
	// must not leak into pages.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if offset >= len(matched) {
		return []model.Campaign{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s *MemoryCampaignStore) MarkSending(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	if c.Status != model.StatusDraft && c.Status != model.StatusScheduled {
		return appErrors.NewAlreadyDispatched(id)
	}
	c.Status = model.StatusSending
	return nil
}

func (s *MemoryCampaignStore) Finalize(_ context.Context, id string, status model.CampaignStatus, stats model.CampaignStats, outcomes []model.RecipientOutcome, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Status = status
	c.Stats = stats
	c.Recipients = append(c.Recipients, outcomes...)
	c.SentAt = &sentAt
	return nil
}

func (s *MemoryCampaignStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(s.campaigns, id)
	return nil
}

var _ CampaignStore = (*MemoryCampaignStore)(nil)
