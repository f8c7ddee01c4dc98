package db

import "time"

// MarkWebhookEventProcessed records a provider event as handled. A second
// call for the same provider and event ID hits the unique index and returns
// ErrAlreadyExists, which is what makes webhook redeliveries idempotent.
func (s *Storage) MarkWebhookEventProcessed(provider Provider, eventID, eventType string) error {
	if provider == "" || eventID == "" {
		return ErrInvalidData
	}
	now := time.Now()
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).Create(&WebhookEvent{
		Provider:    provider,
		EventID:     eventID,
		EventType:   eventType,
		ReceivedAt:  now,
		ProcessedAt: &now,
	}).Error)
}

// WebhookEventExists reports whether the provider event was already handled.
func (s *Storage) WebhookEventExists(provider Provider, eventID string) bool {
	if provider == "" || eventID == "" {
		return false
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var count int64
	err := s.db.WithContext(ctx).
		Model(&WebhookEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Count(&count).Error
	return err == nil && count > 0
}

// PruneWebhookEvents deletes idempotency records older than the deadline.
// Providers stop redelivering after a few days, so old rows are dead weight.
func (s *Storage) PruneWebhookEvents(deadline time.Time) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).
		Where("received_at < ?", deadline).
		Delete(&WebhookEvent{}).Error)
}

// ProviderEventStore adapts the webhook event table to the per-provider
// event store interface the payment services consume.
type ProviderEventStore struct {
	storage  *Storage
	provider Provider
}

// NewProviderEventStore returns an event store scoped to one provider.
func NewProviderEventStore(s *Storage, provider Provider) *ProviderEventStore {
	return &ProviderEventStore{storage: s, provider: provider}
}

// EventExists reports whether the event was already processed.
func (p *ProviderEventStore) EventExists(eventID string) bool {
	return p.storage.WebhookEventExists(p.provider, eventID)
}

// MarkProcessed records the event as processed.
func (p *ProviderEventStore) MarkProcessed(eventID string) error {
	return p.storage.MarkWebhookEventProcessed(p.provider, eventID, "")
}
