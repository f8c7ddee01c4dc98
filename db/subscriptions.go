package db

// SetSubscription creates or updates the subscription mirror for the
// organization and provider pair carried in sub.
func (s *Storage) SetSubscription(sub *Subscription) error {
	if sub == nil || sub.OrganizationID == "" || sub.Provider == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var existing Subscription
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND provider = ?", sub.OrganizationID, sub.Provider).
		First(&existing).Error
	if err == nil {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	}
	return translateErr(s.db.WithContext(ctx).Save(sub).Error)
}

// Subscription returns the subscription of the given organization for the
// given provider.
func (s *Storage) Subscription(orgID string, provider Provider) (*Subscription, error) {
	if orgID == "" || provider == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var sub Subscription
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND provider = ?", orgID, provider).
		First(&sub).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &sub, nil
}

// SubscriptionByProviderID resolves a local subscription by the provider-side
// subscription object ID.
func (s *Storage) SubscriptionByProviderID(provider Provider, providerSubID string) (*Subscription, error) {
	if provider == "" || providerSubID == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var sub Subscription
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_subscription_id = ?", provider, providerSubID).
		First(&sub).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &sub, nil
}

// ActiveSubscription returns the entitled subscription of the organization,
// regardless of provider. When both providers ever hold one, the most
// recently updated wins.
func (s *Storage) ActiveSubscription(orgID string) (*Subscription, error) {
	if orgID == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var sub Subscription
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND status IN ?", orgID, []SubscriptionStatus{
			StatusActive, StatusTrialing, StatusPendingCancellation,
		}).
		Order("updated_at desc").
		First(&sub).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &sub, nil
}

// AppendSubscriptionEvent records a billing state change in the audit trail.
func (s *Storage) AppendSubscriptionEvent(ev *SubscriptionEvent) error {
	if ev == nil || ev.OrganizationID == "" || ev.EventType == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).Create(ev).Error)
}

// SubscriptionEvents returns the latest audit trail entries for the
// organization, newest first, up to limit entries.
func (s *Storage) SubscriptionEvents(orgID string, limit int) ([]*SubscriptionEvent, error) {
	if orgID == "" {
		return nil, ErrInvalidData
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var events []*SubscriptionEvent
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return events, nil
}
