package db

import "time"

// SetMerchantConnection creates or updates the connection for the
// organization and provider pair carried in conn.
func (s *Storage) SetMerchantConnection(conn *MerchantConnection) error {
	if conn == nil || conn.OrganizationID == "" || conn.Provider == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var existing MerchantConnection
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND provider = ?", conn.OrganizationID, conn.Provider).
		First(&existing).Error
	if err == nil {
		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
	}
	return translateErr(s.db.WithContext(ctx).Save(conn).Error)
}

// MerchantConnection returns the connection of the given organization for the
// given provider.
func (s *Storage) MerchantConnection(orgID string, provider Provider) (*MerchantConnection, error) {
	if orgID == "" || provider == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var conn MerchantConnection
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND provider = ?", orgID, provider).
		First(&conn).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &conn, nil
}

// MerchantConnectionByMerchantID resolves the connection owning the given
// provider-side merchant ID. Webhooks use it to map events to organizations.
func (s *Storage) MerchantConnectionByMerchantID(merchantID string) (*MerchantConnection, error) {
	if merchantID == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var conn MerchantConnection
	if err := s.db.WithContext(ctx).First(&conn, "merchant_id = ?", merchantID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &conn, nil
}

// MerchantConnectionsExpiringBefore returns every connection whose access
// token expires before the given deadline. The refresh sweep feeds on this.
func (s *Storage) MerchantConnectionsExpiringBefore(deadline time.Time) ([]*MerchantConnection, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	var conns []*MerchantConnection
	err := s.db.WithContext(ctx).
		Where("expires_at < ?", deadline).
		Order("expires_at asc").
		Find(&conns).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return conns, nil
}

// DelMerchantConnection removes the connection of the given organization and
// provider, e.g. after a disconnect or a remote authorization revocation.
func (s *Storage) DelMerchantConnection(orgID string, provider Provider) error {
	if orgID == "" || provider == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	result := s.db.WithContext(ctx).
		Where("organization_id = ? AND provider = ?", orgID, provider).
		Delete(&MerchantConnection{})
	if result.Error != nil {
		return translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
