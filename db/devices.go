package db

import "time"

// SetDeviceRegistration creates or updates a device registration keyed by the
// app-provided device ID.
func (s *Storage) SetDeviceRegistration(dev *DeviceRegistration) error {
	if dev == nil || dev.DeviceID == "" || dev.OrganizationID == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).Save(dev).Error)
}

// DeviceRegistration returns the device with the given ID.
func (s *Storage) DeviceRegistration(deviceID string) (*DeviceRegistration, error) {
	if deviceID == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var dev DeviceRegistration
	if err := s.db.WithContext(ctx).First(&dev, "device_id = ?", deviceID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &dev, nil
}

// OrganizationDevices returns every device of the organization, active first.
func (s *Storage) OrganizationDevices(orgID string) ([]*DeviceRegistration, error) {
	if orgID == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var devs []*DeviceRegistration
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("active desc, last_seen_at desc").
		Find(&devs).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return devs, nil
}

// CountActiveDevices returns how many active devices the organization has
// registered. Entitlement checks compare this against the plan limit.
func (s *Storage) CountActiveDevices(orgID string) (int64, error) {
	if orgID == "" {
		return 0, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var count int64
	err := s.db.WithContext(ctx).
		Model(&DeviceRegistration{}).
		Where("organization_id = ? AND active = ?", orgID, true).
		Count(&count).Error
	if err != nil {
		return 0, translateErr(err)
	}
	return count, nil
}

// TouchDevice updates the last-seen timestamp of a device heartbeat.
func (s *Storage) TouchDevice(deviceID string, seenAt time.Time) error {
	if deviceID == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	result := s.db.WithContext(ctx).
		Model(&DeviceRegistration{}).
		Where("device_id = ?", deviceID).
		Update("last_seen_at", seenAt)
	if result.Error != nil {
		return translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateDevice marks a device as inactive so it no longer counts against
// the plan's device limit.
func (s *Storage) DeactivateDevice(deviceID string) error {
	if deviceID == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	result := s.db.WithContext(ctx).
		Model(&DeviceRegistration{}).
		Where("device_id = ?", deviceID).
		Update("active", false)
	if result.Error != nil {
		return translateErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
