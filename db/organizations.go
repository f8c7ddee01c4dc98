package db

import (
	"github.com/google/uuid"
)

// SetOrganization creates or updates an organization. A missing ID gets a
// fresh UUID assigned, which the caller can read back from org.ID.
func (s *Storage) SetOrganization(org *Organization) error {
	if org == nil || org.Name == "" {
		return ErrInvalidData
	}
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).Save(org).Error)
}

// Organization returns the organization with the given ID.
func (s *Storage) Organization(id string) (*Organization, error) {
	if id == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var org Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &org, nil
}

// OrganizationByEmail returns the organization registered under the given
// contact email.
func (s *Storage) OrganizationByEmail(email string) (*Organization, error) {
	if email == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var org Organization
	if err := s.db.WithContext(ctx).First(&org, "email = ?", email).Error; err != nil {
		return nil, translateErr(err)
	}
	return &org, nil
}

// DelOrganization removes an organization and is mostly useful in tests.
func (s *Storage) DelOrganization(id string) error {
	if id == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).Delete(&Organization{}, "id = ?", id).Error)
}
