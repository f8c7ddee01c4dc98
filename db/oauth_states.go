package db

import (
	"time"

	"gorm.io/gorm"
)

// SetOAuthState stores a new single-use OAuth state token.
func (s *Storage) SetOAuthState(st *OAuthState) error {
	if st == nil || st.State == "" || st.OrganizationID == "" {
		return ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).Create(st).Error)
}

// OAuthState returns the stored state token, used or not.
func (s *Storage) OAuthState(state string) (*OAuthState, error) {
	if state == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var st OAuthState
	if err := s.db.WithContext(ctx).First(&st, "state = ?", state).Error; err != nil {
		return nil, translateErr(err)
	}
	return &st, nil
}

// ConsumeOAuthState atomically marks a state token as used and returns it.
// A missing or already used token yields ErrNotFound, an expired one
// ErrCodeExpired. Either way the token cannot be consumed twice.
func (s *Storage) ConsumeOAuthState(state string) (*OAuthState, error) {
	if state == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var st OAuthState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&st, "state = ?", state).Error; err != nil {
			return translateErr(err)
		}
		if st.Used {
			return ErrNotFound
		}
		if time.Now().After(st.ExpiresAt) {
			return ErrCodeExpired
		}
		st.Used = true
		return translateErr(tx.Model(&st).Update("used", true).Error)
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// DeleteExpiredOAuthStates prunes state tokens that expired before the given
// deadline. Called by the periodic maintenance sweep.
func (s *Storage) DeleteExpiredOAuthStates(deadline time.Time) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).
		Where("expires_at < ?", deadline).
		Delete(&OAuthState{}).Error)
}
