package db

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// normalizeCode uppercases and trims a promo code so lookups are
// case-insensitive.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SetPromoCode creates or updates a promo code.
func (s *Storage) SetPromoCode(code *PromoCode) error {
	if code == nil || code.Code == "" {
		return ErrInvalidData
	}
	code.Code = normalizeCode(code.Code)
	ctx, cancel := s.ctx()
	defer cancel()
	return translateErr(s.db.WithContext(ctx).Save(code).Error)
}

// PromoCode returns the promo code record, whatever its state.
func (s *Storage) PromoCode(code string) (*PromoCode, error) {
	if code == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var p PromoCode
	if err := s.db.WithContext(ctx).First(&p, "code = ?", normalizeCode(code)).Error; err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

// checkRedeemable returns the typed error matching the code state, or nil
// when a redemption is still possible.
func checkRedeemable(p *PromoCode) error {
	if !p.Active {
		return ErrNotFound
	}
	if !p.ExpiresAt.IsZero() && time.Now().After(p.ExpiresAt) {
		return ErrCodeExpired
	}
	if p.MaxRedemptions > 0 && p.Redemptions >= p.MaxRedemptions {
		return ErrCodeExhausted
	}
	return nil
}

// ValidatePromoCode checks whether the code could be redeemed right now
// without consuming it. Inactive codes are reported as not found.
func (s *Storage) ValidatePromoCode(code string) (*PromoCode, error) {
	p, err := s.PromoCode(code)
	if err != nil {
		return nil, err
	}
	if err := checkRedeemable(p); err != nil {
		return nil, err
	}
	return p, nil
}

// RedeemPromoCode consumes one redemption of the code. The row is locked for
// the duration of the transaction so concurrent redemptions cannot overshoot
// MaxRedemptions.
func (s *Storage) RedeemPromoCode(code string) (*PromoCode, error) {
	if code == "" {
		return nil, ErrInvalidData
	}
	ctx, cancel := s.ctx()
	defer cancel()
	var p PromoCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "code = ?", normalizeCode(code)).Error
		if err != nil {
			return translateErr(err)
		}
		if err := checkRedeemable(&p); err != nil {
			return err
		}
		p.Redemptions++
		return translateErr(tx.Model(&p).Update("redemptions", p.Redemptions).Error)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
