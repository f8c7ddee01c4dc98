// Package subscriptions answers entitlement questions: what an organization
// is allowed to do given the billing state mirrored from the payment
// providers.
package subscriptions

import (
	"errors"
	"fmt"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
)

// Feature is a plan-gated capability of the kiosk app.
type Feature string

const (
	FeatureCustomBranding Feature = "custom_branding"
	FeatureSMSReceipts    Feature = "sms_receipts"
	FeatureBackgroundSync Feature = "background_sync"
)

// PlanLimits describes what a plan allows.
type PlanLimits struct {
	// MaxDevices caps the active kiosk devices; non-positive means the
	// subscription's purchased quantity applies.
	MaxDevices int
	Features   []Feature
}

// DBInterface is the storage interface the entitlement checks need.
// Implemented by *db.Storage.
type DBInterface interface {
	ActiveSubscription(orgID string) (*db.Subscription, error)
	CountActiveDevices(orgID string) (int64, error)
}

// Subscriptions resolves entitlement questions against the subscription
// mirror and the plan catalog.
type Subscriptions struct {
	db    DBInterface
	plans map[string]PlanLimits
}

// DefaultPlans is the standard plan catalog of the kiosk backend.
var DefaultPlans = map[string]PlanLimits{
	"standard": {
		MaxDevices: 0, // purchased quantity applies
		Features:   []Feature{FeatureBackgroundSync},
	},
	"pro": {
		MaxDevices: 0,
		Features:   []Feature{FeatureBackgroundSync, FeatureCustomBranding, FeatureSMSReceipts},
	},
}

// New creates a Subscriptions service. A nil plan catalog falls back to
// DefaultPlans.
func New(database DBInterface, plans map[string]PlanLimits) *Subscriptions {
	if plans == nil {
		plans = DefaultPlans
	}
	return &Subscriptions{db: database, plans: plans}
}

// Active returns the entitled subscription of the organization, or
// db.ErrNotFound when none exists.
func (s *Subscriptions) Active(orgID string) (*db.Subscription, error) {
	return s.db.ActiveSubscription(orgID)
}

// deviceLimit returns the device cap for the subscription, favoring the plan
// cap over the purchased quantity.
func (s *Subscriptions) deviceLimit(sub *db.Subscription) int {
	if limits, ok := s.plans[sub.PlanID]; ok && limits.MaxDevices > 0 {
		return limits.MaxDevices
	}
	if sub.DeviceQuantity > 0 {
		return sub.DeviceQuantity
	}
	return 1
}

// CanRegisterDevice reports whether the organization may enroll one more
// kiosk device. Organizations without a subscription get a single device so
// they can try the app and reach checkout.
func (s *Subscriptions) CanRegisterDevice(orgID string) (bool, error) {
	count, err := s.db.CountActiveDevices(orgID)
	if err != nil {
		return false, fmt.Errorf("cannot count devices: %w", err)
	}
	sub, err := s.db.ActiveSubscription(orgID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return count < 1, nil
		}
		return false, err
	}
	return count < int64(s.deviceLimit(sub)), nil
}

// MaxDevices returns how many kiosk devices the organization may keep
// active. Without a subscription the trial allowance of one device applies.
func (s *Subscriptions) MaxDevices(orgID string) (int, error) {
	sub, err := s.db.ActiveSubscription(orgID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 1, nil
		}
		return 0, err
	}
	return s.deviceLimit(sub), nil
}

// Features returns the gated features of the organization's active plan.
func (s *Subscriptions) Features(orgID string) ([]Feature, error) {
	sub, err := s.db.ActiveSubscription(orgID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	limits, ok := s.plans[sub.PlanID]
	if !ok {
		return nil, nil
	}
	return limits.Features, nil
}

// HasFeature reports whether the organization's plan includes the feature.
// No subscription means no gated features.
func (s *Subscriptions) HasFeature(orgID string, feature Feature) (bool, error) {
	sub, err := s.db.ActiveSubscription(orgID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	limits, ok := s.plans[sub.PlanID]
	if !ok {
		return false, nil
	}
	for _, f := range limits.Features {
		if f == feature {
			return true, nil
		}
	}
	return false, nil
}
