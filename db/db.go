// Package db provides the relational storage layer for the backend. It is
// built on top of gorm and keeps one file per entity with Set/Get/Del
// style accessors.
package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// dbTimeout is the maximum time a single storage operation is allowed to take.
const dbTimeout = 10 * time.Second

// Storage wraps the gorm database handle and exposes the typed accessors
// implemented in the per-entity files of this package.
type Storage struct {
	db *gorm.DB
}

// New creates a Storage on top of the given gorm dialector (MySQL in
// production, SQLite in tests) and runs the schema migrations.
func New(dialector gorm.Dialector) (*Storage, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err := gdb.AutoMigrate(
		&Organization{},
		&MerchantConnection{},
		&OAuthState{},
		&Subscription{},
		&SubscriptionEvent{},
		&PromoCode{},
		&DeviceRegistration{},
		&WebhookEvent{},
	); err != nil {
		return nil, fmt.Errorf("cannot run migrations: %w", err)
	}
	return &Storage{db: gdb}, nil
}

// Close releases the underlying database connection pool.
func (s *Storage) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

// Reset removes every row from every table. Used by tests.
func (s *Storage) Reset() error {
	for _, model := range []any{
		&WebhookEvent{},
		&DeviceRegistration{},
		&PromoCode{},
		&SubscriptionEvent{},
		&Subscription{},
		&OAuthState{},
		&MerchantConnection{},
		&Organization{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// ctx returns a context bounded by dbTimeout for a single operation.
func (*Storage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
