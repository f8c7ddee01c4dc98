package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Possible storage errors. Callers compare with errors.Is.
var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrAlreadyExists = fmt.Errorf("already exists")
	ErrInvalidData   = fmt.Errorf("invalid data provided")
	ErrCodeExpired   = fmt.Errorf("code expired")
	ErrCodeExhausted = fmt.Errorf("code redemption limit reached")
)

// translateErr converts gorm sentinel errors into this package's ones.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	default:
		return err
	}
}
