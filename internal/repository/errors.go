package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicate reports that a write violated a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// translateWriteError maps driver-level constraint failures onto ErrDuplicate.
// TranslateError covers the drivers that implement it; the message check
// catches drivers that only report the raw constraint text.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return ErrDuplicate
	}
	return err
}
