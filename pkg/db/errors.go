package db

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFound reports whether err signals a lookup that matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
