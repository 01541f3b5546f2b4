package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/model"
)

// AutoMigrate migrates the full table set.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Account{},
		&model.Instance{},
		&model.InstanceSequence{},
		&model.ProvisionIntent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	return nil
}
