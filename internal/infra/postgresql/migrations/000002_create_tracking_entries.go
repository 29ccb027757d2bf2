package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
	"gorm.io/gorm"
)

func createTrackingEntriesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_tracking_entries",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.TrackingEntryModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_tracking_entries_proposal_created ON tracking_entries (proposal_id, created_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.TrackingEntryModel{})
		},
	}
}
