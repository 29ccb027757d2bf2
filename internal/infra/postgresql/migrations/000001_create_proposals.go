package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
	"gorm.io/gorm"
)

func createProposalsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_proposals",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ProposalModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_proposals_created_at ON proposals (created_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_proposals_email ON proposals (email)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ProposalModel{})
		},
	}
}
