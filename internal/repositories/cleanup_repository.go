package repository

import (
	"context"

	"gorm.io/gorm"

	model "task-board.com/task-board/internal/models"
)

type CleanupRepository struct {
	db *gorm.DB
}

func NewCleanupRepository(db *gorm.DB) *CleanupRepository {
	return &CleanupRepository{db: db}
}

// Wipe deletes every task and every user except keepUserID. Both deletes run
// in one transaction so a failure cannot leave a half-cleaned database.
func (r *CleanupRepository) Wipe(ctx context.Context, keepUserID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Task{}).Error; err != nil {
			return err
		}

		return tx.Where("id <> ?", keepUserID).Delete(&model.User{}).Error
	})
}
