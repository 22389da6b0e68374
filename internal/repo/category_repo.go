// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Category
// model. Category renames and deletes are transactional with the field
// fix-up (see RecategorizeFields) so the store never holds a field pointing
// at a category name that no longer exists.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// ListCategories returns all categories ordered by display position.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).Order("position asc").Find(&out).Error
	return out, err
}

// CreateCategory inserts a new category row.
func CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	return db.WithContext(ctx).Create(c).Error
}

// RenameCategory updates a category's name and rewrites every field
// referencing the old name, atomically.
func RenameCategory(ctx context.Context, db *gorm.DB, id, oldName, newName string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Category{}).Where("id = ?", id).Update("name", newName)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return RecategorizeFields(ctx, tx, oldName, newName)
	})
}

// DeleteCategory removes a category and resets every field referencing it
// to the uncategorized sentinel "", atomically.
func DeleteCategory(ctx context.Context, db *gorm.DB, id, name string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Category{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return RecategorizeFields(ctx, tx, name, "")
	})
}

// SaveCategoryPositions persists category display order in one transaction.
func SaveCategoryPositions(ctx context.Context, db *gorm.DB, positions map[string]int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, pos := range positions {
			if err := tx.Model(&domain.Category{}).
				Where("id = ?", id).
				Update("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
