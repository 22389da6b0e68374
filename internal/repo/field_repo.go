// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Field
// model — the catalog of scoring dimensions.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Ordering invariants (contiguous
// positions, cascades on category changes) are enforced by the service
// layer; the repo persists what it is given.
//
// Error semantics:
//   - When a field is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListFields returns the whole field catalog ordered by display position.
// It returns an empty slice when no fields exist.
func ListFields(ctx context.Context, db *gorm.DB) ([]domain.Field, error) {
	var out []domain.Field
	err := db.WithContext(ctx).Order("position asc").Find(&out).Error
	return out, err
}

// UpsertField inserts the field or, when the primary key already exists,
// updates every column. Used for both add and edit flows since the field id
// is operator-assigned.
func UpsertField(ctx context.Context, db *gorm.DB, f *domain.Field) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(f).Error
}

// RenameField changes a field's primary key while keeping the row. Needed
// because the admin surface allows editing the id in place.
func RenameField(ctx context.Context, db *gorm.DB, oldID string, f *domain.Field) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Field{}).Where("id = ?", oldID).
			Updates(map[string]any{
				"id":       f.ID,
				"label":    f.Label,
				"category": f.Category,
				"min":      f.Min,
				"max":      f.Max,
				"high":     f.High,
				"normal":   f.Normal,
				"low":      f.Low,
				"position": f.Position,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteField removes a field by id. Returns ErrNotFound when no row was
// deleted.
func DeleteField(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Field{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveFieldPositions persists a new catalog ordering in one transaction.
// positions maps field id to its zero-based display position.
func SaveFieldPositions(ctx context.Context, db *gorm.DB, positions map[string]int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, pos := range positions {
			if err := tx.Model(&domain.Field{}).
				Where("id = ?", id).
				Update("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RecategorizeFields rewrites the category name on every field currently
// referencing oldName. Called inside the same transaction as the category
// rename or delete so no dangling reference is ever persisted.
func RecategorizeFields(ctx context.Context, db *gorm.DB, oldName, newName string) error {
	return db.WithContext(ctx).Model(&domain.Field{}).
		Where("category = ?", oldName).
		Update("category", newName).Error
}
