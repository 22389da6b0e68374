// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// ConfigStats returns aggregate metadata for the configuration: the number
// of fields and categories, and the greatest UpdatedAt timestamp across
// both tables. When the catalog is empty, maxUpdatedAt is nil.
func ConfigStats(ctx context.Context, db *gorm.DB) (fields, categories int64, maxUpdatedAt *time.Time, err error) {
	if err = db.WithContext(ctx).Model(&domain.Field{}).Count(&fields).Error; err != nil {
		return 0, 0, nil, err
	}
	if err = db.WithContext(ctx).Model(&domain.Category{}).Count(&categories).Error; err != nil {
		return 0, 0, nil, err
	}
	if fields == 0 && categories == 0 {
		return 0, 0, nil, nil
	}

	// Avoid MAX() -> TEXT coercion in SQLite by reading a typed column.
	var row struct{ UpdatedAt time.Time }
	q := db.WithContext(ctx).
		Table("(SELECT updated_at FROM fields UNION ALL SELECT updated_at FROM categories) AS u").
		Select("updated_at").
		Order("updated_at DESC").
		Limit(1)
	if err = q.Scan(&row).Error; err != nil {
		return fields, categories, nil, err
	}
	if !row.UpdatedAt.IsZero() {
		maxUpdatedAt = &row.UpdatedAt
	}
	return fields, categories, maxUpdatedAt, nil
}
