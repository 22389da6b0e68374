// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file manages the single-row Settings table and the
// bulk ReplaceAll operation used by configuration import.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// settingsRowID pins settings to a single well-known row.
const settingsRowID = 1

// DefaultSettings returns the seed configuration applied on first boot.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		ID:            settingsRowID,
		Title:         "Genomics Diet Report",
		Quote:         "Eat according to your genes.",
		Description:   "Enter a score from 1 to 10 for each marker to receive tier-based recommendations.",
		HeaderColor:   "#1f2937",
		HighThreshold: 8,
		Colors: domain.TierColors{
			Low:    "#16a34a",
			Medium: "#eab308",
			High:   "#dc2626",
		},
	}
}

// GetSettings loads the settings row, seeding the defaults when the table is
// still empty.
func GetSettings(ctx context.Context, db *gorm.DB) (domain.Settings, error) {
	var s domain.Settings
	err := db.WithContext(ctx).First(&s, settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = DefaultSettings()
		if err := db.WithContext(ctx).Create(&s).Error; err != nil {
			return domain.Settings{}, err
		}
		return s, nil
	}
	return s, err
}

// SaveSettings replaces the settings row wholesale.
func SaveSettings(ctx context.Context, db *gorm.DB, s domain.Settings) error {
	s.ID = settingsRowID
	return db.WithContext(ctx).Save(&s).Error
}

// ReplaceAll swaps the entire configuration in one transaction: all fields
// and categories are deleted, the imported ones recreated, and the settings
// row overwritten. Mirrors the in-memory wholesale import so the persisted
// state and the displayed state cannot diverge on reload.
func ReplaceAll(ctx context.Context, db *gorm.DB, fields []domain.Field, categories []domain.Category, settings domain.Settings) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Field{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&domain.Category{}).Error; err != nil {
			return err
		}
		for i := range categories {
			categories[i].Position = i
			if err := tx.Create(&categories[i]).Error; err != nil {
				return err
			}
		}
		for i := range fields {
			fields[i].Position = i
			if err := tx.Create(&fields[i]).Error; err != nil {
				return err
			}
		}
		settings.ID = settingsRowID
		return tx.Save(&settings).Error
	})
}
