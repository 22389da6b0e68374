// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file stores per-user score drafts: the raw input
// mapping persisted on submit so a reload can restore in-progress answers.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// GetDraft returns the saved raw score mapping for userID. A missing draft
// is not an error; it yields an empty mapping, matching the behavior of a
// client with nothing in local storage.
func GetDraft(ctx context.Context, db *gorm.DB, userID string) (map[string]string, error) {
	var d domain.ScoreDraft
	err := db.WithContext(ctx).First(&d, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	scores := map[string]string{}
	if err := json.Unmarshal([]byte(d.Scores), &scores); err != nil {
		// A corrupt draft should not block the form; treat it as absent.
		return map[string]string{}, nil
	}
	return scores, nil
}

// SaveDraft upserts the full raw score mapping for userID.
func SaveDraft(ctx context.Context, db *gorm.DB, userID string, scores map[string]string) error {
	raw, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	d := domain.ScoreDraft{UserID: userID, Scores: string(raw), UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).Save(&d).Error
}

// DeleteDraft erases the persisted draft for userID. Deleting a missing
// draft is a no-op.
func DeleteDraft(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Delete(&domain.ScoreDraft{}, "user_id = ?", userID).Error
}
