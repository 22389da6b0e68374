// Package services – ReportService
//
// This file implements the ReportService, the submit path of the scoring
// form. It re-validates every submitted score (collecting all failures at
// once), runs the tiering engine against the current configuration
// snapshot, and persists the raw input as the user's draft so a reload can
// restore in-progress answers. Draft persistence is best effort: a store
// hiccup is logged but never blocks a generated report.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-scorecard-backend/internal/report"
	"github.com/tbourn/go-scorecard-backend/internal/score"
	"github.com/tbourn/go-scorecard-backend/internal/state"
)

// DraftStore defines the persistence contract for in-progress score input.
type DraftStore interface {
	// GetDraft returns the saved raw scores for userID, or an empty map.
	GetDraft(ctx context.Context, db *gorm.DB, userID string) (map[string]string, error)

	// SaveDraft upserts the full raw score mapping for userID.
	SaveDraft(ctx context.Context, db *gorm.DB, userID string, scores map[string]string) error

	// DeleteDraft erases the persisted draft for userID.
	DeleteDraft(ctx context.Context, db *gorm.DB, userID string) error
}

// SnapshotProvider yields the configuration snapshot reports are generated
// against. Satisfied by *ConfigService.
type SnapshotProvider interface {
	Snapshot() state.Snapshot
}

// ReportService validates score submissions and turns them into report
// models. It never mutates the configuration.
type ReportService struct {
	// DB is the GORM handle used for draft persistence.
	DB *gorm.DB
	// Config provides the snapshot to generate against.
	Config SnapshotProvider
	// Drafts is the draft persistence backend.
	Drafts DraftStore
}

// Generate validates the submitted raw scores and, when every field passes,
// returns the report model in catalog order. On validation failure it
// returns the complete per-field error mapping alongside ErrInvalidScores
// and generation is not attempted. Successful submissions persist the raw
// input as the user's draft.
func (s *ReportService) Generate(ctx context.Context, userID string, scores map[string]string) (report.Report, map[string]string, error) {
	snap := s.Config.Snapshot()

	if fieldErrs := score.Validate(snap.Fields, scores); len(fieldErrs) > 0 {
		return nil, fieldErrs, ErrInvalidScores
	}

	rep := report.Generate(snap.Fields, scores, snap.Settings.HighThreshold)

	if err := s.Drafts.SaveDraft(ctx, s.DB, userID, scores); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("score draft save failed")
	}
	return rep, nil, nil
}

// Preview runs the tiering engine without submit-time validation or draft
// persistence: invalid scores are skipped per the engine's policy. Used by
// the document export endpoints, which accept the same payload as Generate
// but must not mutate drafts.
func (s *ReportService) Preview(scores map[string]string) report.Report {
	snap := s.Config.Snapshot()
	return report.Generate(snap.Fields, scores, snap.Settings.HighThreshold)
}

// Draft returns the user's saved raw input mapping; absent drafts yield an
// empty map.
func (s *ReportService) Draft(ctx context.Context, userID string) (map[string]string, error) {
	return s.Drafts.GetDraft(ctx, s.DB, userID)
}

// SaveDraft normalizes each raw value (digits only) and persists the whole
// mapping, mirroring the keep-while-typing behavior of the form.
func (s *ReportService) SaveDraft(ctx context.Context, userID string, scores map[string]string) (map[string]string, error) {
	normalized := make(map[string]string, len(scores))
	for id, raw := range scores {
		normalized[id] = score.Normalize(raw)
	}
	if err := s.Drafts.SaveDraft(ctx, s.DB, userID, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// ClearDraft erases the persisted draft together with whatever the client
// holds in memory.
func (s *ReportService) ClearDraft(ctx context.Context, userID string) error {
	return s.Drafts.DeleteDraft(ctx, s.DB, userID)
}
