// Package services – ConfigService
//
// This file implements the ConfigService, the process-wide owner of the
// configuration aggregate. It loads the store into an in-memory snapshot,
// funnels every mutation through the state machine's named operations, and
// persists the result. Validation failures never touch the store; store
// failures never roll back the already-applied local mutation — instead the
// affected entity is marked dirty and the divergence is observable through
// Status, so callers can re-save or reload explicitly.
//
// Bulk import is the one exception to the optimistic rule: the store is
// replaced first and the snapshot swapped only on success, because import
// must leave memory and store equal or leave both untouched.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
	"github.com/tbourn/go-scorecard-backend/internal/state"
)

// ConfigStore defines the persistence contract required by ConfigService.
// Implementations are responsible for durable storage of the aggregate.
type ConfigStore interface {
	// ListFields returns the catalog ordered by position.
	ListFields(ctx context.Context, db *gorm.DB) ([]domain.Field, error)

	// ListCategories returns all categories ordered by position.
	ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error)

	// GetSettings returns the settings row, seeding defaults when absent.
	GetSettings(ctx context.Context, db *gorm.DB) (domain.Settings, error)

	// UpsertField inserts or updates one field.
	UpsertField(ctx context.Context, db *gorm.DB, f *domain.Field) error

	// RenameField moves a row to a new primary key, updating all columns.
	RenameField(ctx context.Context, db *gorm.DB, oldID string, f *domain.Field) error

	// DeleteField removes one field by id.
	DeleteField(ctx context.Context, db *gorm.DB, id string) error

	// SaveFieldPositions persists a new catalog ordering.
	SaveFieldPositions(ctx context.Context, db *gorm.DB, positions map[string]int) error

	// CreateCategory inserts a new category.
	CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error

	// RenameCategory renames a category and recategorizes fields atomically.
	RenameCategory(ctx context.Context, db *gorm.DB, id, oldName, newName string) error

	// DeleteCategory removes a category and uncategorizes fields atomically.
	DeleteCategory(ctx context.Context, db *gorm.DB, id, name string) error

	// SaveCategoryPositions persists a new category ordering.
	SaveCategoryPositions(ctx context.Context, db *gorm.DB, positions map[string]int) error

	// SaveSettings replaces the settings row.
	SaveSettings(ctx context.Context, db *gorm.DB, s domain.Settings) error

	// ReplaceAll swaps the entire stored configuration in one transaction.
	ReplaceAll(ctx context.Context, db *gorm.DB, fields []domain.Field, categories []domain.Category, settings domain.Settings) error
}

// ConfigService owns the in-memory configuration snapshot and keeps it in
// step with the store. All methods are safe for concurrent use; reads serve
// the current snapshot value, writes serialize on an internal mutex.
type ConfigService struct {
	// DB is the GORM handle passed through to the store.
	DB *gorm.DB
	// Store is the persistence backend.
	Store ConfigStore

	mu    sync.RWMutex
	snap  state.Snapshot
	dirty map[string]struct{}
}

// NewConfigService constructs a ConfigService over the given handle and store.
func NewConfigService(db *gorm.DB, store ConfigStore) *ConfigService {
	return &ConfigService{DB: db, Store: store, dirty: make(map[string]struct{})}
}

// Load reads the full configuration from the store and resets the snapshot.
// Must be called before the first read of dependent views.
func (s *ConfigService) Load(ctx context.Context) error {
	fields, err := s.Store.ListFields(ctx, s.DB)
	if err != nil {
		return err
	}
	categories, err := s.Store.ListCategories(ctx, s.DB)
	if err != nil {
		return err
	}
	settings, err := s.Store.GetSettings(ctx, s.DB)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = state.Snapshot{Fields: fields, Categories: categories, Settings: settings}
	s.dirty = make(map[string]struct{})
	return nil
}

// Snapshot returns the current configuration snapshot. The returned value is
// copy-on-write: callers may hold it as long as they like.
func (s *ConfigService) Snapshot() state.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Status reports the snapshot version and the entities whose local edits
// have not reached the store.
func (s *ConfigService) Status() (version uint64, dirty []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dirty = make([]string, 0, len(s.dirty))
	for k := range s.dirty {
		dirty = append(dirty, k)
	}
	sort.Strings(dirty)
	return s.snap.Version, dirty
}

// apply runs a state transition and, on success, a store save. The local
// mutation always wins: a failed save marks the entity dirty and surfaces
// ErrStoreSave without rolling back.
func (s *ConfigService) apply(entity string, op func(state.Snapshot) (state.Snapshot, error), save func() error) (state.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := op(s.snap)
	if err != nil {
		return s.snap, err
	}
	s.snap = next

	if err := save(); err != nil {
		s.dirty[entity] = struct{}{}
		log.Warn().Err(err).Str("entity", entity).Msg("configuration save failed; local state kept")
		return s.snap, fmt.Errorf("%w: %v", ErrStoreSave, err)
	}
	delete(s.dirty, entity)
	return s.snap, nil
}

// AddField appends a new field to the catalog. A blank id is replaced with a
// generated one so the admin surface can offer a ready-to-edit template.
func (s *ConfigService) AddField(ctx context.Context, f domain.Field) (state.Snapshot, error) {
	if f.ID == "" {
		f.ID = "field_" + uuid.NewString()[:8]
	}
	return s.apply("field:"+f.ID,
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.AddField(f) },
		func() error {
			saved := f
			saved.Position = len(s.snap.Fields) - 1
			return s.Store.UpsertField(ctx, s.DB, &saved)
		})
}

// UpdateField replaces the field with the given id. The replacement may
// carry a different id, which renames the stored row.
func (s *ConfigService) UpdateField(ctx context.Context, id string, f domain.Field) (state.Snapshot, error) {
	s.mu.RLock()
	idx := s.snap.IndexOfField(id)
	s.mu.RUnlock()
	if idx < 0 {
		return s.Snapshot(), ErrFieldNotFound
	}
	return s.apply("field:"+f.ID,
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.UpdateField(idx, f) },
		func() error {
			saved := f
			saved.Position = idx
			if saved.ID != id {
				return s.Store.RenameField(ctx, s.DB, id, &saved)
			}
			return s.Store.UpsertField(ctx, s.DB, &saved)
		})
}

// DeleteField removes the field with the given id; remaining order is
// preserved.
func (s *ConfigService) DeleteField(ctx context.Context, id string) (state.Snapshot, error) {
	s.mu.RLock()
	idx := s.snap.IndexOfField(id)
	s.mu.RUnlock()
	if idx < 0 {
		return s.Snapshot(), ErrFieldNotFound
	}
	return s.apply("field:"+id,
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.DeleteField(idx) },
		func() error {
			if err := s.Store.DeleteField(ctx, s.DB, id); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return s.saveFieldOrder(ctx)
		})
}

// ReorderFields replaces the catalog order. ids must be a permutation of the
// current field ids.
func (s *ConfigService) ReorderFields(ctx context.Context, ids []string) (state.Snapshot, error) {
	return s.apply("fields:order",
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.ReorderFields(ids) },
		func() error { return s.saveFieldOrder(ctx) })
}

// saveFieldOrder persists the snapshot's current field positions. Callers
// hold the write lock.
func (s *ConfigService) saveFieldOrder(ctx context.Context) error {
	positions := make(map[string]int, len(s.snap.Fields))
	for i, f := range s.snap.Fields {
		positions[f.ID] = i
	}
	return s.Store.SaveFieldPositions(ctx, s.DB, positions)
}

// AddCategory creates a category with a store-assigned id.
func (s *ConfigService) AddCategory(ctx context.Context, name string) (state.Snapshot, error) {
	c := domain.Category{ID: uuid.NewString(), Name: name}
	return s.apply("category:"+c.ID,
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.AddCategory(c) },
		func() error {
			saved := c
			saved.Name = state.NormalizeName(c.Name)
			saved.Position = len(s.snap.Categories) - 1
			return s.Store.CreateCategory(ctx, s.DB, &saved)
		})
}

// RenameCategory renames the category with the given store id; every field
// referencing the old name follows in the same transition.
func (s *ConfigService) RenameCategory(ctx context.Context, id, newName string) (state.Snapshot, error) {
	s.mu.RLock()
	idx := s.snap.IndexOfCategory(id)
	var oldName string
	if idx >= 0 {
		oldName = s.snap.Categories[idx].Name
	}
	s.mu.RUnlock()
	if idx < 0 {
		return s.Snapshot(), ErrCategoryNotFound
	}
	return s.apply("category:"+id,
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.RenameCategory(idx, newName) },
		func() error {
			return s.Store.RenameCategory(ctx, s.DB, id, oldName, state.NormalizeName(newName))
		})
}

// DeleteCategory removes the category with the given store id; fields
// referencing it become uncategorized, never dangling.
func (s *ConfigService) DeleteCategory(ctx context.Context, id string) (state.Snapshot, error) {
	s.mu.RLock()
	idx := s.snap.IndexOfCategory(id)
	var name string
	if idx >= 0 {
		name = s.snap.Categories[idx].Name
	}
	s.mu.RUnlock()
	if idx < 0 {
		return s.Snapshot(), ErrCategoryNotFound
	}
	return s.apply("category:"+id,
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.DeleteCategory(idx) },
		func() error { return s.Store.DeleteCategory(ctx, s.DB, id, name) })
}

// ReorderCategories replaces the category display order. ids must be a
// permutation of the current category store ids.
func (s *ConfigService) ReorderCategories(ctx context.Context, ids []string) (state.Snapshot, error) {
	return s.apply("categories:order",
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.ReorderCategories(ids) },
		func() error {
			positions := make(map[string]int, len(s.snap.Categories))
			for i, c := range s.snap.Categories {
				positions[c.ID] = i
			}
			return s.Store.SaveCategoryPositions(ctx, s.DB, positions)
		})
}

// UpdateSettings shallow-merges a partial settings update and persists the
// resulting row.
func (s *ConfigService) UpdateSettings(ctx context.Context, p state.SettingsPatch) (state.Snapshot, error) {
	return s.apply("settings",
		func(snap state.Snapshot) (state.Snapshot, error) { return snap.MergeSettings(p) },
		func() error { return s.Store.SaveSettings(ctx, s.DB, s.snap.Settings) })
}

// Import validates the interchange document and replaces the store and the
// in-memory aggregate together. Unlike the per-entity operations, a store
// failure here leaves the snapshot untouched: a half-imported configuration
// must never be observable.
func (s *ConfigService) Import(ctx context.Context, doc state.Document) (state.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.snap.Import(doc)
	if err != nil {
		return s.snap, err
	}
	fields := make([]domain.Field, len(next.Fields))
	copy(fields, next.Fields)
	categories := make([]domain.Category, len(next.Categories))
	copy(categories, next.Categories)
	if err := s.Store.ReplaceAll(ctx, s.DB, fields, categories, next.Settings); err != nil {
		return s.snap, fmt.Errorf("%w: %v", ErrStoreSave, err)
	}
	s.snap = next
	s.dirty = make(map[string]struct{})
	return s.snap, nil
}

// Export renders the current snapshot as an interchange document.
func (s *ConfigService) Export() state.Document {
	return s.Snapshot().Document()
}
