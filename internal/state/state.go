// Package state implements the in-memory configuration aggregate for the
// scoring form: the ordered field catalog, the category list, and the global
// settings. All mutation happens through the closed set of named operations
// defined here; each operation either returns a fresh snapshot with the
// change applied or a typed error with the prior snapshot untouched.
//
// Design notes:
//   - Copy-on-write: operations never mutate the receiver, so readers of an
//     earlier snapshot are never changed out from under them and no locks
//     are needed inside this package.
//   - Cascades are co-transactional: renaming or deleting a category repairs
//     every field referencing it in the same transition, so a snapshot with
//     dangling references is never observable. The empty string is the only
//     legal "no category" sentinel.
//   - No logging and no I/O; persistence is the caller's concern
//     (see services.ConfigService).
package state

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// Score policy bounds shared with the score validator. HighThreshold must
// stay inside this range for tiering to be meaningful.
const (
	ScoreMin = 1
	ScoreMax = 10
)

// Typed operation errors. Callers map these to user-facing results; the
// snapshot is unchanged whenever one is returned.
var (
	// ErrEmptyFieldID is returned when a field is added or edited with a
	// blank identifier.
	ErrEmptyFieldID = errors.New("field id must not be empty")

	// ErrDuplicateFieldID is returned when an add or edit would produce two
	// fields with the same id.
	ErrDuplicateFieldID = errors.New("field id already exists")

	// ErrEmptyCategoryName is returned when a category is added or renamed
	// to a blank name.
	ErrEmptyCategoryName = errors.New("category name must not be empty")

	// ErrDuplicateCategory is returned when a category name already exists.
	// Comparison is case-sensitive on the trimmed, NFC-normalized name.
	ErrDuplicateCategory = errors.New("category already exists")

	// ErrIndexOutOfRange is returned when an index-addressed operation
	// targets a position outside the current collection.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotPermutation is returned when a reorder request is not a
	// bijection on the existing field set.
	ErrNotPermutation = errors.New("reorder must be a permutation of the current fields")

	// ErrThresholdOutOfRange is returned when a settings update places the
	// high threshold outside the valid score range.
	ErrThresholdOutOfRange = errors.New("high threshold must be between 1 and 10")
)

// Snapshot is one immutable value of the configuration aggregate. The zero
// value is a valid, empty configuration.
type Snapshot struct {
	Fields     []domain.Field
	Categories []domain.Category
	Settings   domain.Settings
	// Version increments on every successful operation, starting at zero
	// for a freshly loaded snapshot.
	Version uint64
}

// SettingsPatch is a partial settings update. Nil members are left as-is;
// the merge is shallow except Colors, which replaces the whole triple.
type SettingsPatch struct {
	Title         *string
	Quote         *string
	Description   *string
	HeaderColor   *string
	HighThreshold *int
	Colors        *domain.TierColors
}

// NormalizeName trims surrounding whitespace and applies Unicode NFC so two
// visually identical spellings of a category name compare equal. The match
// itself stays case-sensitive.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// clone returns a deep-enough copy for copy-on-write semantics: fresh slices
// with the same (value-type) elements.
func (s Snapshot) clone() Snapshot {
	next := s
	next.Fields = make([]domain.Field, len(s.Fields))
	copy(next.Fields, s.Fields)
	next.Categories = make([]domain.Category, len(s.Categories))
	copy(next.Categories, s.Categories)
	return next
}

// fieldIDTaken reports whether id is already used by a field other than the
// one at skip (pass -1 to check all).
func (s Snapshot) fieldIDTaken(id string, skip int) bool {
	for i, f := range s.Fields {
		if i != skip && f.ID == id {
			return true
		}
	}
	return false
}

// categoryNameTaken reports whether the normalized name is already used by a
// category other than the one at skip (pass -1 to check all).
func (s Snapshot) categoryNameTaken(name string, skip int) bool {
	for i, c := range s.Categories {
		if i != skip && c.Name == name {
			return true
		}
	}
	return false
}

// AddField appends f to the end of the catalog. The id is trimmed and must
// be non-empty and unique.
func (s Snapshot) AddField(f domain.Field) (Snapshot, error) {
	f.ID = strings.TrimSpace(f.ID)
	if f.ID == "" {
		return s, ErrEmptyFieldID
	}
	if s.fieldIDTaken(f.ID, -1) {
		return s, ErrDuplicateFieldID
	}
	next := s.clone()
	f.Position = len(next.Fields)
	next.Fields = append(next.Fields, f)
	next.Version++
	return next, nil
}

// UpdateField replaces the field at index i wholesale. Changing the id is
// allowed as long as the new id stays unique.
func (s Snapshot) UpdateField(i int, f domain.Field) (Snapshot, error) {
	if i < 0 || i >= len(s.Fields) {
		return s, ErrIndexOutOfRange
	}
	f.ID = strings.TrimSpace(f.ID)
	if f.ID == "" {
		return s, ErrEmptyFieldID
	}
	if s.fieldIDTaken(f.ID, i) {
		return s, ErrDuplicateFieldID
	}
	next := s.clone()
	f.Position = i
	next.Fields[i] = f
	next.Version++
	return next, nil
}

// DeleteField removes the field at index i; the order of the remaining
// fields is preserved.
func (s Snapshot) DeleteField(i int) (Snapshot, error) {
	if i < 0 || i >= len(s.Fields) {
		return s, ErrIndexOutOfRange
	}
	next := s.clone()
	next.Fields = append(next.Fields[:i], next.Fields[i+1:]...)
	for j := range next.Fields {
		next.Fields[j].Position = j
	}
	next.Version++
	return next, nil
}

// ReorderFields replaces the catalog order wholesale. ids must be a
// permutation of the current field ids; no field may be invented or lost.
func (s Snapshot) ReorderFields(ids []string) (Snapshot, error) {
	if len(ids) != len(s.Fields) {
		return s, ErrNotPermutation
	}
	byID := make(map[string]domain.Field, len(s.Fields))
	for _, f := range s.Fields {
		byID[f.ID] = f
	}
	reordered := make([]domain.Field, 0, len(ids))
	for _, id := range ids {
		f, ok := byID[id]
		if !ok {
			return s, ErrNotPermutation
		}
		delete(byID, id) // a repeated id is not a permutation either
		f.Position = len(reordered)
		reordered = append(reordered, f)
	}
	next := s.clone()
	next.Fields = reordered
	next.Version++
	return next, nil
}

// AddCategory appends c. The name is normalized and must be non-empty and
// unique.
func (s Snapshot) AddCategory(c domain.Category) (Snapshot, error) {
	c.Name = NormalizeName(c.Name)
	if c.Name == "" {
		return s, ErrEmptyCategoryName
	}
	if s.categoryNameTaken(c.Name, -1) {
		return s, ErrDuplicateCategory
	}
	next := s.clone()
	c.Position = len(next.Categories)
	next.Categories = append(next.Categories, c)
	next.Version++
	return next, nil
}

// RenameCategory renames the category at index i and, in the same
// transition, rewrites every field whose category equals the old name to the
// new one.
func (s Snapshot) RenameCategory(i int, newName string) (Snapshot, error) {
	if i < 0 || i >= len(s.Categories) {
		return s, ErrIndexOutOfRange
	}
	newName = NormalizeName(newName)
	if newName == "" {
		return s, ErrEmptyCategoryName
	}
	if s.categoryNameTaken(newName, i) {
		return s, ErrDuplicateCategory
	}
	oldName := s.Categories[i].Name
	next := s.clone()
	next.Categories[i].Name = newName
	for j := range next.Fields {
		if next.Fields[j].Category == oldName {
			next.Fields[j].Category = newName
		}
	}
	next.Version++
	return next, nil
}

// DeleteCategory removes the category at index i and, in the same
// transition, resets every field referencing it to the uncategorized
// sentinel "". No field is deleted.
func (s Snapshot) DeleteCategory(i int) (Snapshot, error) {
	if i < 0 || i >= len(s.Categories) {
		return s, ErrIndexOutOfRange
	}
	removed := s.Categories[i].Name
	next := s.clone()
	next.Categories = append(next.Categories[:i], next.Categories[i+1:]...)
	for j := range next.Categories {
		next.Categories[j].Position = j
	}
	for j := range next.Fields {
		if next.Fields[j].Category == removed {
			next.Fields[j].Category = ""
		}
	}
	next.Version++
	return next, nil
}

// ReorderCategories replaces the category display order wholesale. ids must
// be a permutation of the current category store ids; no category may be
// invented or lost. Fields are untouched.
func (s Snapshot) ReorderCategories(ids []string) (Snapshot, error) {
	if len(ids) != len(s.Categories) {
		return s, ErrNotPermutation
	}
	byID := make(map[string]domain.Category, len(s.Categories))
	for _, c := range s.Categories {
		byID[c.ID] = c
	}
	reordered := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return s, ErrNotPermutation
		}
		delete(byID, id) // a repeated id is not a permutation either
		c.Position = len(reordered)
		reordered = append(reordered, c)
	}
	next := s.clone()
	next.Categories = reordered
	next.Version++
	return next, nil
}

// MergeSettings shallow-merges the patch into the settings. A high threshold
// outside the score range is rejected with the snapshot unchanged.
func (s Snapshot) MergeSettings(p SettingsPatch) (Snapshot, error) {
	if p.HighThreshold != nil && (*p.HighThreshold < ScoreMin || *p.HighThreshold > ScoreMax) {
		return s, ErrThresholdOutOfRange
	}
	next := s.clone()
	if p.Title != nil {
		next.Settings.Title = *p.Title
	}
	if p.Quote != nil {
		next.Settings.Quote = *p.Quote
	}
	if p.Description != nil {
		next.Settings.Description = *p.Description
	}
	if p.HeaderColor != nil {
		next.Settings.HeaderColor = *p.HeaderColor
	}
	if p.HighThreshold != nil {
		next.Settings.HighThreshold = *p.HighThreshold
	}
	if p.Colors != nil {
		next.Settings.Colors = *p.Colors
	}
	next.Version++
	return next, nil
}

// IndexOfField returns the position of the field with the given id, or -1.
func (s Snapshot) IndexOfField(id string) int {
	for i, f := range s.Fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// IndexOfCategory returns the position of the category with the given store
// id, or -1.
func (s Snapshot) IndexOfCategory(id string) int {
	for i, c := range s.Categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
