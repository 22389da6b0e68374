// Interchange document support: the JSON shape used to export a full
// configuration to a file and import it back. This is the only bit-exact
// format in the system; a document missing any of fields, categories, title,
// or colors is rejected wholesale so a partial import can never be applied.
package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

// ErrInvalidDocument is returned (possibly wrapped with detail) when an
// imported document cannot be parsed or fails wholesale validation.
var ErrInvalidDocument = errors.New("invalid configuration document")

// DocCategory is a category as it appears in the interchange document.
// Historic exports carried bare name strings; both forms are accepted on
// input, and exports always write the {id, name} object form.
type DocCategory struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts either "Metabolism" or {"id": "...", "name": "Metabolism"}.
func (c *DocCategory) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*c = DocCategory{Name: name}
		return nil
	}
	type alias DocCategory
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = DocCategory(a)
	return nil
}

// Document is the import/export file shape. Pointer and slice members are
// nil when the corresponding key was absent, which Validate treats as a
// wholesale rejection.
type Document struct {
	Title         string             `json:"title"`
	Quote         string             `json:"quote"`
	Description   string             `json:"description"`
	HeaderColor   string             `json:"headerColor"`
	HighThreshold int                `json:"highThreshold"`
	Colors        *domain.TierColors `json:"colors"`
	Categories    []DocCategory      `json:"categories"`
	Fields        []domain.Field     `json:"fields"`
}

// ParseDocument decodes and validates an interchange document. Any JSON
// error or missing required key yields ErrInvalidDocument.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate enforces the wholesale presence rule: fields, categories, title,
// and colors must all be present (empty collections are allowed, an empty
// title is not).
func (d Document) Validate() error {
	switch {
	case d.Fields == nil:
		return fmt.Errorf("%w: missing fields", ErrInvalidDocument)
	case d.Categories == nil:
		return fmt.Errorf("%w: missing categories", ErrInvalidDocument)
	case d.Title == "":
		return fmt.Errorf("%w: missing title", ErrInvalidDocument)
	case d.Colors == nil:
		return fmt.Errorf("%w: missing colors", ErrInvalidDocument)
	}
	return nil
}

// Import replaces the whole aggregate with the document's content and bumps
// the version. Categories without a store id receive a generated one so the
// snapshot can be persisted as-is.
func (s Snapshot) Import(d Document) (Snapshot, error) {
	if err := d.Validate(); err != nil {
		return s, err
	}
	next := Snapshot{Version: s.Version + 1}

	next.Categories = make([]domain.Category, 0, len(d.Categories))
	for i, c := range d.Categories {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		next.Categories = append(next.Categories, domain.Category{
			ID:       id,
			Name:     NormalizeName(c.Name),
			Position: i,
		})
	}

	next.Fields = make([]domain.Field, 0, len(d.Fields))
	for i, f := range d.Fields {
		f.Position = i
		next.Fields = append(next.Fields, f)
	}

	next.Settings = domain.Settings{
		Title:         d.Title,
		Quote:         d.Quote,
		Description:   d.Description,
		HeaderColor:   d.HeaderColor,
		HighThreshold: d.HighThreshold,
		Colors:        *d.Colors,
	}
	return next, nil
}

// Document renders the snapshot as an interchange document, the inverse of
// Import up to category id assignment.
func (s Snapshot) Document() Document {
	cats := make([]DocCategory, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, DocCategory{ID: c.ID, Name: c.Name})
	}
	fields := make([]domain.Field, len(s.Fields))
	copy(fields, s.Fields)
	colors := s.Settings.Colors
	return Document{
		Title:         s.Settings.Title,
		Quote:         s.Settings.Quote,
		Description:   s.Settings.Description,
		HeaderColor:   s.Settings.HeaderColor,
		HighThreshold: s.Settings.HighThreshold,
		Colors:        &colors,
		Categories:    cats,
		Fields:        fields,
	}
}
