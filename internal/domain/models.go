// Package domain defines the persistence models for the scoring form
// configuration: fields, categories, settings, and per-user score drafts.
// These types are mapped with GORM and double as the JSON shapes exposed by
// the public API and the import/export interchange document.
package domain

import "time"

// Field represents one scoring dimension of the form. Its ID is the stable,
// operator-chosen identifier that score submissions reference; display order
// is carried in Position and is significant.
//
// Category is a weak reference to a Category by name. It is repaired by the
// configuration state machine when the referenced category is renamed or
// deleted, and the empty string means "uncategorized".
//
// Fields:
//   - ID: stable string identifier (primary key), e.g. "vitamin_d".
//   - Label: human-readable display name.
//   - Category: referenced category name, or "" when uncategorized.
//   - Min / Max: optional score bounds; the 1–10 policy applies when absent.
//   - High / Normal / Low: tier-specific recommendation texts (may contain
//     embedded line breaks).
//   - Position: zero-based display order within the catalog.
type Field struct {
	ID        string    `json:"id"       gorm:"type:varchar(64);primaryKey"`
	Label     string    `json:"label"    gorm:"type:varchar(255);not null"`
	Category  string    `json:"category" gorm:"type:varchar(255);not null;default:'';index"`
	Min       *int      `json:"min,omitempty"`
	Max       *int      `json:"max,omitempty"`
	High      string    `json:"high"     gorm:"type:text;not null"`
	Normal    string    `json:"normal"   gorm:"type:text;not null"`
	Low       string    `json:"low"      gorm:"type:text;not null"`
	Position  int       `json:"-"        gorm:"not null;default:0;index"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the database table name for Field.
func (Field) TableName() string { return "fields" }

// Category is a named grouping of fields. Fields point at it by Name only
// (weak reference); the ID is the store-assigned key used by the REST
// surface so renames do not change the save target.
type Category struct {
	ID        string    `json:"id"   gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
	Position  int       `json:"-"    gorm:"not null;default:0;index"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// TierColors maps the three score tiers to badge colors. The mapping is
// shared by every report consumer (JSON, PDF, spreadsheet).
type TierColors struct {
	Low    string `json:"low"    gorm:"column:color_low;type:varchar(32);not null;default:''"`
	Medium string `json:"medium" gorm:"column:color_medium;type:varchar(32);not null;default:''"`
	High   string `json:"high"   gorm:"column:color_high;type:varchar(32);not null;default:''"`
}

// Settings holds the global presentation and scoring configuration. It is
// persisted as a single row; HighThreshold is the inclusive lower bound of
// the HIGH tier and must stay within the 1–10 score range.
type Settings struct {
	ID            uint       `json:"-"             gorm:"primaryKey"`
	Title         string     `json:"title"         gorm:"type:varchar(255);not null;default:''"`
	Quote         string     `json:"quote"         gorm:"type:text;not null;default:''"`
	Description   string     `json:"description"   gorm:"type:text;not null;default:''"`
	HeaderColor   string     `json:"headerColor"   gorm:"type:varchar(32);not null;default:''"`
	HighThreshold int        `json:"highThreshold" gorm:"not null;default:8"`
	Colors        TierColors `json:"colors"        gorm:"embedded"`
	UpdatedAt     time.Time  `json:"-"`
}

// TableName returns the database table name for Settings.
func (Settings) TableName() string { return "settings" }

// ScoreDraft stores a user's in-progress raw score input so a reload can
// restore unsubmitted answers. Scores holds the raw per-field strings as a
// JSON object, persisted exactly as typed (post digit-stripping).
type ScoreDraft struct {
	UserID    string    `json:"user_id" gorm:"type:varchar(64);primaryKey"`
	Scores    string    `json:"-"       gorm:"type:text;not null;default:'{}'"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for ScoreDraft.
func (ScoreDraft) TableName() string { return "score_drafts" }
