// Package model defines the records stored and served by the notes API.
//
// The gorm tags are read by the gorm repository's AutoMigrate; the sqlite
// repository keeps its own DDL in sync with them by hand.
package model

import "time"

// Defaults applied to notes created without the corresponding field.
const (
	DefaultCategory = "Personal"
	DefaultUsername = "user1"
)

// Column limits, shared by validation and schema.
const (
	MaxTitleLength    = 255
	MaxBodyLength     = 10240
	MaxURLLength      = 255
	MaxCategoryLength = 255
	MaxUsernameLength = 255
)

// Note is a user-authored record.
//
// Username is a plain label, not a reference to User: a note may carry a
// username no account was ever registered under.
type Note struct {
	ID        int64     `json:"id"        gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title"     gorm:"size:255;index;not null"`
	Body      string    `json:"body"      gorm:"size:10240;not null"`
	URL       string    `json:"url"       gorm:"column:url;size:255;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp;not null"`
	Category  string    `json:"category"  gorm:"size:255;not null"`
	Username  string    `json:"username"  gorm:"size:255;index;not null"`
}

func (Note) TableName() string { return "notes" }

// NotePatch lists the fields a partial update may change.
// A nil field is left untouched.
type NotePatch struct {
	Title    *string `json:"title,omitempty"`
	Body     *string `json:"body,omitempty"`
	Category *string `json:"category,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Body == nil && p.Category == nil
}

// Apply copies the set fields of p onto n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	if p.Category != nil {
		n.Category = *p.Category
	}
}
